package preview

import (
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/lawnchairsociety/wangtile/internal/config"
)

func TestConnLimiter_PerIP(t *testing.T) {
	cl := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 2, MaxTotal: 10})

	if !cl.TryAcquire("10.0.0.1") || !cl.TryAcquire("10.0.0.1") {
		t.Fatal("expected the first two connections to be allowed")
	}
	if cl.TryAcquire("10.0.0.1") {
		t.Error("expected the third connection from one IP to be rejected")
	}
	if !cl.TryAcquire("10.0.0.2") {
		t.Error("expected another IP to be allowed")
	}

	cl.Release("10.0.0.1")
	if !cl.TryAcquire("10.0.0.1") {
		t.Error("expected a slot after release")
	}
}

func TestConnLimiter_Total(t *testing.T) {
	cl := NewConnLimiter(config.ConnectionsConfig{MaxTotal: 2})

	cl.TryAcquire("a")
	cl.TryAcquire("b")
	if cl.TryAcquire("c") {
		t.Error("expected the total limit to reject a third connection")
	}

	total, ips := cl.Stats()
	if total != 2 || ips != 2 {
		t.Errorf("Stats() = (%d, %d), want (2, 2)", total, ips)
	}
}

func TestConnLimiter_Unlimited(t *testing.T) {
	cl := NewConnLimiter(config.ConnectionsConfig{})
	for i := 0; i < 100; i++ {
		if !cl.TryAcquire("a") {
			t.Fatalf("connection %d rejected with no limits", i)
		}
	}
}

func TestConnLimiter_ReleaseUnknown(t *testing.T) {
	cl := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 1})
	cl.Release("never-seen")

	total, ips := cl.Stats()
	if total != 0 || ips != 0 {
		t.Errorf("Stats() = (%d, %d) after stray release, want (0, 0)", total, ips)
	}
}

func TestConnLimiter_Concurrent(t *testing.T) {
	cl := NewConnLimiter(config.ConnectionsConfig{MaxTotal: 50})

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cl.TryAcquire("a") {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 50 {
		t.Errorf("acquired = %d, want 50", acquired)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.1:80", "198.51.100.4"},
		{"no port", nil, "pipe", "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
