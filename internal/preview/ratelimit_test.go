package preview

import (
	"testing"
	"time"

	"github.com/lawnchairsociety/wangtile/internal/config"
)

func TestEditLimiterWindow(t *testing.T) {
	l := NewEditLimiter(config.EditRateConfig{Enabled: true, MaxEdits: 3, WindowSeconds: 1})
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(); !ok {
			t.Fatalf("edit %d should be allowed", i+1)
		}
	}

	now = now.Add(400 * time.Millisecond)
	ok, wait := l.Allow()
	if ok {
		t.Fatal("4th edit should be blocked")
	}
	if wait != 600*time.Millisecond {
		t.Errorf("wait = %v, want 600ms", wait)
	}

	// Blocked edits are not recorded, so the window frees up on schedule.
	now = now.Add(600 * time.Millisecond)
	if ok, _ := l.Allow(); !ok {
		t.Error("edit after the window should be allowed")
	}
}

func TestEditLimiterDisabled(t *testing.T) {
	tests := []config.EditRateConfig{
		{Enabled: false, MaxEdits: 1, WindowSeconds: 1},
		{Enabled: true, MaxEdits: 0, WindowSeconds: 1},
	}
	for _, cfg := range tests {
		l := NewEditLimiter(cfg)
		for i := 0; i < 50; i++ {
			if ok, _ := l.Allow(); !ok {
				t.Fatalf("config %+v blocked edit %d", cfg, i+1)
			}
		}
	}
}

func TestEditLimiterReset(t *testing.T) {
	l := NewEditLimiter(config.EditRateConfig{Enabled: true, MaxEdits: 1, WindowSeconds: 60})
	l.Allow()
	if ok, _ := l.Allow(); ok {
		t.Fatal("second edit should be blocked")
	}
	l.Reset()
	if ok, _ := l.Allow(); !ok {
		t.Error("edit after Reset should be allowed")
	}
}
