// Package preview streams a live autotiled map to renderers over WebSocket
// and applies the corner edits they send back.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/wangtile/internal/autotile"
	"github.com/lawnchairsociety/wangtile/internal/config"
	"github.com/lawnchairsociety/wangtile/internal/logger"
)

const (
	writeTimeout  = 5 * time.Second
	sendQueueSize = 256
)

var errSlowViewer = errors.New("preview: viewer send queue full")

// WarningSink receives warnings produced by viewer edits. It is called
// outside the server lock and may run on several goroutines at once.
type WarningSink func([]*autotile.ResolutionWarning)

// Server shares one autotile session between all connected viewers.
type Server struct {
	cfg     config.PreviewConfig
	limiter *ConnLimiter

	mu       sync.Mutex // guards session and viewers
	session  *autotile.Session
	viewers  map[*viewer]struct{}
	warnings WarningSink

	httpServer *http.Server
}

// viewer is one WebSocket connection. Messages are queued and written by
// writeLoop, so broadcasting never waits on a slow connection.
type viewer struct {
	conn  *websocket.Conn
	ip    string
	edits *EditLimiter
	queue chan []byte
}

func newViewer(conn *websocket.Conn, ip string, edits *EditLimiter) *viewer {
	return &viewer{conn: conn, ip: ip, edits: edits, queue: make(chan []byte, sendQueueSize)}
}

// send queues msg without blocking. A viewer whose queue is full has
// stopped keeping up and is disconnected.
func (v *viewer) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case v.queue <- data:
		return nil
	default:
		v.conn.Close()
		return errSlowViewer
	}
}

// writeLoop drains the queue until it is closed. After a write error the
// rest of the queue is discarded.
func (v *viewer) writeLoop() {
	for data := range v.queue {
		v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Debug("Viewer write failed", "client_ip", v.ip, "error", err)
			v.conn.Close()
			for range v.queue {
			}
			return
		}
	}
}

// NewServer creates a preview server over session.
func NewServer(session *autotile.Session, cfg config.PreviewConfig) *Server {
	return &Server{
		cfg:     cfg,
		limiter: NewConnLimiter(cfg.Connections),
		session: session,
		viewers: make(map[*viewer]struct{}),
	}
}

// OnWarnings registers a sink for resolution warnings caused by edits.
func (s *Server) OnWarnings(sink WarningSink) {
	s.mu.Lock()
	s.warnings = sink
	s.mu.Unlock()
}

// Handler returns the HTTP handler serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleUpgrade)
	return mux
}

// Start listens on address until Shutdown is called.
func (s *Server) Start(address string) error {
	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Preview server listening", "address", address)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting viewers and closes the open connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.mu.Lock()
	for v := range s.viewers {
		v.conn.Close()
	}
	s.mu.Unlock()
	return err
}

// ViewerCount returns the number of connected viewers.
func (s *Server) ViewerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	if !s.limiter.TryAcquire(ip) {
		logger.Warning("Viewer rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", ip)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("Viewer rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.limiter.Release(ip)
		return
	}

	go s.serveViewer(newViewer(conn, ip, NewEditLimiter(s.cfg.EditRate)))
}

func (s *Server) serveViewer(v *viewer) {
	go v.writeLoop()
	defer func() {
		// Once removed from viewers nothing else queues to v.
		s.mu.Lock()
		delete(s.viewers, v)
		s.mu.Unlock()
		close(v.queue)
		s.limiter.Release(v.ip)
		v.conn.Close()
		logger.Debug("Viewer disconnected", "client_ip", v.ip)
	}()

	if s.cfg.WebSocket.MaxMessageSize > 0 {
		v.conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	// Register and queue the snapshot under one lock so no patch is missed
	// or doubled.
	s.mu.Lock()
	err := v.send(newSnapshot(s.session))
	if err == nil {
		s.viewers[v] = struct{}{}
	}
	s.mu.Unlock()
	if err != nil {
		logger.Debug("Snapshot send failed", "client_ip", v.ip, "error", err)
		return
	}
	logger.Info("Viewer connected", "client_ip", v.ip)

	for {
		_, data, err := v.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Viewer read failed", "client_ip", v.ip, "error", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			v.send(ErrorMessage{Type: TypeError, Message: "malformed request"})
			continue
		}
		if req.Type == TypeSetCorner || req.Type == TypeFill {
			if ok, wait := v.edits.Allow(); !ok {
				v.send(ErrorMessage{
					Type:    TypeError,
					Message: fmt.Sprintf("too many edits, retry in %dms", wait.Milliseconds()),
				})
				continue
			}
		}
		if err := s.handleRequest(v, req); err != nil {
			v.send(ErrorMessage{Type: TypeError, Message: err.Error()})
		}
	}
}

// handleRequest applies one viewer request and hands any resolution
// warnings to the sink once the lock is released.
func (s *Server) handleRequest(v *viewer, req Request) error {
	result, sink, err := s.apply(v, req)
	if err != nil {
		return err
	}
	if result != nil && len(result.Warnings) > 0 && sink != nil {
		sink(result.Warnings)
	}
	return nil
}

// apply runs the request under the lock. Patches are queued to every viewer
// before the lock is released, so all viewers see them in edit order.
func (s *Server) apply(v *viewer, req Request) (*autotile.Result, WarningSink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result *autotile.Result
	switch req.Type {
	case TypeResync:
		return nil, nil, v.send(newSnapshot(s.session))

	case TypeSetCorner, TypeFill:
		class, ok := s.session.Grid().Classes().ByName(req.Class)
		if !ok {
			return nil, nil, fmt.Errorf("unknown class %q", req.Class)
		}
		var err error
		if req.Type == TypeSetCorner {
			result, err = s.session.SetCorner(req.X, req.Y, class)
		} else {
			result, err = s.session.FillCorners(req.X0, req.Y0, req.X1, req.Y1, class)
		}
		if err != nil {
			return nil, nil, err
		}

	default:
		return nil, nil, fmt.Errorf("unknown request type %q", req.Type)
	}

	patch := newPatch(result)
	for other := range s.viewers {
		if err := other.send(patch); err != nil {
			logger.Warning("Patch dropped", "client_ip", other.ip, "error", err)
		}
	}
	return result, s.warnings, nil
}
