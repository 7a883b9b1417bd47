package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-drift/drift/pkg/core"
	"github.com/go-drift/drift/pkg/keys"
	"github.com/go-drift/drift/pkg/layout"
)

// Server is a thin, opt-in HTTP front end over SnapshotWidgetTree,
// SnapshotRenderTree and SnapshotGlobalKeys. It holds no tree state of its
// own; every request calls back into the embedder to fetch whatever is
// current at that instant.
type Server struct {
	mu       sync.Mutex
	server   *http.Server
	listener net.Listener

	widgetRoot func() core.Element
	renderRoot func() layout.RenderObject
	globalKeys func() *keys.Registry
}

// NewServer constructs a Server. Any provider func may be nil, in which
// case its endpoint reports 503 rather than panicking.
func NewServer(widgetRoot func() core.Element, renderRoot func() layout.RenderObject, globalKeys func() *keys.Registry) *Server {
	return &Server{widgetRoot: widgetRoot, renderRoot: renderRoot, globalKeys: globalKeys}
}

// Start binds addr and begins serving in the background, returning the
// actual address bound (useful when addr's port is ":0"). Calling Start
// twice on an already-running Server is a no-op.
func (s *Server) Start(addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.listener.Addr().String(), nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("devtools: listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/widget-tree", s.handleWidgetTree)
	mux.HandleFunc("/render-tree", s.handleRenderTree)
	mux.HandleFunc("/global-keys", s.handleGlobalKeys)
	mux.HandleFunc("/health", s.handleHealth)

	server := &http.Server{Handler: mux}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.mu.Lock()
			s.server = nil
			s.listener = nil
			s.mu.Unlock()
		}
	}()

	return listener.Addr().String(), nil
}

// Stop gracefully shuts the server down, waiting up to two seconds for
// in-flight requests to finish. Safe to call on a Server that was never
// started or already stopped.
func (s *Server) Stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

func (s *Server) handleWidgetTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer recoverSerialize(w)

	if s.widgetRoot == nil {
		http.Error(w, "widget tree unavailable", http.StatusServiceUnavailable)
		return
	}
	root := s.widgetRoot()
	if root == nil {
		http.Error(w, "no widget tree", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, SnapshotWidgetTree(root))
}

func (s *Server) handleRenderTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer recoverSerialize(w)

	if s.renderRoot == nil {
		http.Error(w, "render tree unavailable", http.StatusServiceUnavailable)
		return
	}
	root := s.renderRoot()
	if root == nil {
		http.Error(w, "no render tree", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, SnapshotRenderTree(root))
}

func (s *Server) handleGlobalKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer recoverSerialize(w)

	if s.globalKeys == nil {
		http.Error(w, "global key registry unavailable", http.StatusServiceUnavailable)
		return
	}
	registry := s.globalKeys()
	if registry == nil {
		http.Error(w, "global key registry unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, SnapshotGlobalKeys(registry))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func recoverSerialize(w http.ResponseWriter) {
	if rec := recover(); rec != nil {
		http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
