// Package web provides the HTTP status surface for the button daemon: four
// read-only plain-text attribute endpoints mapping 1:1 to the pipeline
// counters, plus a JSON snapshot and an HTML status page.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/chun/bbb-button/internal/stats"
)

// Server serves the status pages and counter attributes over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *stats.Tracker
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *stats.Tracker) *Server {
	s := &Server{tracker: tracker}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/attr/", s.handleAttr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatJSON(snap))
}

// handleAttr serves one counter as its decimal string representation, one
// endpoint per counter. The attributes are read-only.
func (s *Server) handleAttr(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "read-only attribute", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/attr/")
	counters := s.tracker.Snapshot().Counters

	var value int64
	switch name {
	case "raw_transitions":
		value = counters.RawTransitions
	case "settle_passes":
		value = counters.SettlePasses
	case "press_count":
		value = counters.Presses
	case "last_event_ns":
		value = counters.LastEventNanos
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%d\n", value)
}
