package spectate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/brensch/demonsnake/store"
)

// Server exposes the spectator stream and read-only JSON endpoints.
type Server struct {
	hub   *Hub
	roots []string
}

// NewServer serves hub and ranks runs found under roots.
func NewServer(hub *Hub, roots []string) *Server {
	return &Server{hub: hub, roots: roots}
}

// RegisterRoutes sets up every route on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/leaderboard", s.handleLeaderboard)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	frame := s.hub.LastFrame()
	if frame == nil {
		http.Error(w, "no game running", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(frame)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Reopened per request so runs archived since the last call show up.
	lb, err := store.OpenLeaderboard(s.roots)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to open leaderboard: %v", err), http.StatusInternalServerError)
		return
	}
	defer lb.Close()

	q := store.TopQuery{
		Limit:  parseIntQuery(r, "limit", 10),
		Source: strings.TrimSpace(r.URL.Query().Get("source")),
	}
	switch r.URL.Query().Get("difficulty") {
	case "hard":
		v := true
		q.HighDifficulty = &v
	case "normal":
		v := false
		q.HighDifficulty = &v
	}

	runs, err := lb.Top(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.RunRow{}
	}
	writeJSON(w, runs)
}

func withCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
