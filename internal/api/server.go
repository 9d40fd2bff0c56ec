// Package api serves a browsing session over JSON HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/jask/foodswipe/internal/pipeline"
	"github.com/jask/foodswipe/internal/service"
	"github.com/jask/foodswipe/internal/settings"
	"github.com/jask/foodswipe/internal/venue"
)

// Server routes API requests to a session service.
type Server struct {
	Session *service.SessionService
	Auth    *Auth
	Logger  *log.Logger
}

func NewServer(session *service.SessionService, auth *Auth, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{Session: session, Auth: auth, Logger: logger}
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/get_token", s.Auth.GetToken)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/session", s.handleSnapshot)
	protected.HandleFunc("POST /api/session/start", s.handleStart)
	protected.HandleFunc("POST /api/session/more", s.handleLoadMore)
	protected.HandleFunc("POST /api/session/decide", s.handleDecide)
	protected.HandleFunc("GET /api/settings", s.handleGetSettings)
	protected.HandleFunc("PUT /api/settings", s.handlePutSettings)
	protected.HandleFunc("GET /api/liked", s.handleLiked)
	protected.HandleFunc("DELETE /api/liked/{id}", s.handleRemoveLiked)

	mux.Handle("/api/", s.Auth.Middleware(protected))
	return mux
}

type venueView struct {
	venue.Venue
	DistanceLabel string `json:"distanceLabel"`
	MapsURL       string `json:"mapsUrl"`
}

func viewOf(v venue.Venue) venueView {
	return venueView{Venue: v, DistanceLabel: v.DistanceLabel(), MapsURL: v.MapsURL()}
}

func viewsOf(vs []venue.Venue) []venueView {
	out := make([]venueView, 0, len(vs))
	for _, v := range vs {
		out = append(out, viewOf(v))
	}
	return out
}

type errorView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type snapshotView struct {
	SessionID string            `json:"sessionId,omitempty"`
	Current   *venueView        `json:"current"`
	Position  int               `json:"position"`
	Total     int               `json:"total"`
	Remaining int               `json:"remaining"`
	Exhausted bool              `json:"exhausted"`
	IsLoading bool              `json:"isLoading"`
	LastError *errorView        `json:"lastError"`
	Liked     int               `json:"likedCount"`
	Settings  settings.Settings `json:"settings"`
	Reference *venue.Coordinate `json:"reference"`
}

func snapshotOf(snap service.Snapshot) snapshotView {
	out := snapshotView{
		SessionID: snap.SessionID,
		Position:  snap.Position,
		Total:     snap.Total,
		Remaining: snap.Remaining,
		Exhausted: snap.Exhausted,
		IsLoading: snap.IsLoading,
		Liked:     len(snap.Liked),
		Settings:  snap.Settings,
		Reference: snap.Reference,
	}
	if snap.Current != nil {
		v := viewOf(*snap.Current)
		out.Current = &v
	}
	if snap.LastError != nil {
		out.LastError = &errorView{Kind: snap.LastError.Kind.String(), Message: snap.LastError.Message()}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var f *service.Failure
	if !errors.As(err, &f) {
		s.Logger.Printf("api: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	status := http.StatusBadGateway
	switch f.Kind {
	case service.KindInvalidQuery:
		status = http.StatusBadRequest
	case service.KindLocationUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"error":    errorView{Kind: f.Kind.String(), Message: f.Message()},
		"snapshot": snapshotOf(s.Session.Snapshot()),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snapshotOf(s.Session.Snapshot()))
}

type fetchView struct {
	Busy      bool         `json:"busy"`
	Exhausted bool         `json:"exhausted"`
	Fetched   int          `json:"fetched"`
	Snapshot  snapshotView `json:"snapshot"`
}

func (s *Server) writeFetch(w http.ResponseWriter, res pipeline.FetchResult, err error) {
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fetchView{
		Busy:      res.Busy,
		Exhausted: res.Exhausted,
		Fetched:   res.Fetched,
		Snapshot:  snapshotOf(s.Session.Snapshot()),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	res, err := s.Session.Start(r.Context())
	s.writeFetch(w, res, err)
}

func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	res, err := s.Session.LoadMore(r.Context())
	s.writeFetch(w, res, err)
}

type decideRequest struct {
	Direction string `json:"direction"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	dir, err := pipeline.ParseDirection(req.Direction)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := s.Session.Decide(r.Context(), dir)
	if errors.Is(err, pipeline.ErrNoCandidate) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    errorView{Kind: "no_candidate", Message: err.Error()},
			"snapshot": snapshotOf(s.Session.Snapshot()),
		})
		return
	}
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"venueId":    d.VenueID,
		"direction":  d.Direction.String(),
		"newlyLiked": d.NewlyLiked,
		"snapshot":   snapshotOf(s.Session.Snapshot()),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Session.Settings())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	next := s.Session.Settings()
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if !next.Category.Valid() {
		http.Error(w, "Unknown category", http.StatusBadRequest)
		return
	}
	if !next.SortMode.Valid() {
		http.Error(w, "Unknown sort mode", http.StatusBadRequest)
		return
	}
	effect, err := s.Session.UpdateSettings(r.Context(), next)
	if errors.Is(err, service.ErrBusy) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    errorView{Kind: "busy", Message: "A search is already running. Try again when it finishes."},
			"snapshot": snapshotOf(s.Session.Snapshot()),
		})
		return
	}
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"effect":   effect.String(),
		"snapshot": snapshotOf(s.Session.Snapshot()),
	})
}

func (s *Server) handleLiked(w http.ResponseWriter, r *http.Request) {
	list := s.Session.SearchLiked(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{"liked": viewsOf(list)})
}

func (s *Server) handleRemoveLiked(w http.ResponseWriter, r *http.Request) {
	if !s.Session.RemoveLiked(r.Context(), r.PathValue("id")) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
