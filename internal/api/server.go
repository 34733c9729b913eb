package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pbaille/fitlog/internal/aggregate"
	"github.com/pbaille/fitlog/internal/domain"
	"github.com/pbaille/fitlog/internal/logging"
	"github.com/pbaille/fitlog/internal/pipeline"
	"github.com/pbaille/fitlog/internal/store"
	"github.com/pbaille/fitlog/internal/tracking"
)

// Server handles HTTP requests for the journal API
type Server struct {
	pipeline *pipeline.Pipeline
	store    *store.NoteStore
	days     *aggregate.Watcher
	records  *tracking.Records
	log      logging.Logger
	addr     string
}

// Deps are the components a Server exposes
type Deps struct {
	Pipeline *pipeline.Pipeline
	Store    *store.NoteStore
	Days     *aggregate.Watcher
	Records  *tracking.Records
	Logger   logging.Logger
}

// New creates a new API server
func New(d Deps, addr string) *Server {
	return &Server{
		pipeline: d.Pipeline,
		store:    d.Store,
		days:     d.Days,
		records:  d.Records,
		log:      logging.OrNop(d.Logger),
		addr:     addr,
	}
}

// Handler returns the routed handler with CORS applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Notes
	mux.HandleFunc("GET /notes", s.listNotes)
	mux.HandleFunc("POST /notes", s.addNote)
	mux.HandleFunc("GET /notes/{id}", s.getNote)
	mux.HandleFunc("PUT /notes/{id}", s.updateNote)
	mux.HandleFunc("POST /notes/{id}/retry", s.retryNote)
	mux.HandleFunc("DELETE /notes/{id}", s.deleteNote)

	// Daily tracking
	mux.HandleFunc("GET /days", s.listDays)
	mux.HandleFunc("GET /days/{date}", s.getDay)
	mux.HandleFunc("PUT /tracking/{date}", s.putTracking)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return withCORS(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("api: listening on %s", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": s.store.Backend(),
	})
}

// AddNoteRequest is the request body for adding a note. AutoTracking
// defaults to true.
type AddNoteRequest struct {
	Raw          string              `json:"raw"`
	AutoTracking *bool               `json:"autoTracking,omitempty"`
	Attachments  []domain.Attachment `json:"attachments,omitempty"`
}

// NoteResponse carries a note and its id
type NoteResponse struct {
	ID   string      `json:"id"`
	Note domain.Note `json:"note"`
}

// UpdateNoteRequest is the request body for editing a note
type UpdateNoteRequest struct {
	Raw string `json:"raw"`
}

func (s *Server) addNote(w http.ResponseWriter, r *http.Request) {
	var req AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	auto := true
	if req.AutoTracking != nil {
		auto = *req.AutoTracking
	}

	id, err := s.pipeline.ProcessSmartNote(r.Context(), req.Raw, pipeline.Options{
		AutoTracking: auto,
		Attachments:  req.Attachments,
	})
	if errors.Is(err, pipeline.ErrEmptyInput) {
		writeError(w, http.StatusBadRequest, "raw is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	note, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, NoteResponse{ID: id, Note: note})
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	// Support prefix matching
	id, err := s.store.Resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	note, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}

	err := s.pipeline.UpdateSmartNote(r.Context(), id, req.Raw)
	if errors.Is(err, pipeline.ErrEmptyInput) {
		writeError(w, http.StatusBadRequest, "raw is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	note, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NoteResponse{ID: id, Note: note})
}

func (s *Server) retryNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	if err := s.pipeline.RetrySmartNote(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	var cursor int64
	limit := 20

	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	if c := r.URL.Query().Get("cursor"); c != "" {
		n, err := strconv.ParseInt(c, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "cursor must be a timestamp in milliseconds")
			return
		}
		cursor = n
	}

	page, err := s.store.List(r.Context(), cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if page.Notes == nil {
		page.Notes = []domain.Note{}
	}
	writeJSON(w, http.StatusOK, page)
}

// combined merges the manual records with the current note aggregate
func (s *Server) combined() (map[string]domain.DailyTracking, error) {
	manual, err := s.records.Load()
	if err != nil {
		return nil, err
	}
	return tracking.Combine(manual, s.days.Snapshot()), nil
}

func (s *Server) listDays(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	for _, d := range []string{from, to} {
		if d != "" && !validDay(d) {
			writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
			return
		}
	}

	days, err := s.combined()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days": tracking.Range(days, from, to),
	})
}

func (s *Server) getDay(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if !validDay(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	days, err := s.combined()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tracking.Day(days, date))
}

// putTracking replaces the manual record of a day and returns the
// combined view.
func (s *Server) putTracking(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if !validDay(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	var rec domain.DailyTracking
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := s.records.Update(date, func(d *domain.DailyTracking) { *d = rec }); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	days, err := s.combined()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tracking.Day(days, date))
}

func validDay(s string) bool {
	_, err := time.Parse(domain.DayLayout, s)
	return err == nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "note not found")
	case errors.Is(err, store.ErrAmbiguous):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("api: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
