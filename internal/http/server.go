package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Devinfern/sanghos-sub001/internal/pipeline"
	"github.com/Devinfern/sanghos-sub001/internal/storage"
)

type Server struct {
	Pipeline *pipeline.Pipeline
	Store    *storage.SQLiteStore
	Log      zerolog.Logger

	validate *validator.Validate
}

func NewServer(p *pipeline.Pipeline, store *storage.SQLiteStore, log zerolog.Logger) *Server {
	return &Server{
		Pipeline: p,
		Store:    store,
		Log:      log,
		validate: validator.New(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/recommendations", s.handleRecommendations)
		r.Get("/retreats", s.handleRetreatsList)
		r.Get("/retreats/{id}", s.handleRetreatByID)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRecommendations is the single request/response boundary for all
// request types.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request: " + err.Error()})
		return
	}

	switch req.RequestType {
	case pipeline.RequestIntentDetection:
		writeJSON(w, http.StatusOK, s.Pipeline.DetectIntent(r.Context(), req))
	default:
		writeJSON(w, http.StatusOK, s.Pipeline.Recommend(r.Context(), req))
	}
}

type retreatsListResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
	Items  any `json:"items"`
}

// handleRetreatsList exposes the internal store read-only.
func (s *Server) handleRetreatsList(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20, 0)

	items, total, err := s.Store.ListRetreats(r.Context(), limit, offset)
	if err != nil {
		s.Log.Error().Err(err).Str("component", "http").Msg("list retreats failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, retreatsListResponse{
		Limit:  limit,
		Offset: offset,
		Total:  total,
		Items:  items,
	})
}

func (s *Server) handleRetreatByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_id"})
		return
	}
	retreat, found, err := s.Store.GetRetreat(r.Context(), id)
	if err != nil {
		s.Log.Error().Err(err).Str("component", "http").Msg("get retreat failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store_unavailable"})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, retreat)
}

func parseLimitOffset(r *http.Request, defLimit, defOffset int) (int, int) {
	q := r.URL.Query()

	limit := defLimit
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defLimit
	}
	// safety cap
	if limit > 200 {
		limit = 200
	}

	offset := defOffset
	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = defOffset
	}

	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
