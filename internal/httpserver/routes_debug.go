package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quoridor/theseus-api/internal/journal"
)

const (
	defaultRecent = 20
	maxRecent     = 200
)

// mountDebug registers /debug routes.
func (s *Server) mountDebug(r chi.Router) {
	r.Route("/debug", func(r chi.Router) {
		r.Get("/invocations", s.handleInvocations)
	})
}

// invocationsRes is returned by /debug/invocations.
type invocationsRes struct {
	Invocations []journal.Entry `json:"invocations"`
}

// handleInvocations lists recent engine runs, newest first.
func (s *Server) handleInvocations(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecent
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorRes{Error: "bad_request", Detail: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRecent)
	}
	if s.journal == nil {
		writeJSON(w, http.StatusOK, invocationsRes{Invocations: []journal.Entry{}})
		return
	}
	rows, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("journal recent")
		writeJSON(w, http.StatusInternalServerError, errorRes{Error: "journal_error"})
		return
	}
	if rows == nil {
		rows = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, invocationsRes{Invocations: rows})
}
