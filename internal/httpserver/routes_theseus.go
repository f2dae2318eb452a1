// internal/httpserver/routes_theseus.go
//
// GET /theseus: translate a position into an engine token, run the engine,
// and relay its move and log.
//
// Query parameters: id, players (ignored), pawn1, pawn2, wallcount1,
// wallcount2, wallcenters, turn.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/quoridor/theseus-api/internal/engine"
	"github.com/quoridor/theseus-api/internal/journal"
	"github.com/quoridor/theseus-api/internal/position"
)

// thinkRes is the success payload.
type thinkRes struct {
	Move string `json:"move"`
	Log  string `json:"log"`
}

// errorRes is the payload for every failed request.
type errorRes struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Log    string `json:"log,omitempty"`
}

// handleThink parses the position, runs the engine once, and records the run.
func (s *Server) handleThink(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	pos, err := position.FromQuery(r.URL.Query())
	if err == nil && s.opts.StrictToken {
		err = pos.ValidateStrict()
	}
	if err != nil {
		logger.Debug().Err(err).Msg("rejected position")
		writeJSON(w, http.StatusBadRequest, errorRes{Error: "bad_request", Detail: err.Error()})
		return
	}

	token := pos.Token()
	logger.Debug().
		Str("gameId", pos.GameID).
		Str("players", pos.Players).
		Str("pawn1", position.SquareName(pos.Pawn1)).
		Str("pawn2", position.SquareName(pos.Pawn2)).
		Str("token", token).
		Msg("think")

	start := time.Now()
	res, err := s.engine.Run(r.Context(), token)
	entry := journal.Entry{
		RequestID:  chimw.GetReqID(r.Context()),
		Token:      token,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		status, code := engineStatus(err)
		entry.Status, entry.Detail = code, err.Error()
		s.record(r.Context(), entry)

		var ee *engine.Error
		logText := ""
		if errors.As(err, &ee) {
			logText = ee.Log
		}
		if engine.KindOf(err) == engine.KindCanceled {
			logger.Debug().Err(err).Str("token", token).Msg("client went away")
		} else {
			logger.Warn().Err(err).Str("token", token).Int("status", status).Msg("engine failed")
		}
		writeJSON(w, status, errorRes{Error: code, Detail: err.Error(), Log: logText})
		return
	}

	entry.Status, entry.Move = journal.StatusOK, res.Move
	s.record(r.Context(), entry)
	writeJSON(w, http.StatusOK, thinkRes{Move: res.Move, Log: res.Log})
}

// statusClientClosedRequest is nginx's non-standard code for a client that
// disconnected before the response was ready. Nobody reads the body.
const statusClientClosedRequest = 499

// engineStatus maps an engine failure to an HTTP status and error code.
func engineStatus(err error) (int, string) {
	kind := engine.KindOf(err)
	switch kind {
	case engine.KindLaunch:
		return http.StatusInternalServerError, kind.String()
	case engine.KindOutput:
		return http.StatusBadGateway, kind.String()
	case engine.KindTimeout:
		return http.StatusGatewayTimeout, kind.String()
	case engine.KindBusy:
		return http.StatusServiceUnavailable, kind.String()
	case engine.KindCanceled:
		return statusClientClosedRequest, kind.String()
	}
	return http.StatusInternalServerError, "internal_error"
}

// record stores a journal entry (best effort, non-fatal if it fails).
func (s *Server) record(ctx context.Context, e journal.Entry) {
	if s.journal == nil {
		return
	}
	// The request context may already be cancelled when the engine timed out.
	if err := s.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("token", e.Token).Msg("journal record")
	}
}
