package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ent0n29/botgate/internal/bot"
	"github.com/ent0n29/botgate/internal/protocol"
	"github.com/ent0n29/botgate/internal/record"
	"github.com/ent0n29/botgate/internal/session"
)

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondInternal(w http.ResponseWriter) {
	respondJSON(w, http.StatusOK, protocol.NewState(protocol.CodeInternalError))
}

// stateOf is the single point that classifies failures into the closed
// state-code set. No handler writes a backend error to the wire directly.
func stateOf(err error) protocol.State {
	switch {
	case errors.Is(err, session.ErrWrongAuthKey):
		return protocol.NewState(protocol.CodeWrongAuthKey)
	case errors.Is(err, bot.ErrNoSuchBot), errors.Is(err, session.ErrBotMismatch):
		return protocol.NewState(protocol.CodeNoSuchBot)
	case errors.Is(err, session.ErrNoSuchSession):
		return protocol.NewState(protocol.CodeIllegalSession)
	case errors.Is(err, session.ErrNotBound):
		return protocol.NewState(protocol.CodeNotVerified)
	case errors.Is(err, bot.ErrNoSuchTarget), errors.Is(err, record.ErrNotFound):
		return protocol.NewState(protocol.CodeNoSuchTarget)
	case errors.Is(err, bot.ErrNoSuchFile):
		return protocol.NewState(protocol.CodeNoSuchFile)
	case errors.Is(err, bot.ErrPermissionDenied):
		return protocol.NewState(protocol.CodePermissionDenied)
	case errors.Is(err, bot.ErrBotMuted):
		return protocol.NewState(protocol.CodeBotMuted)
	case errors.Is(err, protocol.ErrMessageTooLong):
		return protocol.NewState(protocol.CodeMessageTooLong)
	case errors.Is(err, protocol.ErrInvalidRequest):
		return protocol.NewStateMsg(protocol.CodeInvalidParameter, err.Error())
	default:
		return protocol.NewState(protocol.CodeInternalError)
	}
}

// route wraps a handler into the uniform envelope contract: a nil payload
// becomes the success state, an error becomes its mapped state, and every
// outcome is counted.
func (s *Server) route(route string, fn func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		payload, err := fn(r)
		code := 0
		switch {
		case err != nil:
			state := stateOf(err)
			code = state.Code
			respondJSON(w, http.StatusOK, state)
		case payload == nil:
			respondJSON(w, http.StatusOK, protocol.NewState(protocol.CodeSuccess))
		default:
			respondJSON(w, http.StatusOK, payload)
		}
		s.metrics.ObserveRequest(route, code, time.Since(start))
	}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", protocol.ErrInvalidRequest, fmt.Sprintf(format, args...))
}
