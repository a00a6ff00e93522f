package httpapi

import (
	"net/http"
	"strconv"

	"github.com/ent0n29/botgate/internal/bot"
	"github.com/ent0n29/botgate/internal/protocol"
	"github.com/ent0n29/botgate/internal/session"
)

// authed is the execution context a session-bound handler receives: the
// resolved session and the bot handle it is authorized to act on.
type authed struct {
	Session *session.Session
	Bot     bot.Bot
}

func (s *Server) resolveBound(token string) (*authed, error) {
	sess, err := s.sessions.Bound(token)
	if err != nil {
		return nil, err
	}
	b, err := s.bots.Bot(sess.BotID)
	if err != nil {
		return nil, err
	}
	return &authed{Session: sess, Bot: b}, nil
}

// verified decodes and validates the request body, resolves the session
// binding, and only then runs the handler. Resolution failure
// short-circuits before any backend collaborator is touched.
func verified[T protocol.Request](s *Server, route string, fn func(r *http.Request, ac *authed, dto T) (any, error)) http.HandlerFunc {
	return s.route(route, func(r *http.Request) (any, error) {
		var dto T
		if err := decodeJSON(r, &dto); err != nil {
			return nil, invalidf("body: %v", err)
		}
		if err := dto.Validate(); err != nil {
			return nil, err
		}
		ac, err := s.resolveBound(dto.SessionKey())
		if err != nil {
			return nil, err
		}
		return fn(r, ac, dto)
	})
}

// sessionQuery is the read-form variant: the token arrives as a query
// parameter instead of a body field.
func (s *Server) sessionQuery(route string, fn func(r *http.Request, ac *authed) (any, error)) http.HandlerFunc {
	return s.route(route, func(r *http.Request) (any, error) {
		token := r.URL.Query().Get("sessionKey")
		if token == "" {
			return nil, invalidf("sessionKey is required")
		}
		ac, err := s.resolveBound(token)
		if err != nil {
			return nil, err
		}
		return fn(r, ac)
	})
}

func queryInt64(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, invalidf("%s is required", key)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, invalidf("%s must be a positive integer", key)
	}
	return n, nil
}
