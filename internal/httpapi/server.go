package httpapi

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/botgate/internal/bot"
	"github.com/ent0n29/botgate/internal/config"
	"github.com/ent0n29/botgate/internal/media"
	"github.com/ent0n29/botgate/internal/observability"
	"github.com/ent0n29/botgate/internal/record"
	"github.com/ent0n29/botgate/internal/session"
)

type Server struct {
	cfg      config.Config
	sessions *session.Store
	bots     bot.Registry
	records  record.Store
	spool    *media.Spooler
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Store, bots bot.Registry, records record.Store, spool *media.Spooler, metrics *observability.Metrics) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		bots:     bots,
		records:  records,
		spool:    spool,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections by default; a foreign
				// page must not be able to attach to a bound session.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
	sessions.SetReleaseHook(func(sess *session.Session) {
		s.metrics.SessionEvents.WithLabelValues("closed").Inc()
		s.syncSessionGauges()
	})
	return s
}

// Router is the dispatch table. It is the single place that declares which
// verification level a path requires; handlers trust the level they were
// registered with.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/about", s.route("about", s.handleAbout))

	// Session lifecycle. These are the only routes that drive store
	// transitions; everything below only resolves.
	r.Post("/auth", s.route("auth", s.handleAuth))
	r.Post("/verify", s.route("verify", s.handleVerify))
	r.Post("/release", s.route("release", s.handleRelease))
	r.Get("/sessionInfo", s.sessionQuery("sessionInfo", s.handleSessionInfo))

	r.Post("/sendFriendMessage", verified(s, "sendFriendMessage", s.handleSendFriendMessage))
	r.Post("/sendGroupMessage", verified(s, "sendGroupMessage", s.handleSendGroupMessage))
	r.Get("/messageFromId", s.sessionQuery("messageFromId", s.handleMessageFromID))

	r.Get("/friendList", s.sessionQuery("friendList", s.handleFriendList))
	r.Get("/groupList", s.sessionQuery("groupList", s.handleGroupList))
	r.Get("/memberList", s.sessionQuery("memberList", s.handleMemberList))

	r.Post("/mute", verified(s, "mute", s.handleMute))
	r.Post("/unmute", verified(s, "unmute", s.handleUnmute))
	r.Post("/muteAll", verified(s, "muteAll", s.handleMuteAll))
	r.Post("/unmuteAll", verified(s, "unmuteAll", s.handleUnmuteAll))
	r.Post("/kick", verified(s, "kick", s.handleKick))
	r.Post("/quit", verified(s, "quit", s.handleQuit))

	// Read and write forms of the same logical path are independent
	// dispatch entries.
	r.Get("/groupConfig", s.sessionQuery("groupConfig", s.handleGroupConfigGet))
	r.Post("/groupConfig", verified(s, "groupConfig", s.handleGroupConfigPost))
	r.Get("/memberInfo", s.sessionQuery("memberInfo", s.handleMemberInfoGet))
	r.Post("/memberInfo", verified(s, "memberInfo", s.handleMemberInfoPost))

	r.Get("/groupFileList", s.sessionQuery("groupFileList", s.handleGroupFileList))
	r.Post("/groupFileRename", verified(s, "groupFileRename", s.handleGroupFileRename))
	r.Post("/groupFileMove", verified(s, "groupFileMove", s.handleGroupFileMove))
	r.Post("/groupFileDelete", verified(s, "groupFileDelete", s.handleGroupFileDelete))
	r.Post("/uploadFileAndSend", s.route("uploadFileAndSend", s.handleUploadFileAndSend))

	r.Get("/all", s.handleStream(streamAll))
	r.Get("/message", s.handleStream(streamMessage))
	r.Get("/event", s.handleStream(streamEvent))

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	pending, bound := s.sessions.Counts()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"pending_sessions": pending,
		"bound_sessions":   bound,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) syncSessionGauges() {
	pending, bound := s.sessions.Counts()
	s.metrics.PendingSessions.Set(float64(pending))
	s.metrics.BoundSessions.Set(float64(bound))
}

// recoverer converts a handler panic into a generic failure envelope so no
// fault reaches the transport as a raw stack trace or connection reset.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s: %v", r.URL.Path, rec)
				respondInternal(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
