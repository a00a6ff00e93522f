package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/botgate/internal/bot"
	"github.com/ent0n29/botgate/internal/protocol"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

type streamKind int

const (
	streamAll streamKind = iota
	streamMessage
	streamEvent
)

func (k streamKind) String() string {
	switch k {
	case streamMessage:
		return "message"
	case streamEvent:
		return "event"
	default:
		return "all"
	}
}

func (k streamKind) wants(frame protocol.EventFrame) bool {
	switch k {
	case streamMessage:
		return frame.IsMessage()
	case streamEvent:
		return !frame.IsMessage()
	default:
		return true
	}
}

// handleStream attaches a websocket to a bound session's event feed. The
// session resolves before the upgrade so an unauthorized caller gets a plain
// envelope, not a half-open socket. When the socket goes away for any
// reason the session closes with it.
func (s *Server) handleStream(kind streamKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("sessionKey")
		if token == "" {
			respondJSON(w, http.StatusOK, stateOf(invalidf("sessionKey is required")))
			return
		}
		ac, err := s.resolveBound(token)
		if err != nil {
			respondJSON(w, http.StatusOK, stateOf(err))
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the handshake failure.
			log.Printf("ws upgrade %s: %v", r.URL.Path, err)
			return
		}
		s.metrics.WSMessages.WithLabelValues("open", kind.String()).Inc()

		events, cancel := ac.Bot.Subscribe(256)
		defer cancel()
		defer conn.Close()
		defer func() {
			// The stream carries the session; losing it ends the binding.
			if _, err := s.sessions.Close(token); err == nil {
				s.metrics.WSMessages.WithLabelValues("close", kind.String()).Inc()
			}
		}()

		done := make(chan struct{})
		go func() {
			defer close(done)
			conn.SetReadLimit(1 << 20)
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(wsPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case ev, ok := <-events:
				if !ok {
					return
				}
				frame := frameFromEvent(ev)
				if !kind.wants(frame) {
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
				s.metrics.WSMessages.WithLabelValues("out", frame.Type).Inc()
			}
		}
	}
}

func frameFromEvent(ev bot.Event) protocol.EventFrame {
	frame := protocol.EventFrame{
		Type:         ev.Type,
		MessageChain: ev.Chain,
		MessageID:    ev.MessageID,
		Time:         ev.Time.Unix(),
	}
	switch ev.Type {
	case protocol.TypeFriendMessage:
		frame.Friend = &protocol.FriendDTO{ID: ev.FriendID}
	case protocol.TypeGroupMessage:
		frame.Sender = &protocol.MemberDTO{
			ID:    ev.MemberID,
			Group: protocol.GroupDTO{ID: ev.GroupID},
		}
	default:
		if ev.GroupID != 0 {
			frame.Group = &protocol.GroupDTO{ID: ev.GroupID}
		}
		if ev.MemberID != 0 {
			frame.Member = &protocol.MemberDTO{
				ID:    ev.MemberID,
				Group: protocol.GroupDTO{ID: ev.GroupID},
			}
		}
	}
	return frame
}
