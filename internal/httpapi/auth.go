package httpapi

import (
	"net/http"

	"github.com/ent0n29/botgate/internal/protocol"
)

const apiVersion = "1.12.0"

func (s *Server) handleAbout(_ *http.Request) (any, error) {
	return protocol.NewObjectRet(map[string]string{"version": apiVersion}), nil
}

// handleAuth issues a fresh pending token. The endpoint is open; the token
// grants nothing until the auth key is presented at bind time.
func (s *Server) handleAuth(_ *http.Request) (any, error) {
	sess := s.sessions.Create()
	s.metrics.SessionEvents.WithLabelValues("created").Inc()
	s.syncSessionGauges()
	return protocol.NewAuthRet(sess.Token), nil
}

// handleVerify binds a pending session to a bot. The key is checked before
// the bot is resolved, so a caller with a wrong key cannot probe which bot
// ids exist.
func (s *Server) handleVerify(r *http.Request) (any, error) {
	var req protocol.BindReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, invalidf("body: %v", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.sessions.CheckAuthKey(req.AuthKey); err != nil {
		return nil, err
	}
	if _, err := s.bots.Bot(req.QQ); err != nil {
		return nil, err
	}
	if _, err := s.sessions.Bind(req.SessionKey(), req.QQ, req.AuthKey); err != nil {
		return nil, err
	}
	s.metrics.SessionEvents.WithLabelValues("bound").Inc()
	s.syncSessionGauges()
	return nil, nil
}

func (s *Server) handleRelease(r *http.Request) (any, error) {
	var req protocol.ReleaseReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, invalidf("body: %v", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.sessions.Release(req.SessionKey(), req.QQ); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleSessionInfo(_ *http.Request, ac *authed) (any, error) {
	return protocol.NewObjectRet(protocol.SessionInfoDTO{
		SessionKey: ac.Session.Token,
		State:      string(ac.Session.State),
		QQ:         ac.Bot.ID(),
		Nickname:   ac.Bot.Profile().Nickname,
		CreatedAt:  ac.Session.CreatedAt.Unix(),
	}), nil
}
