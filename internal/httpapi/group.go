package httpapi

import (
	"net/http"

	"github.com/ent0n29/botgate/internal/bot"
	"github.com/ent0n29/botgate/internal/protocol"
)

func (s *Server) handleMute(r *http.Request, ac *authed, req protocol.MuteReq) (any, error) {
	if req.MemberID <= 0 {
		return nil, invalidf("memberId is required")
	}
	group, err := ac.Bot.Group(r.Context(), req.Target)
	if err != nil {
		return nil, err
	}
	return nil, group.MuteMember(r.Context(), req.MemberID, req.Time)
}

func (s *Server) handleUnmute(r *http.Request, ac *authed, req protocol.MuteReq) (any, error) {
	if req.MemberID <= 0 {
		return nil, invalidf("memberId is required")
	}
	group, err := ac.Bot.Group(r.Context(), req.Target)
	if err != nil {
		return nil, err
	}
	return nil, group.UnmuteMember(r.Context(), req.MemberID)
}

func (s *Server) handleMuteAll(r *http.Request, ac *authed, req protocol.GroupReq) (any, error) {
	group, err := ac.Bot.Group(r.Context(), req.Target)
	if err != nil {
		return nil, err
	}
	return nil, group.SetMuteAll(r.Context(), true)
}

func (s *Server) handleUnmuteAll(r *http.Request, ac *authed, req protocol.GroupReq) (any, error) {
	group, err := ac.Bot.Group(r.Context(), req.Target)
	if err != nil {
		return nil, err
	}
	return nil, group.SetMuteAll(r.Context(), false)
}

func (s *Server) handleKick(r *http.Request, ac *authed, req protocol.KickReq) (any, error) {
	group, err := ac.Bot.Group(r.Context(), req.Target)
	if err != nil {
		return nil, err
	}
	return nil, group.Kick(r.Context(), req.MemberID, req.Msg)
}

func (s *Server) handleQuit(r *http.Request, ac *authed, req protocol.GroupReq) (any, error) {
	group, err := ac.Bot.Group(r.Context(), req.Target)
	if err != nil {
		return nil, err
	}
	ok, err := group.Quit(r.Context())
	if err != nil {
		return nil, err
	}
	if !ok {
		// The backend refused; the bot owns this group and cannot leave it.
		return nil, bot.ErrPermissionDenied
	}
	return nil, nil
}

func (s *Server) handleGroupConfigGet(r *http.Request, ac *authed) (any, error) {
	target, err := queryInt64(r, "target")
	if err != nil {
		return nil, err
	}
	group, err := ac.Bot.Group(r.Context(), target)
	if err != nil {
		return nil, err
	}
	cfg, err := group.Config(r.Context())
	if err != nil {
		return nil, err
	}
	return protocol.NewObjectRet(protocol.GroupConfigDTO{
		Name:              cfg.Name,
		Announcement:      cfg.Announcement,
		AllowMemberInvite: cfg.AllowMemberInvite,
	}), nil
}

func (s *Server) handleGroupConfigPost(r *http.Request, ac *authed, req protocol.GroupConfigReq) (any, error) {
	group, err := ac.Bot.Group(r.Context(), req.Target)
	if err != nil {
		return nil, err
	}
	return nil, group.UpdateConfig(r.Context(), req.Config)
}

func (s *Server) handleMemberInfoGet(r *http.Request, ac *authed) (any, error) {
	target, err := queryInt64(r, "target")
	if err != nil {
		return nil, err
	}
	memberID, err := queryInt64(r, "memberId")
	if err != nil {
		return nil, err
	}
	group, err := ac.Bot.Group(r.Context(), target)
	if err != nil {
		return nil, err
	}
	detail, err := group.MemberDetail(r.Context(), memberID)
	if err != nil {
		return nil, err
	}
	return protocol.NewObjectRet(protocol.MemberDetailDTO{
		Name:         detail.Name,
		Nick:         detail.Nick,
		SpecialTitle: detail.SpecialTitle,
	}), nil
}

func (s *Server) handleMemberInfoPost(r *http.Request, ac *authed, req protocol.MemberInfoReq) (any, error) {
	group, err := ac.Bot.Group(r.Context(), req.Target)
	if err != nil {
		return nil, err
	}
	return nil, group.UpdateMember(r.Context(), req.MemberID, req.Info)
}
