package httpapi

import (
	"net/http"
	"sort"

	"github.com/ent0n29/botgate/internal/protocol"
)

func (s *Server) handleFriendList(r *http.Request, ac *authed) (any, error) {
	friends, err := ac.Bot.Friends(r.Context())
	if err != nil {
		return nil, err
	}
	out := make([]protocol.FriendDTO, 0, len(friends))
	for _, f := range friends {
		out = append(out, protocol.FriendDTO{ID: f.ID, Nickname: f.Nickname, Remark: f.Remark})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return protocol.NewListRet(out), nil
}

func (s *Server) handleGroupList(r *http.Request, ac *authed) (any, error) {
	groups, err := ac.Bot.Groups(r.Context())
	if err != nil {
		return nil, err
	}
	out := make([]protocol.GroupDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, protocol.GroupDTO{ID: g.ID, Name: g.Name, Permission: g.BotPermission})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return protocol.NewListRet(out), nil
}

func (s *Server) handleMemberList(r *http.Request, ac *authed) (any, error) {
	target, err := queryInt64(r, "target")
	if err != nil {
		return nil, err
	}
	group, err := ac.Bot.Group(r.Context(), target)
	if err != nil {
		return nil, err
	}
	members, err := group.Members(r.Context())
	if err != nil {
		return nil, err
	}
	sum := group.Summary()
	groupDTO := protocol.GroupDTO{ID: sum.ID, Name: sum.Name, Permission: sum.BotPermission}
	out := make([]protocol.MemberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, protocol.MemberDTO{
			ID:         m.ID,
			MemberName: m.Name,
			Permission: m.Permission,
			Group:      groupDTO,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return protocol.NewListRet(out), nil
}
