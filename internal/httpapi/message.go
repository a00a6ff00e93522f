package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/ent0n29/botgate/internal/protocol"
	"github.com/ent0n29/botgate/internal/record"
)

func (s *Server) handleSendFriendMessage(r *http.Request, ac *authed, req protocol.SendMessageReq) (any, error) {
	id, err := ac.Bot.SendFriendMessage(r.Context(), req.Target, req.MessageChain)
	if err != nil {
		return nil, err
	}
	s.remember(r, record.MessageRecord{
		BotID:     ac.Bot.ID(),
		MessageID: id,
		Kind:      record.KindFriend,
		TargetID:  req.Target,
		Chain:     req.MessageChain,
		CreatedAt: time.Now().UTC(),
	})
	return protocol.NewMessageRet(id), nil
}

func (s *Server) handleSendGroupMessage(r *http.Request, ac *authed, req protocol.SendMessageReq) (any, error) {
	id, err := ac.Bot.SendGroupMessage(r.Context(), req.Target, req.MessageChain)
	if err != nil {
		return nil, err
	}
	s.remember(r, record.MessageRecord{
		BotID:     ac.Bot.ID(),
		MessageID: id,
		Kind:      record.KindGroup,
		TargetID:  req.Target,
		Chain:     req.MessageChain,
		CreatedAt: time.Now().UTC(),
	})
	return protocol.NewMessageRet(id), nil
}

// remember stores the sent message for later messageFromId lookup. The
// message already left, so a store failure is logged rather than surfaced.
func (s *Server) remember(r *http.Request, rec record.MessageRecord) {
	if err := s.records.Save(r.Context(), rec); err != nil {
		log.Printf("save message record bot=%d id=%d: %v", rec.BotID, rec.MessageID, err)
	}
}

func (s *Server) handleMessageFromID(r *http.Request, ac *authed) (any, error) {
	id, err := queryInt64(r, "id")
	if err != nil {
		return nil, err
	}
	rec, err := s.records.ByID(r.Context(), ac.Bot.ID(), id)
	if err != nil {
		return nil, err
	}
	frame := protocol.EventFrame{
		Type:         protocol.TypeFriendMessage,
		MessageChain: rec.Chain,
		MessageID:    rec.MessageID,
		Time:         rec.CreatedAt.Unix(),
	}
	if rec.Kind == record.KindGroup {
		frame.Type = protocol.TypeGroupMessage
		frame.Group = &protocol.GroupDTO{ID: rec.TargetID}
	} else {
		frame.Friend = &protocol.FriendDTO{ID: rec.TargetID}
	}
	return protocol.NewObjectRet(frame), nil
}
