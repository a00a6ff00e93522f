package record

import (
	"context"
	"errors"
	"time"

	"github.com/ent0n29/botgate/internal/protocol"
)

var ErrNotFound = errors.New("message record not found")

// Message kinds stored with each record.
const (
	KindFriend = "friend"
	KindGroup  = "group"
)

// MessageRecord remembers one message the gateway sent, so clients can
// replay it later by id.
type MessageRecord struct {
	BotID     int64                 `json:"botId"`
	MessageID int64                 `json:"messageId"`
	Kind      string                `json:"kind"`
	TargetID  int64                 `json:"targetId"`
	Chain     protocol.MessageChain `json:"messageChain"`
	CreatedAt time.Time             `json:"createdAt"`
}

// Store persists and retrieves sent-message records.
type Store interface {
	Save(ctx context.Context, rec MessageRecord) error
	ByID(ctx context.Context, botID, messageID int64) (MessageRecord, error)
	Close() error
}
