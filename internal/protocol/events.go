package protocol

// Event frame types pushed over the websocket stream.
const (
	TypeFriendMessage   = "FriendMessage"
	TypeGroupMessage    = "GroupMessage"
	TypeMemberJoin      = "MemberJoinEvent"
	TypeMemberLeave     = "MemberLeaveEvent"
	TypeGroupMuteAll    = "GroupMuteAllEvent"
	TypeBotOnlineEvent  = "BotOnlineEvent"
	TypeBotOfflineEvent = "BotOfflineEvent"
)

// EventFrame is one line-delimited JSON frame on the streaming transport.
// Message frames carry a chain and sender; plain events carry only the
// type-specific fields that are set.
type EventFrame struct {
	Type         string       `json:"type"`
	MessageChain MessageChain `json:"messageChain,omitempty"`
	Sender       *MemberDTO   `json:"sender,omitempty"`
	Friend       *FriendDTO   `json:"friend,omitempty"`
	Group        *GroupDTO    `json:"group,omitempty"`
	Member       *MemberDTO   `json:"member,omitempty"`
	MessageID    int64        `json:"messageId,omitempty"`
	Time         int64        `json:"time"`
}

// IsMessage reports whether the frame belongs to the message stream as
// opposed to the event stream.
func (f EventFrame) IsMessage() bool {
	return f.Type == TypeFriendMessage || f.Type == TypeGroupMessage
}
