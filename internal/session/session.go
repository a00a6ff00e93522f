package session

import "time"

// State is the lifecycle position of a session. A session is created
// Pending, becomes Bound when a client presents the token together with a
// valid bot identity and the authorization key, and ends Closed. Closed is
// terminal; the token is never reusable.
type State string

const (
	StatePending State = "pending"
	StateBound   State = "bound"
	StateClosed  State = "closed"
)

// Session is one authorization context. BotID is set only while the
// session is Bound.
type Session struct {
	Token     string    `json:"token"`
	State     State     `json:"state"`
	BotID     int64     `json:"botId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	BoundAt   time.Time `json:"boundAt,omitempty"`
}
