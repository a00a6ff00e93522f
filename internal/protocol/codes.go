package protocol

// StateCode is the closed set of wire status codes. Zero means success;
// every failure a handler can produce maps to exactly one nonzero value.
type StateCode int

const (
	CodeSuccess          StateCode = 0
	CodeWrongAuthKey     StateCode = 1
	CodeNoSuchBot        StateCode = 2
	CodeIllegalSession   StateCode = 3
	CodeNotVerified      StateCode = 4
	CodeNoSuchTarget     StateCode = 5
	CodeNoSuchFile       StateCode = 6
	CodePermissionDenied StateCode = 10
	CodeBotMuted         StateCode = 20
	CodeMessageTooLong   StateCode = 30
	CodeInvalidParameter StateCode = 400
	CodeInternalError    StateCode = 500
)

var codeMessages = map[StateCode]string{
	CodeSuccess:          "success",
	CodeWrongAuthKey:     "wrong auth key",
	CodeNoSuchBot:        "no such bot",
	CodeIllegalSession:   "illegal session",
	CodeNotVerified:      "session not verified",
	CodeNoSuchTarget:     "no such target",
	CodeNoSuchFile:       "no such file",
	CodePermissionDenied: "permission denied",
	CodeBotMuted:         "bot is muted",
	CodeMessageTooLong:   "message too long",
	CodeInvalidParameter: "invalid parameter",
	CodeInternalError:    "internal error",
}

func (c StateCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return codeMessages[CodeInternalError]
}

// State is the uniform response envelope for operations that carry no
// payload beyond the outcome itself.
type State struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func NewState(c StateCode) State {
	return State{Code: int(c), Msg: c.Message()}
}

func NewStateMsg(c StateCode, msg string) State {
	if msg == "" {
		msg = c.Message()
	}
	return State{Code: int(c), Msg: msg}
}
