package protocol

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest marks malformed or incomplete request bodies. Decoding
// never fills in defaults for fields that gate authorization.
var ErrInvalidRequest = errors.New("invalid request")

// Request is a decoded request body for a session-bound endpoint. Every
// variant carries the session token and validates its own required fields.
type Request interface {
	SessionKey() string
	Validate() error
}

// VerifyBase supplies the shared sessionKey field. A missing key is always
// a hard validation failure.
type VerifyBase struct {
	Session string `json:"sessionKey"`
}

func (v VerifyBase) SessionKey() string { return v.Session }

func (v VerifyBase) Validate() error {
	if v.Session == "" {
		return fmt.Errorf("%w: sessionKey is required", ErrInvalidRequest)
	}
	return nil
}

// BindReq binds a pending session to a bot. This is the one request family
// that authenticates by key rather than by prior binding.
type BindReq struct {
	VerifyBase
	QQ      int64  `json:"qq"`
	AuthKey string `json:"authKey"`
}

func (r BindReq) Validate() error {
	if err := r.VerifyBase.Validate(); err != nil {
		return err
	}
	if r.QQ <= 0 {
		return fmt.Errorf("%w: qq is required", ErrInvalidRequest)
	}
	if r.AuthKey == "" {
		return fmt.Errorf("%w: authKey is required", ErrInvalidRequest)
	}
	return nil
}

// ReleaseReq closes a bound session. The stated qq must match the binding.
type ReleaseReq struct {
	VerifyBase
	QQ int64 `json:"qq"`
}

func (r ReleaseReq) Validate() error {
	if err := r.VerifyBase.Validate(); err != nil {
		return err
	}
	if r.QQ <= 0 {
		return fmt.Errorf("%w: qq is required", ErrInvalidRequest)
	}
	return nil
}

type SendMessageReq struct {
	VerifyBase
	Target       int64        `json:"target"`
	MessageChain MessageChain `json:"messageChain"`
}

func (r SendMessageReq) Validate() error {
	if err := r.VerifyBase.Validate(); err != nil {
		return err
	}
	if r.Target <= 0 {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	return r.MessageChain.Validate()
}

type MuteReq struct {
	VerifyBase
	Target   int64 `json:"target"`
	MemberID int64 `json:"memberId"`
	Time     int   `json:"time"`
}

func (r MuteReq) Validate() error {
	if err := r.VerifyBase.Validate(); err != nil {
		return err
	}
	if r.Target <= 0 {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	if r.Time < 0 {
		return fmt.Errorf("%w: time must not be negative", ErrInvalidRequest)
	}
	return nil
}

type GroupReq struct {
	VerifyBase
	Target int64 `json:"target"`
}

func (r GroupReq) Validate() error {
	if err := r.VerifyBase.Validate(); err != nil {
		return err
	}
	if r.Target <= 0 {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	return nil
}

type KickReq struct {
	VerifyBase
	Target   int64  `json:"target"`
	MemberID int64  `json:"memberId"`
	Msg      string `json:"msg"`
}

func (r KickReq) Validate() error {
	if err := r.VerifyBase.Validate(); err != nil {
		return err
	}
	if r.Target <= 0 {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	if r.MemberID <= 0 {
		return fmt.Errorf("%w: memberId is required", ErrInvalidRequest)
	}
	return nil
}

// GroupConfigPatch carries optional group settings; nil fields are left
// untouched by an update.
type GroupConfigPatch struct {
	Name              *string `json:"name,omitempty"`
	Announcement      *string `json:"announcement,omitempty"`
	AllowMemberInvite *bool   `json:"allowMemberInvite,omitempty"`
}

type GroupConfigReq struct {
	VerifyBase
	Target int64            `json:"target"`
	Config GroupConfigPatch `json:"config"`
}

func (r GroupConfigReq) Validate() error {
	if err := r.VerifyBase.Validate(); err != nil {
		return err
	}
	if r.Target <= 0 {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	return nil
}

type MemberDetailPatch struct {
	Name         *string `json:"name,omitempty"`
	SpecialTitle *string `json:"specialTitle,omitempty"`
}

type MemberInfoReq struct {
	VerifyBase
	Target   int64             `json:"target"`
	MemberID int64             `json:"memberId"`
	Info     MemberDetailPatch `json:"info"`
}

func (r MemberInfoReq) Validate() error {
	if err := r.VerifyBase.Validate(); err != nil {
		return err
	}
	if r.Target <= 0 {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	if r.MemberID <= 0 {
		return fmt.Errorf("%w: memberId is required", ErrInvalidRequest)
	}
	return nil
}

type FileRenameReq struct {
	VerifyBase
	ID     string `json:"id"`
	Target int64  `json:"target"`
	Rename string `json:"rename"`
}

func (r FileRenameReq) Validate() error {
	if err := r.VerifyBase.Validate(); err != nil {
		return err
	}
	if r.Target <= 0 {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	if r.Rename == "" {
		return fmt.Errorf("%w: rename is required", ErrInvalidRequest)
	}
	return nil
}

type FileMoveReq struct {
	VerifyBase
	ID       string `json:"id"`
	Target   int64  `json:"target"`
	MovePath string `json:"movePath"`
}

func (r FileMoveReq) Validate() error {
	if err := r.VerifyBase.Validate(); err != nil {
		return err
	}
	if r.Target <= 0 {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	if r.MovePath == "" {
		return fmt.Errorf("%w: movePath is required", ErrInvalidRequest)
	}
	return nil
}

type FileDeleteReq struct {
	VerifyBase
	ID     string `json:"id"`
	Target int64  `json:"target"`
}

func (r FileDeleteReq) Validate() error {
	if err := r.VerifyBase.Validate(); err != nil {
		return err
	}
	if r.Target <= 0 {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	return nil
}

// Response payloads. Success payloads always carry the envelope fields so
// every reply has the same outer shape.

type AuthRet struct {
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
	Session string `json:"session"`
}

func NewAuthRet(token string) AuthRet {
	return AuthRet{Code: int(CodeSuccess), Msg: CodeSuccess.Message(), Session: token}
}

type MessageRet struct {
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	MessageID int64  `json:"messageId"`
}

func NewMessageRet(id int64) MessageRet {
	return MessageRet{Code: int(CodeSuccess), Msg: CodeSuccess.Message(), MessageID: id}
}

type UploadFileRet struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	ID   string `json:"id"`
}

func NewUploadFileRet(id string) UploadFileRet {
	return UploadFileRet{Code: int(CodeSuccess), Msg: CodeSuccess.Message(), ID: id}
}

type ListRet[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

func NewListRet[T any](data []T) ListRet[T] {
	if data == nil {
		data = []T{}
	}
	return ListRet[T]{Code: int(CodeSuccess), Msg: CodeSuccess.Message(), Data: data}
}

type ObjectRet[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

func NewObjectRet[T any](data T) ObjectRet[T] {
	return ObjectRet[T]{Code: int(CodeSuccess), Msg: CodeSuccess.Message(), Data: data}
}
