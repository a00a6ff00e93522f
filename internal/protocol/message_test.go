package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestMessageChainValidate(t *testing.T) {
	valid := MessageChain{
		{Type: SegmentPlain, Text: "hi"},
		{Type: SegmentAt, Target: 42},
		{Type: SegmentImage, URL: "https://example.com/a.png"},
		{Type: SegmentFile, ID: "f-1"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}

	cases := []struct {
		name  string
		chain MessageChain
	}{
		{"empty chain", MessageChain{}},
		{"plain without text", MessageChain{{Type: SegmentPlain}}},
		{"at without target", MessageChain{{Type: SegmentAt}}},
		{"image without source", MessageChain{{Type: SegmentImage}}},
		{"file without id", MessageChain{{Type: SegmentFile}}},
		{"unknown segment type", MessageChain{{Type: "Voice"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.chain.Validate()
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("Validate() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestMessageChainLengthLimit(t *testing.T) {
	under := MessageChain{{Type: SegmentPlain, Text: strings.Repeat("a", MaxPlainRunes)}}
	if err := under.Validate(); err != nil {
		t.Fatalf("Validate() at limit error = %v, want nil", err)
	}

	over := MessageChain{
		{Type: SegmentPlain, Text: strings.Repeat("a", MaxPlainRunes)},
		{Type: SegmentPlain, Text: "b"},
	}
	if err := over.Validate(); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("Validate() over limit error = %v, want ErrMessageTooLong", err)
	}
}

func TestMessageChainCountsRunesNotBytes(t *testing.T) {
	// Multibyte text stays within the limit as long as the rune count does.
	chain := MessageChain{{Type: SegmentPlain, Text: strings.Repeat("世", MaxPlainRunes)}}
	if err := chain.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestRequestValidation(t *testing.T) {
	base := VerifyBase{Session: "tok"}

	cases := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"bind ok", BindReq{VerifyBase: base, QQ: 1, AuthKey: "k"}, false},
		{"bind without session", BindReq{QQ: 1, AuthKey: "k"}, true},
		{"bind without qq", BindReq{VerifyBase: base, AuthKey: "k"}, true},
		{"bind without key", BindReq{VerifyBase: base, QQ: 1}, true},
		{"release ok", ReleaseReq{VerifyBase: base, QQ: 1}, false},
		{"release without qq", ReleaseReq{VerifyBase: base}, true},
		{"send without target", SendMessageReq{VerifyBase: base, MessageChain: MessageChain{{Type: SegmentPlain, Text: "x"}}}, true},
		{"mute negative time", MuteReq{VerifyBase: base, Target: 1, MemberID: 2, Time: -1}, true},
		{"kick without member", KickReq{VerifyBase: base, Target: 1}, true},
		{"rename without name", FileRenameReq{VerifyBase: base, Target: 1, ID: "f"}, true},
		{"move without path", FileMoveReq{VerifyBase: base, Target: 1, ID: "f"}, true},
		{"delete ok", FileDeleteReq{VerifyBase: base, Target: 1, ID: "f"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("Validate() error = %v, want ErrInvalidRequest", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestStateCodeMessages(t *testing.T) {
	if got := CodeSuccess.Message(); got != "success" {
		t.Fatalf("success message = %q", got)
	}
	if got := StateCode(9999).Message(); got != CodeInternalError.Message() {
		t.Fatalf("unknown code message = %q, want internal error text", got)
	}
	st := NewStateMsg(CodeInvalidParameter, "")
	if st.Msg != CodeInvalidParameter.Message() {
		t.Fatalf("NewStateMsg empty msg = %q", st.Msg)
	}
}

func TestEventFrameIsMessage(t *testing.T) {
	if !(EventFrame{Type: TypeFriendMessage}).IsMessage() {
		t.Fatalf("FriendMessage should be a message frame")
	}
	if !(EventFrame{Type: TypeGroupMessage}).IsMessage() {
		t.Fatalf("GroupMessage should be a message frame")
	}
	if (EventFrame{Type: TypeMemberJoin}).IsMessage() {
		t.Fatalf("MemberJoinEvent should not be a message frame")
	}
}
