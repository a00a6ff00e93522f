package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/ent0n29/botgate/internal/protocol"
)

func chainOf(text string) protocol.MessageChain {
	return protocol.MessageChain{{Type: protocol.SegmentPlain, Text: text}}
}

func TestSimRegistryResolve(t *testing.T) {
	r := NewSimRegistry(100)
	b, err := r.Bot(100)
	if err != nil {
		t.Fatalf("Bot() error = %v", err)
	}
	if b.ID() != 100 {
		t.Fatalf("ID() = %d, want 100", b.ID())
	}

	if _, err := r.Bot(999); !errors.Is(err, ErrNoSuchBot) {
		t.Fatalf("Bot(999) error = %v, want ErrNoSuchBot", err)
	}
}

func TestSimBotSendMessages(t *testing.T) {
	ctx := context.Background()
	r := NewSimRegistry(100)
	b, _ := r.Bot(100)

	id1, err := b.SendFriendMessage(ctx, 101, chainOf("hi"))
	if err != nil {
		t.Fatalf("SendFriendMessage() error = %v", err)
	}
	id2, err := b.SendGroupMessage(ctx, 1001, chainOf("hello group"))
	if err != nil {
		t.Fatalf("SendGroupMessage() error = %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("message ids not increasing: %d then %d", id1, id2)
	}

	if _, err := b.SendFriendMessage(ctx, 55555, chainOf("x")); !errors.Is(err, ErrNoSuchTarget) {
		t.Fatalf("unknown friend error = %v, want ErrNoSuchTarget", err)
	}
}

func TestSimGroupPermissions(t *testing.T) {
	ctx := context.Background()
	r := NewSimRegistry(100)
	b, _ := r.Bot(100)

	// gamma: bot is plain MEMBER, admin operations must be refused.
	gamma, err := b.Group(ctx, 1003)
	if err != nil {
		t.Fatalf("Group(gamma) error = %v", err)
	}
	if err := gamma.MuteMember(ctx, 101, 60); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("MuteMember error = %v, want ErrPermissionDenied", err)
	}
	if err := gamma.SetMuteAll(ctx, true); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("SetMuteAll error = %v, want ErrPermissionDenied", err)
	}

	// alpha: bot is administrator.
	alpha, err := b.Group(ctx, 1001)
	if err != nil {
		t.Fatalf("Group(alpha) error = %v", err)
	}
	if err := alpha.MuteMember(ctx, 101, 60); err != nil {
		t.Fatalf("MuteMember error = %v", err)
	}
	if err := alpha.UnmuteMember(ctx, 101); err != nil {
		t.Fatalf("UnmuteMember error = %v", err)
	}
	if err := alpha.Kick(ctx, 101, "bye"); err != nil {
		t.Fatalf("Kick error = %v", err)
	}
	if err := alpha.Kick(ctx, 101, "again"); !errors.Is(err, ErrNoSuchTarget) {
		t.Fatalf("second Kick error = %v, want ErrNoSuchTarget", err)
	}
}

func TestSimGroupQuit(t *testing.T) {
	ctx := context.Background()
	r := NewSimRegistry(100)
	b, _ := r.Bot(100)

	// beta: bot owns the group, quitting is refused.
	beta, _ := b.Group(ctx, 1002)
	ok, err := beta.Quit(ctx)
	if err != nil {
		t.Fatalf("Quit(beta) error = %v", err)
	}
	if ok {
		t.Fatalf("owner should not be able to quit its own group")
	}

	alpha, _ := b.Group(ctx, 1001)
	ok, err = alpha.Quit(ctx)
	if err != nil {
		t.Fatalf("Quit(alpha) error = %v", err)
	}
	if !ok {
		t.Fatalf("administrator quit should succeed")
	}
	if _, err := b.Group(ctx, 1001); !errors.Is(err, ErrNoSuchTarget) {
		t.Fatalf("Group(alpha) after quit error = %v, want ErrNoSuchTarget", err)
	}
}

func TestSimGroupConfigUpdate(t *testing.T) {
	ctx := context.Background()
	r := NewSimRegistry(100)
	b, _ := r.Bot(100)
	alpha, _ := b.Group(ctx, 1001)

	name := "renamed"
	invite := true
	if err := alpha.UpdateConfig(ctx, protocol.GroupConfigPatch{Name: &name, AllowMemberInvite: &invite}); err != nil {
		t.Fatalf("UpdateConfig error = %v", err)
	}
	cfg, err := alpha.Config(ctx)
	if err != nil {
		t.Fatalf("Config error = %v", err)
	}
	if cfg.Name != "renamed" || !cfg.AllowMemberInvite {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Announcement != "welcome" {
		t.Fatalf("announcement changed unexpectedly: %q", cfg.Announcement)
	}
}

func TestSimFileTreeMovePolicy(t *testing.T) {
	ctx := context.Background()
	r := NewSimRegistry(100)
	b, _ := r.Bot(100)
	alpha, _ := b.Group(ctx, 1001)
	tree := alpha.Files()

	root, err := tree.List(ctx, "/")
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	var readme, docs RemoteFile
	for _, f := range root {
		switch f.Name {
		case "readme.txt":
			readme = f
		case "docs":
			docs = f
		}
	}
	if readme.ID == "" || docs.ID == "" {
		t.Fatalf("seed files missing: %+v", root)
	}

	// Moving into a missing directory creates it.
	if err := tree.Move(ctx, readme.ID, "/archive"); err != nil {
		t.Fatalf("Move error = %v", err)
	}
	moved, err := tree.Stat(ctx, readme.ID)
	if err != nil {
		t.Fatalf("Stat error = %v", err)
	}
	if moved.Path != "/archive/readme.txt" {
		t.Fatalf("path = %q, want /archive/readme.txt", moved.Path)
	}

	// Moving into a path occupied by a plain file is rejected.
	other, err := tree.Upload(ctx, "/", "blocker", []byte("x"))
	if err != nil {
		t.Fatalf("Upload error = %v", err)
	}
	if err := tree.Move(ctx, readme.ID, other.Path); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Move onto file error = %v, want ErrPermissionDenied", err)
	}
}

func TestSimFileTreeRenameDelete(t *testing.T) {
	ctx := context.Background()
	r := NewSimRegistry(100)
	b, _ := r.Bot(100)
	alpha, _ := b.Group(ctx, 1001)
	tree := alpha.Files()

	f, err := tree.Upload(ctx, "/docs", "spec.pdf", []byte("pdf"))
	if err != nil {
		t.Fatalf("Upload error = %v", err)
	}
	if f.Path != "/docs/spec.pdf" {
		t.Fatalf("path = %q, want /docs/spec.pdf", f.Path)
	}

	if err := tree.Rename(ctx, f.ID, "renamed.pdf"); err != nil {
		t.Fatalf("Rename error = %v", err)
	}
	got, _ := tree.Stat(ctx, f.ID)
	if got.Name != "renamed.pdf" || got.Path != "/docs/renamed.pdf" {
		t.Fatalf("unexpected file after rename: %+v", got)
	}

	if err := tree.Delete(ctx, f.ID); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if _, err := tree.Stat(ctx, f.ID); !errors.Is(err, ErrNoSuchFile) {
		t.Fatalf("Stat after delete error = %v, want ErrNoSuchFile", err)
	}
	if err := tree.Delete(ctx, f.ID); !errors.Is(err, ErrNoSuchFile) {
		t.Fatalf("second Delete error = %v, want ErrNoSuchFile", err)
	}
}

func TestSimBotSubscribe(t *testing.T) {
	r := NewSimRegistry(100)
	sim, _ := r.SimBot(100)

	events, cancel := sim.Subscribe(8)
	defer cancel()

	id := sim.SimulateGroupMessage(1001, 101, chainOf("incoming"))
	ev := <-events
	if ev.Type != protocol.TypeGroupMessage {
		t.Fatalf("event type = %q, want %q", ev.Type, protocol.TypeGroupMessage)
	}
	if ev.MessageID != id || ev.GroupID != 1001 || ev.MemberID != 101 {
		t.Fatalf("unexpected event: %+v", ev)
	}

	cancel()
	if _, open := <-events; open {
		t.Fatalf("channel should be closed after cancel")
	}
}
