package bot

import (
	"context"
	"errors"
	"time"

	"github.com/ent0n29/botgate/internal/protocol"
)

var (
	ErrNoSuchBot        = errors.New("no such bot")
	ErrNoSuchTarget     = errors.New("no such target")
	ErrNoSuchFile       = errors.New("no such file")
	ErrPermissionDenied = errors.New("permission denied")
	ErrBotMuted         = errors.New("bot is muted in this group")
)

// Registry resolves live backend bots by identifier.
type Registry interface {
	Bot(id int64) (Bot, error)
}

type Profile struct {
	ID       int64
	Nickname string
	Remark   string
}

type GroupSummary struct {
	ID            int64
	Name          string
	BotPermission string
}

type MemberSummary struct {
	ID         int64
	Name       string
	Permission string
}

type GroupConfig struct {
	Name              string
	Announcement      string
	AllowMemberInvite bool
}

type MemberDetail struct {
	Name         string
	Nick         string
	SpecialTitle string
}

type RemoteFile struct {
	ID    string
	Name  string
	Path  string
	IsDir bool
	Size  int64
}

// Event is one backend occurrence pushed to streaming subscribers.
type Event struct {
	Type      string
	BotID     int64
	MessageID int64
	Chain     protocol.MessageChain
	FriendID  int64
	GroupID   int64
	MemberID  int64
	Time      time.Time
}

// Bot is the narrow handle the gateway holds on one backend bot account.
// Handlers receive it only after the session layer has resolved and
// authorized the request.
type Bot interface {
	ID() int64
	Profile() Profile
	Friends(ctx context.Context) ([]Profile, error)
	Groups(ctx context.Context) ([]GroupSummary, error)
	Group(ctx context.Context, id int64) (Group, error)
	SendFriendMessage(ctx context.Context, target int64, chain protocol.MessageChain) (int64, error)
	SendGroupMessage(ctx context.Context, target int64, chain protocol.MessageChain) (int64, error)
	// Subscribe registers an event listener. The returned cancel func must
	// be called when the listener goes away; after cancel the channel is
	// closed and no further events are delivered.
	Subscribe(buffer int) (<-chan Event, func())
}

// Group is a handle on one group the bot belongs to.
type Group interface {
	Summary() GroupSummary
	Members(ctx context.Context) ([]MemberSummary, error)
	MemberDetail(ctx context.Context, memberID int64) (MemberDetail, error)
	UpdateMember(ctx context.Context, memberID int64, patch protocol.MemberDetailPatch) error
	Config(ctx context.Context) (GroupConfig, error)
	UpdateConfig(ctx context.Context, patch protocol.GroupConfigPatch) error
	SetMuteAll(ctx context.Context, muted bool) error
	MuteMember(ctx context.Context, memberID int64, seconds int) error
	UnmuteMember(ctx context.Context, memberID int64) error
	Kick(ctx context.Context, memberID int64, msg string) error
	// Quit reports false when the backend refuses (the bot owns the group).
	Quit(ctx context.Context) (bool, error)
	Files() FileTree
}

// FileTree is the remote file hierarchy of one group.
type FileTree interface {
	List(ctx context.Context, path string) ([]RemoteFile, error)
	Stat(ctx context.Context, id string) (RemoteFile, error)
	Rename(ctx context.Context, id, newName string) error
	// Move relocates a file into dirPath. A missing directory is created on
	// the fly; an existing plain file at dirPath rejects the move.
	Move(ctx context.Context, id, dirPath string) error
	Delete(ctx context.Context, id string) error
	Upload(ctx context.Context, dirPath, name string, data []byte) (RemoteFile, error)
}
