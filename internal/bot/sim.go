package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/botgate/internal/protocol"
)

// SimRegistry is an in-process backend used when no real IM backend is
// wired up. It gives every bot a small deterministic topology: two friends
// and three groups where the bot is administrator, owner, and plain member
// respectively, so permission paths are all reachable.
type SimRegistry struct {
	mu   sync.RWMutex
	bots map[int64]*SimBot
}

func NewSimRegistry(ids ...int64) *SimRegistry {
	r := &SimRegistry{bots: make(map[int64]*SimBot)}
	for _, id := range ids {
		r.bots[id] = newSimBot(id)
	}
	return r
}

func (r *SimRegistry) Bot(id int64) (Bot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bots[id]
	if !ok {
		return nil, ErrNoSuchBot
	}
	return b, nil
}

// SimBot retrieves the concrete simulated bot, for seeding events in tests
// and demos.
func (r *SimRegistry) SimBot(id int64) (*SimBot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bots[id]
	return b, ok
}

type simMember struct {
	summary MemberSummary
	detail  MemberDetail
	mutedTo time.Time
}

type simFile struct {
	file RemoteFile
}

type simGroup struct {
	bot     *SimBot
	summary GroupSummary
	config  GroupConfig
	muteAll bool
	members map[int64]*simMember
	files   map[string]*simFile
}

type SimBot struct {
	mu      sync.RWMutex
	id      int64
	profile Profile
	friends map[int64]Profile
	groups  map[int64]*simGroup

	nextMessageID atomic.Int64
	sent          atomic.Int64

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

func newSimBot(id int64) *SimBot {
	b := &SimBot{
		id:      id,
		profile: Profile{ID: id, Nickname: fmt.Sprintf("sim-%d", id)},
		friends: make(map[int64]Profile),
		groups:  make(map[int64]*simGroup),
		subs:    make(map[int]chan Event),
	}
	b.friends[id+1] = Profile{ID: id + 1, Nickname: "friend-a", Remark: "a"}
	b.friends[id+2] = Profile{ID: id + 2, Nickname: "friend-b", Remark: "b"}

	for i, tpl := range []struct {
		name string
		perm string
	}{
		{"alpha", "ADMINISTRATOR"},
		{"beta", "OWNER"},
		{"gamma", "MEMBER"},
	} {
		gid := id*10 + int64(i) + 1
		g := &simGroup{
			bot:     b,
			summary: GroupSummary{ID: gid, Name: tpl.name, BotPermission: tpl.perm},
			config:  GroupConfig{Name: tpl.name, Announcement: "welcome"},
			members: make(map[int64]*simMember),
			files:   make(map[string]*simFile),
		}
		g.members[id+1] = &simMember{
			summary: MemberSummary{ID: id + 1, Name: "member-a", Permission: "MEMBER"},
			detail:  MemberDetail{Name: "member-a", Nick: "friend-a"},
		}
		g.members[id+2] = &simMember{
			summary: MemberSummary{ID: id + 2, Name: "member-b", Permission: "ADMINISTRATOR"},
			detail:  MemberDetail{Name: "member-b", Nick: "friend-b"},
		}
		readme := RemoteFile{ID: uuid.NewString(), Name: "readme.txt", Path: "/readme.txt", Size: 64}
		docs := RemoteFile{ID: uuid.NewString(), Name: "docs", Path: "/docs", IsDir: true}
		g.files[readme.ID] = &simFile{file: readme}
		g.files[docs.ID] = &simFile{file: docs}
		b.groups[gid] = g
	}
	return b
}

func (b *SimBot) ID() int64        { return b.id }
func (b *SimBot) Profile() Profile { return b.profile }

// SentCount reports how many messages the backend has been asked to send.
// Used by tests to prove that rejected requests never reach the backend.
func (b *SimBot) SentCount() int64 { return b.sent.Load() }

func (b *SimBot) Friends(_ context.Context) ([]Profile, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Profile, 0, len(b.friends))
	for _, f := range b.friends {
		out = append(out, f)
	}
	return out, nil
}

func (b *SimBot) Groups(_ context.Context) ([]GroupSummary, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]GroupSummary, 0, len(b.groups))
	for _, g := range b.groups {
		out = append(out, g.summary)
	}
	return out, nil
}

func (b *SimBot) Group(_ context.Context, id int64) (Group, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	g, ok := b.groups[id]
	if !ok {
		return nil, ErrNoSuchTarget
	}
	return g, nil
}

func (b *SimBot) SendFriendMessage(_ context.Context, target int64, chain protocol.MessageChain) (int64, error) {
	b.mu.RLock()
	_, ok := b.friends[target]
	b.mu.RUnlock()
	if !ok {
		return 0, ErrNoSuchTarget
	}
	b.sent.Add(1)
	return b.nextMessageID.Add(1), nil
}

func (b *SimBot) SendGroupMessage(_ context.Context, target int64, chain protocol.MessageChain) (int64, error) {
	b.mu.RLock()
	g, ok := b.groups[target]
	muted := ok && g.muteAll && g.summary.BotPermission == "MEMBER"
	b.mu.RUnlock()
	if !ok {
		return 0, ErrNoSuchTarget
	}
	if muted {
		return 0, ErrBotMuted
	}
	b.sent.Add(1)
	return b.nextMessageID.Add(1), nil
}

func (b *SimBot) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.subMu.Unlock()

	cancel := func() {
		b.subMu.Lock()
		defer b.subMu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (b *SimBot) publish(ev Event) {
	ev.BotID = b.id
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscribers drop events rather than block the backend.
		}
	}
}

// SubscriberCount reports how many event listeners are attached.
func (b *SimBot) SubscriberCount() int {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	return len(b.subs)
}

// SetGroupMuteAll flips a group's mute-all flag directly, bypassing the
// permission check. Used to seed states the bot could not reach itself.
func (b *SimBot) SetGroupMuteAll(groupID int64, muted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.groups[groupID]; ok {
		g.muteAll = muted
	}
}

// SimulateFriendMessage injects an inbound friend message event.
func (b *SimBot) SimulateFriendMessage(friendID int64, chain protocol.MessageChain) int64 {
	id := b.nextMessageID.Add(1)
	b.publish(Event{
		Type:      protocol.TypeFriendMessage,
		MessageID: id,
		Chain:     chain,
		FriendID:  friendID,
	})
	return id
}

// SimulateGroupMessage injects an inbound group message event.
func (b *SimBot) SimulateGroupMessage(groupID, senderID int64, chain protocol.MessageChain) int64 {
	id := b.nextMessageID.Add(1)
	b.publish(Event{
		Type:      protocol.TypeGroupMessage,
		MessageID: id,
		Chain:     chain,
		GroupID:   groupID,
		MemberID:  senderID,
	})
	return id
}

// SimulateEvent injects a plain (non-message) event such as a member join
// or a group-wide mute.
func (b *SimBot) SimulateEvent(eventType string, groupID, memberID int64) {
	b.publish(Event{
		Type:     eventType,
		GroupID:  groupID,
		MemberID: memberID,
	})
}

func (g *simGroup) Summary() GroupSummary {
	g.bot.mu.RLock()
	defer g.bot.mu.RUnlock()
	return g.summary
}

func (g *simGroup) botCanAdmin() bool {
	return g.summary.BotPermission == "OWNER" || g.summary.BotPermission == "ADMINISTRATOR"
}

func (g *simGroup) Members(_ context.Context) ([]MemberSummary, error) {
	g.bot.mu.RLock()
	defer g.bot.mu.RUnlock()
	out := make([]MemberSummary, 0, len(g.members))
	for _, m := range g.members {
		out = append(out, m.summary)
	}
	return out, nil
}

func (g *simGroup) MemberDetail(_ context.Context, memberID int64) (MemberDetail, error) {
	g.bot.mu.RLock()
	defer g.bot.mu.RUnlock()
	m, ok := g.members[memberID]
	if !ok {
		return MemberDetail{}, ErrNoSuchTarget
	}
	return m.detail, nil
}

func (g *simGroup) UpdateMember(_ context.Context, memberID int64, patch protocol.MemberDetailPatch) error {
	g.bot.mu.Lock()
	defer g.bot.mu.Unlock()
	if !g.botCanAdmin() {
		return ErrPermissionDenied
	}
	m, ok := g.members[memberID]
	if !ok {
		return ErrNoSuchTarget
	}
	if patch.Name != nil {
		m.detail.Name = *patch.Name
		m.summary.Name = *patch.Name
	}
	if patch.SpecialTitle != nil {
		m.detail.SpecialTitle = *patch.SpecialTitle
	}
	return nil
}

func (g *simGroup) Config(_ context.Context) (GroupConfig, error) {
	g.bot.mu.RLock()
	defer g.bot.mu.RUnlock()
	return g.config, nil
}

func (g *simGroup) UpdateConfig(_ context.Context, patch protocol.GroupConfigPatch) error {
	g.bot.mu.Lock()
	defer g.bot.mu.Unlock()
	if !g.botCanAdmin() {
		return ErrPermissionDenied
	}
	if patch.Name != nil {
		g.config.Name = *patch.Name
		g.summary.Name = *patch.Name
	}
	if patch.Announcement != nil {
		g.config.Announcement = *patch.Announcement
	}
	if patch.AllowMemberInvite != nil {
		g.config.AllowMemberInvite = *patch.AllowMemberInvite
	}
	return nil
}

func (g *simGroup) SetMuteAll(_ context.Context, muted bool) error {
	g.bot.mu.Lock()
	defer g.bot.mu.Unlock()
	if !g.botCanAdmin() {
		return ErrPermissionDenied
	}
	g.muteAll = muted
	return nil
}

func (g *simGroup) MuteMember(_ context.Context, memberID int64, seconds int) error {
	g.bot.mu.Lock()
	defer g.bot.mu.Unlock()
	if !g.botCanAdmin() {
		return ErrPermissionDenied
	}
	m, ok := g.members[memberID]
	if !ok {
		return ErrNoSuchTarget
	}
	if seconds <= 0 {
		seconds = 600
	}
	m.mutedTo = time.Now().UTC().Add(time.Duration(seconds) * time.Second)
	return nil
}

func (g *simGroup) UnmuteMember(_ context.Context, memberID int64) error {
	g.bot.mu.Lock()
	defer g.bot.mu.Unlock()
	if !g.botCanAdmin() {
		return ErrPermissionDenied
	}
	m, ok := g.members[memberID]
	if !ok {
		return ErrNoSuchTarget
	}
	m.mutedTo = time.Time{}
	return nil
}

func (g *simGroup) Kick(_ context.Context, memberID int64, _ string) error {
	g.bot.mu.Lock()
	defer g.bot.mu.Unlock()
	if !g.botCanAdmin() {
		return ErrPermissionDenied
	}
	if _, ok := g.members[memberID]; !ok {
		return ErrNoSuchTarget
	}
	delete(g.members, memberID)
	return nil
}

func (g *simGroup) Quit(_ context.Context) (bool, error) {
	g.bot.mu.Lock()
	defer g.bot.mu.Unlock()
	if g.summary.BotPermission == "OWNER" {
		return false, nil
	}
	delete(g.bot.groups, g.summary.ID)
	return true, nil
}

func (g *simGroup) Files() FileTree { return (*simFileTree)(g) }

type simFileTree simGroup

func normalizeDir(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func parentDir(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

func (t *simFileTree) List(_ context.Context, path string) ([]RemoteFile, error) {
	path = normalizeDir(path)
	t.bot.mu.RLock()
	defer t.bot.mu.RUnlock()
	out := make([]RemoteFile, 0, len(t.files))
	for _, f := range t.files {
		if parentDir(f.file.Path) == path {
			out = append(out, f.file)
		}
	}
	return out, nil
}

func (t *simFileTree) Stat(_ context.Context, id string) (RemoteFile, error) {
	t.bot.mu.RLock()
	defer t.bot.mu.RUnlock()
	f, ok := t.files[id]
	if !ok {
		return RemoteFile{}, ErrNoSuchFile
	}
	return f.file, nil
}

func (t *simFileTree) Rename(_ context.Context, id, newName string) error {
	t.bot.mu.Lock()
	defer t.bot.mu.Unlock()
	if !(*simGroup)(t).botCanAdmin() {
		return ErrPermissionDenied
	}
	f, ok := t.files[id]
	if !ok {
		return ErrNoSuchFile
	}
	f.file.Name = newName
	f.file.Path = parentDir(f.file.Path) + "/" + newName
	if strings.HasPrefix(f.file.Path, "//") {
		f.file.Path = f.file.Path[1:]
	}
	return nil
}

func (t *simFileTree) dirAtLocked(path string) (*simFile, bool) {
	for _, f := range t.files {
		if f.file.Path == path {
			return f, true
		}
	}
	return nil, false
}

func (t *simFileTree) ensureDirLocked(path string) error {
	if path == "/" {
		return nil
	}
	if existing, ok := t.dirAtLocked(path); ok {
		if !existing.file.IsDir {
			// A plain file occupies the directory path. Reject rather than
			// silently converting it.
			return ErrPermissionDenied
		}
		return nil
	}
	dir := RemoteFile{
		ID:    uuid.NewString(),
		Name:  path[strings.LastIndex(path, "/")+1:],
		Path:  path,
		IsDir: true,
	}
	t.files[dir.ID] = &simFile{file: dir}
	return nil
}

func (t *simFileTree) Move(_ context.Context, id, dirPath string) error {
	dirPath = normalizeDir(dirPath)
	t.bot.mu.Lock()
	defer t.bot.mu.Unlock()
	if !(*simGroup)(t).botCanAdmin() {
		return ErrPermissionDenied
	}
	f, ok := t.files[id]
	if !ok {
		return ErrNoSuchFile
	}
	if err := t.ensureDirLocked(dirPath); err != nil {
		return err
	}
	if dirPath == "/" {
		f.file.Path = "/" + f.file.Name
	} else {
		f.file.Path = dirPath + "/" + f.file.Name
	}
	return nil
}

func (t *simFileTree) Delete(_ context.Context, id string) error {
	t.bot.mu.Lock()
	defer t.bot.mu.Unlock()
	if !(*simGroup)(t).botCanAdmin() {
		return ErrPermissionDenied
	}
	if _, ok := t.files[id]; !ok {
		return ErrNoSuchFile
	}
	delete(t.files, id)
	return nil
}

func (t *simFileTree) Upload(_ context.Context, dirPath, name string, data []byte) (RemoteFile, error) {
	dirPath = normalizeDir(dirPath)
	t.bot.mu.Lock()
	defer t.bot.mu.Unlock()
	if err := t.ensureDirLocked(dirPath); err != nil {
		return RemoteFile{}, err
	}
	path := dirPath + "/" + name
	if dirPath == "/" {
		path = "/" + name
	}
	f := RemoteFile{
		ID:   uuid.NewString(),
		Name: name,
		Path: path,
		Size: int64(len(data)),
	}
	t.files[f.ID] = &simFile{file: f}
	return f, nil
}
