package httpapi

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/botgate/internal/bot"
	"github.com/ent0n29/botgate/internal/protocol"
	"github.com/ent0n29/botgate/internal/session"
)

func wsURL(httpURL, path, token string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + path + "?sessionKey=" + token
}

// waitSubscribed blocks until the server side of the stream has attached
// its event listener, so seeded events cannot race the subscription.
func waitSubscribed(t *testing.T, sim *bot.SimBot) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for sim.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("stream never subscribed to bot events")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) protocol.EventFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var frame protocol.EventFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return frame
}

func TestStreamDeliversMessages(t *testing.T) {
	g := newTestGateway(t)
	token := g.boundToken(t)
	sim, _ := g.bots.SimBot(100)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(g.srv.URL, "/all", token), nil)
	if err != nil {
		t.Fatalf("dial /all: %v", err)
	}
	defer conn.Close()
	waitSubscribed(t, sim)

	chain := protocol.MessageChain{{Type: protocol.SegmentPlain, Text: "ping"}}
	wantID := sim.SimulateFriendMessage(101, chain)

	frame := readFrame(t, conn)
	if frame.Type != protocol.TypeFriendMessage {
		t.Fatalf("frame type = %q, want FriendMessage", frame.Type)
	}
	if frame.MessageID != wantID {
		t.Fatalf("frame messageId = %d, want %d", frame.MessageID, wantID)
	}
	if frame.Friend == nil || frame.Friend.ID != 101 {
		t.Fatalf("frame friend = %+v, want id 101", frame.Friend)
	}
}

func TestMessageStreamFiltersEvents(t *testing.T) {
	g := newTestGateway(t)
	token := g.boundToken(t)
	sim, _ := g.bots.SimBot(100)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(g.srv.URL, "/message", token), nil)
	if err != nil {
		t.Fatalf("dial /message: %v", err)
	}
	defer conn.Close()
	waitSubscribed(t, sim)

	// A non-message event first; only the group message should arrive.
	sim.SimulateEvent(protocol.TypeGroupMuteAll, 1003, 0)
	chain := protocol.MessageChain{{Type: protocol.SegmentPlain, Text: "hello"}}
	sim.SimulateGroupMessage(1001, 101, chain)

	frame := readFrame(t, conn)
	if frame.Type != protocol.TypeGroupMessage {
		t.Fatalf("frame type = %q, want GroupMessage", frame.Type)
	}
	if frame.Sender == nil || frame.Sender.ID != 101 || frame.Sender.Group.ID != 1001 {
		t.Fatalf("frame sender = %+v", frame.Sender)
	}
}

func TestEventStreamFiltersMessages(t *testing.T) {
	g := newTestGateway(t)
	token := g.boundToken(t)
	sim, _ := g.bots.SimBot(100)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(g.srv.URL, "/event", token), nil)
	if err != nil {
		t.Fatalf("dial /event: %v", err)
	}
	defer conn.Close()
	waitSubscribed(t, sim)

	chain := protocol.MessageChain{{Type: protocol.SegmentPlain, Text: "noise"}}
	sim.SimulateFriendMessage(101, chain)
	sim.SimulateEvent(protocol.TypeMemberJoin, 1001, 103)

	frame := readFrame(t, conn)
	if frame.Type != protocol.TypeMemberJoin {
		t.Fatalf("frame type = %q, want MemberJoinEvent", frame.Type)
	}
	if frame.Group == nil || frame.Group.ID != 1001 {
		t.Fatalf("frame group = %+v, want id 1001", frame.Group)
	}
	if frame.Member == nil || frame.Member.ID != 103 {
		t.Fatalf("frame member = %+v, want id 103", frame.Member)
	}
}

func TestStreamDisconnectClosesSession(t *testing.T) {
	g := newTestGateway(t)
	token := g.boundToken(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(g.srv.URL, "/all", token), nil)
	if err != nil {
		t.Fatalf("dial /all: %v", err)
	}
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, err := g.sessions.Get(token)
		if err == session.ErrNoSuchSession {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("session still live after disconnect (err=%v)", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStreamRejectsUnboundSession(t *testing.T) {
	g := newTestGateway(t)
	auth := g.post(t, "/auth", map[string]any{})
	token := auth["session"].(string)

	env := g.get(t, "/all?sessionKey="+token)
	if code(t, env) != 4 {
		t.Fatalf("stream with pending session code = %d, want 4", code(t, env))
	}

	missing := g.get(t, "/all?sessionKey=never-issued")
	if code(t, missing) != 3 {
		t.Fatalf("stream with unknown token code = %d, want 3", code(t, missing))
	}
}
