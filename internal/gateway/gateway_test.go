package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quizdeck/quizdeck/internal/game"
	"github.com/quizdeck/quizdeck/internal/game/events"
	"github.com/quizdeck/quizdeck/internal/quiz/session"
)

// fakeResyncer returns a canned state (or error) for every code.
type fakeResyncer struct {
	state *game.SyncState
	err   error
}

func (f *fakeResyncer) Resync(ctx context.Context, code string, now time.Time) (*game.SyncState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func newTestGateway(t *testing.T, resyncer StateResyncer) (*ConnectionManager, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	manager := NewConnectionManager(DefaultConnectionConfig())
	go manager.Start(ctx)

	handler := NewWebSocketHandler(manager, resyncer)
	ts := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(ts.Close)
	return manager, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestJoinAnnouncesCount(t *testing.T) {
	_, ts := newTestGateway(t, &fakeResyncer{state: &game.SyncState{Kind: game.SyncIdle}})

	first := dial(t, ts, "")
	send(t, first, ClientMessage{Action: ActionJoinSession, Code: "abcd"})

	ev := readEvent(t, first)
	if ev.Type != events.TypeSessionUpdate {
		t.Fatalf("expected session:update, got %s", ev.Type)
	}
	if ev.SessionCode != "ABCD" {
		t.Errorf("expected canonical code ABCD, got %s", ev.SessionCode)
	}
	var payload events.SessionUpdatePayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Count != 1 {
		t.Errorf("expected count 1, got %d", payload.Count)
	}

	second := dial(t, ts, "")
	send(t, second, ClientMessage{Action: ActionJoinSession, Code: "ABCD"})

	// Both members see the new count.
	for _, conn := range []*websocket.Conn{first, second} {
		ev := readEvent(t, conn)
		if ev.Type != events.TypeSessionUpdate {
			t.Fatalf("expected session:update, got %s", ev.Type)
		}
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload.Count != 2 {
			t.Errorf("expected count 2, got %d", payload.Count)
		}
	}
}

func TestQueryParamJoins(t *testing.T) {
	manager, ts := newTestGateway(t, &fakeResyncer{state: &game.SyncState{Kind: game.SyncIdle}})

	conn := dial(t, ts, "?code=wxyz")
	ev := readEvent(t, conn)
	if ev.Type != events.TypeSessionUpdate || ev.SessionCode != "WXYZ" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if n := manager.RoomCount("WXYZ"); n != 1 {
		t.Errorf("expected room count 1, got %d", n)
	}
}

func TestBroadcastReachesOnlyRoomMembers(t *testing.T) {
	manager, ts := newTestGateway(t, &fakeResyncer{state: &game.SyncState{Kind: game.SyncIdle}})

	member := dial(t, ts, "?code=ABCD")
	readEvent(t, member) // join count

	outsider := dial(t, ts, "?code=WXYZ")
	readEvent(t, outsider) // join count

	manager.BroadcastToRoom("ABCD", &Event{
		ID:          "ev-1",
		SessionCode: "ABCD",
		Type:        events.TypeGameStarted,
		Timestamp:   time.Now(),
	})

	ev := readEvent(t, member)
	if ev.Type != events.TypeGameStarted {
		t.Fatalf("expected game:started, got %s", ev.Type)
	}

	outsider.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var stray Event
	if err := outsider.ReadJSON(&stray); err == nil {
		t.Fatalf("outsider received stray event: %+v", stray)
	}
}

func TestSyncIdleReply(t *testing.T) {
	_, ts := newTestGateway(t, &fakeResyncer{state: &game.SyncState{Kind: game.SyncIdle}})

	conn := dial(t, ts, "")
	send(t, conn, ClientMessage{Action: ActionSyncState, Code: "ABCD"})

	ev := readEvent(t, conn)
	if ev.Type != events.TypeSyncIdle {
		t.Fatalf("expected sync:idle, got %s", ev.Type)
	}
}

func TestSyncQuestionReply(t *testing.T) {
	state := &game.SyncState{
		Kind: game.SyncQuestion,
		Question: &events.QuestionPayload{
			QNum:  2,
			Total: 5,
			Time:  9,
			Question: events.QuestionView{
				ID:      "q-2",
				Text:    "which?",
				Options: []events.OptionView{{Text: "a"}, {Text: "b"}},
			},
			IsSync: true,
		},
	}
	_, ts := newTestGateway(t, &fakeResyncer{state: state})

	conn := dial(t, ts, "")
	send(t, conn, ClientMessage{Action: ActionSyncState, Code: "ABCD"})

	ev := readEvent(t, conn)
	if ev.Type != events.TypeGameQuestion {
		t.Fatalf("expected game:question, got %s", ev.Type)
	}
	var payload events.QuestionPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.QNum != 2 || payload.Time != 9 || !payload.IsSync {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestSyncRanksReply(t *testing.T) {
	state := &game.SyncState{
		Kind:  game.SyncRanks,
		Ranks: []events.RankEntry{{Rank: 1, Name: "alice", Score: 100}},
	}
	_, ts := newTestGateway(t, &fakeResyncer{state: state})

	conn := dial(t, ts, "")
	send(t, conn, ClientMessage{Action: ActionSyncState, Code: "ABCD"})

	ev := readEvent(t, conn)
	if ev.Type != events.TypeGameRanks {
		t.Fatalf("expected game:ranks, got %s", ev.Type)
	}
	var ranks []events.RankEntry
	if err := json.Unmarshal(ev.Data, &ranks); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(ranks) != 1 || ranks[0].Name != "alice" {
		t.Errorf("unexpected ranks: %+v", ranks)
	}
}

func TestSyncUnknownSessionReply(t *testing.T) {
	_, ts := newTestGateway(t, &fakeResyncer{err: session.ErrNotFound})

	conn := dial(t, ts, "")
	send(t, conn, ClientMessage{Action: ActionSyncState, Code: "NOPE"})

	ev := readEvent(t, conn)
	if ev.Type != events.TypeGameError {
		t.Fatalf("expected game:error, got %s", ev.Type)
	}
}

func TestDisconnectAnnouncesCount(t *testing.T) {
	_, ts := newTestGateway(t, &fakeResyncer{state: &game.SyncState{Kind: game.SyncIdle}})

	first := dial(t, ts, "?code=ABCD")
	readEvent(t, first)

	second := dial(t, ts, "?code=ABCD")
	readEvent(t, first)
	readEvent(t, second)

	second.Close()

	ev := readEvent(t, first)
	if ev.Type != events.TypeSessionUpdate {
		t.Fatalf("expected session:update, got %s", ev.Type)
	}
	var payload events.SessionUpdatePayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Count != 1 {
		t.Errorf("expected count 1 after disconnect, got %d", payload.Count)
	}
}
