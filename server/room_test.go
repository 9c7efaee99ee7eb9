package main

import (
	"sync"
	"testing"
	"time"

	"github.com/tabacha/fishtris/game"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sent struct {
	event string
	data  interface{}
}

type mockPeer struct {
	mu  sync.Mutex
	got []sent
}

func (m *mockPeer) Send(event string, data interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, sent{event, data})
}

func (m *mockPeer) events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.got))
	for i, s := range m.got {
		out[i] = s.event
	}
	return out
}

func (m *mockPeer) last() sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.got) == 0 {
		return sent{}
	}
	return m.got[len(m.got)-1]
}

func (m *mockPeer) reset() {
	m.mu.Lock()
	m.got = nil
	m.mu.Unlock()
}

func testLog() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func jsonMsg(t *testing.T, raw string) game.Message {
	t.Helper()
	msg, err := game.JSONCodec.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return msg
}

func pairedRoom(t *testing.T, hooks RoomHooks) (*Room, *mockPeer, *mockPeer) {
	t.Helper()
	room := NewRoom(GenerateUUID(), "Alice", hooks, testLog())
	a, b := &mockPeer{}, &mockPeer{}
	if _, _, err := room.Join(a, "Alice", 1); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if _, _, err := room.Join(b, "Bob", 0); err != nil {
		t.Fatalf("join b: %v", err)
	}
	a.reset()
	b.reset()
	return room, a, b
}

func TestRoomSeatsTwo(t *testing.T) {
	room := NewRoom(GenerateUUID(), "Alice", RoomHooks{}, testLog())
	a, b, c := &mockPeer{}, &mockPeer{}, &mockPeer{}

	seat, opponent, err := room.Join(a, "Alice", 0)
	if err != nil || seat != 0 || opponent != "" {
		t.Fatalf("first join = (%d, %q, %v)", seat, opponent, err)
	}
	if _, _, err := room.Join(a, "Alice", 0); err != ErrAlreadySeated {
		t.Errorf("rejoin err = %v, want ErrAlreadySeated", err)
	}

	seat, opponent, err = room.Join(b, "Bob", 0)
	if err != nil || seat != 1 || opponent != "Alice" {
		t.Fatalf("second join = (%d, %q, %v)", seat, opponent, err)
	}
	if got := a.last(); got.event != MsgOpJoined || got.data.(OpJoinedMsg).Name != "Bob" {
		t.Errorf("first seat got %+v, want op_joined Bob", got)
	}

	if _, _, err := room.Join(c, "Carol", 0); err != ErrRoomFull {
		t.Errorf("third join err = %v, want ErrRoomFull", err)
	}
	if room.Players() != 2 {
		t.Errorf("players = %d, want 2", room.Players())
	}
}

func TestRoomStartSendsSeedThenStart(t *testing.T) {
	var started []int64
	room, a, b := pairedRoom(t, RoomHooks{
		RoundStarted: func(_ string, players []int64) { started = players },
	})

	if err := room.Start(a); err != nil {
		t.Fatalf("start: %v", err)
	}
	for name, p := range map[string]*mockPeer{"a": a, "b": b} {
		ev := p.events()
		if len(ev) != 2 || ev[0] != game.EvtGameReady || ev[1] != game.EvtStart {
			t.Errorf("%s got %v, want [game_ready start]", name, ev)
		}
	}
	if a.got[0].data != b.got[0].data {
		t.Errorf("seeds differ: %v vs %v", a.got[0].data, b.got[0].data)
	}
	if a.got[1].data != 1 {
		t.Errorf("start payload = %v, want 1", a.got[1].data)
	}
	if !room.Playing() {
		t.Error("room should be playing")
	}
	if len(started) != 2 || started[0] != 1 || started[1] != 0 {
		t.Errorf("RoundStarted players = %v", started)
	}

	if err := room.Start(b); err != ErrRoundRunning {
		t.Errorf("second start err = %v, want ErrRoundRunning", err)
	}
}

func TestRoomStartNeedsOpponent(t *testing.T) {
	room := NewRoom(GenerateUUID(), "Solo", RoomHooks{}, testLog())
	a := &mockPeer{}
	if err := room.Start(a); err != ErrNotSeated {
		t.Errorf("unseated start err = %v, want ErrNotSeated", err)
	}
	room.Join(a, "Solo", 0)
	if err := room.Start(a); err != ErrNotPaired {
		t.Errorf("solo start err = %v, want ErrNotPaired", err)
	}
	if len(a.events()) != 0 {
		t.Errorf("solo seat got %v", a.events())
	}
}

func TestRoomRelaysWithPrefix(t *testing.T) {
	room, a, b := pairedRoom(t, RoomHooks{})

	if err := room.Relay(a, jsonMsg(t, `{"t":"score","d":5}`)); err != nil {
		t.Fatalf("relay: %v", err)
	}
	if got := b.last(); got.event != game.EvtOpScore || got.data != int64(5) {
		t.Errorf("b got %+v, want op_score 5", got)
	}
	if len(a.events()) != 0 {
		t.Errorf("sender got its own event: %v", a.events())
	}

	if err := room.Relay(b, jsonMsg(t, `{"t":"down","d":{"id":"o","x":6,"y":18,"dir":0}}`)); err != nil {
		t.Fatalf("relay: %v", err)
	}
	got := a.last()
	if got.event != game.EvtOpDown {
		t.Fatalf("a got %s, want op_down", got.event)
	}
	if m, ok := got.data.(map[string]interface{}); !ok || m["id"] != "o" || m["x"] != int64(6) {
		t.Errorf("op_down payload = %#v", got.data)
	}

	if err := room.Relay(a, jsonMsg(t, `{"t":"create","d":{}}`)); err != ErrNotRelayed {
		t.Errorf("control relay err = %v, want ErrNotRelayed", err)
	}
	if err := room.Relay(&mockPeer{}, jsonMsg(t, `{"t":"score","d":1}`)); err != ErrNotSeated {
		t.Errorf("stranger relay err = %v, want ErrNotSeated", err)
	}
}

func TestRoomLooseEndsRound(t *testing.T) {
	var results []RoundResult
	var powerUps []string
	room, a, b := pairedRoom(t, RoomHooks{
		RoundEnded: func(r RoundResult) { results = append(results, r) },
		PowerUp:    func(_ string, _ int64, id string) { powerUps = append(powerUps, id) },
	})
	room.Start(a)

	room.Relay(a, jsonMsg(t, `{"t":"score","d":12}`))
	room.Relay(a, jsonMsg(t, `{"t":"rows","d":4}`))
	room.Relay(b, jsonMsg(t, `{"t":"score","d":30}`))
	room.Relay(b, jsonMsg(t, `{"t":"fishtris","d":"Bohrer"}`))
	room.Relay(a, jsonMsg(t, `{"t":"loose","d":true}`))

	if room.Playing() {
		t.Error("round should be over")
	}
	if got := b.last(); got.event != game.EvtOpLoose {
		t.Errorf("b got %s, want op_loose", got.event)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if len(r.Seats) != 2 {
		t.Fatalf("seats = %+v", r.Seats)
	}
	loser, winner := r.Seats[0], r.Seats[1]
	if loser.Name != "Alice" || loser.Won || loser.Score != 12 || loser.Rows != 4 || loser.AuthID != 1 {
		t.Errorf("loser = %+v", loser)
	}
	if winner.Name != "Bob" || !winner.Won || winner.Score != 30 {
		t.Errorf("winner = %+v", winner)
	}
	if len(powerUps) != 1 || powerUps[0] != "Bohrer" {
		t.Errorf("power-ups = %v", powerUps)
	}

	// The winner's own loose later in the same round is only relayed.
	room.Relay(b, jsonMsg(t, `{"t":"loose","d":true}`))
	if len(results) != 1 {
		t.Errorf("got %d results after second loose, want 1", len(results))
	}
}

func TestRoomKeepsCounterOnMalformedValue(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var results []RoundResult
	room := NewRoom(GenerateUUID(), "Alice", RoomHooks{
		RoundEnded: func(r RoundResult) { results = append(results, r) },
	}, zap.New(core).Sugar())
	a, b := &mockPeer{}, &mockPeer{}
	room.Join(a, "Alice", 0)
	room.Join(b, "Bob", 0)
	room.Start(a)
	b.reset()

	room.Relay(a, jsonMsg(t, `{"t":"score","d":12}`))
	room.Relay(a, jsonMsg(t, `{"t":"score","d":"lots"}`))
	if got := b.last(); got.event != game.EvtOpScore || got.data != "lots" {
		t.Errorf("b got %+v, want the raw op_score", got)
	}
	if n := logs.FilterMessageSnippet("score from Alice").Len(); n != 1 {
		t.Errorf("got %d decode logs, want 1", n)
	}

	room.Relay(a, jsonMsg(t, `{"t":"loose","d":true}`))
	if len(results) != 1 || results[0].Seats[0].Score != 12 {
		t.Errorf("results = %+v, want loser score 12", results)
	}
}

func TestRoomLeaveNotifiesOpponent(t *testing.T) {
	room, a, b := pairedRoom(t, RoomHooks{})
	room.Start(a)

	if empty := room.Leave(a); empty {
		t.Error("room should still hold one seat")
	}
	if got := b.last(); got.event != game.EvtOpLeft || got.data != nil {
		t.Errorf("b got %+v, want op_left", got)
	}
	if room.Playing() {
		t.Error("round should stop when a seat leaves")
	}
	if !room.Leave(b) {
		t.Error("room should be empty")
	}
}

func TestRoomManagerLifecycle(t *testing.T) {
	rm := NewRoomManager(RoomHooks{}, testLog())
	room, err := rm.CreateRoom("Alice")
	if err != nil {
		t.Fatal(err)
	}
	if !IsRoomID(room.ID) {
		t.Errorf("room ID %q is not a UUID", room.ID)
	}
	if rm.GetRoom(room.ID) != room {
		t.Fatal("room not found")
	}

	a, b := &mockPeer{}, &mockPeer{}
	room.Join(a, "Alice", 0)
	if list := rm.ListRooms(true); len(list) != 1 || list[0].Players != 1 || list[0].Host != "Alice" {
		t.Errorf("open rooms = %+v", list)
	}
	room.Join(b, "Bob", 0)
	if list := rm.ListRooms(true); len(list) != 0 {
		t.Errorf("full room listed as open: %+v", list)
	}
	if list := rm.ListRooms(false); len(list) != 1 {
		t.Errorf("all rooms = %+v", list)
	}

	rm.Leave(room.ID, a)
	rm.Leave(room.ID, b)
	if rm.GetRoom(room.ID) != nil {
		t.Error("empty room should be removed")
	}
}

func TestRoomManagerSweepsIdleRooms(t *testing.T) {
	rm := NewRoomManager(RoomHooks{}, testLog())
	idle, _ := rm.CreateRoom("Nobody")
	busy, _ := rm.CreateRoom("Somebody")
	busy.Join(&mockPeer{}, "Somebody", 0)

	if n := rm.Sweep(time.Now()); n != 0 {
		t.Errorf("swept %d fresh rooms", n)
	}
	if n := rm.Sweep(time.Now().Add(RoomIdleTimeout + time.Second)); n != 1 {
		t.Errorf("swept %d rooms, want 1", n)
	}
	if rm.GetRoom(idle.ID) != nil || rm.GetRoom(busy.ID) == nil {
		t.Error("sweep removed the wrong room")
	}
}

func TestRoomManagerCap(t *testing.T) {
	rm := NewRoomManager(RoomHooks{}, testLog())
	for i := 0; i < maxRooms; i++ {
		if _, err := rm.CreateRoom("r"); err != nil {
			t.Fatalf("room %d: %v", i, err)
		}
	}
	if _, err := rm.CreateRoom("one too many"); err != ErrTooManyRooms {
		t.Errorf("err = %v, want ErrTooManyRooms", err)
	}
}
