package main

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tabacha/fishtris/game"
	"go.uber.org/zap"
)

const (
	maxRooms     = 100
	seatsPerRoom = 2
)

// RoomIdleTimeout is how long a room may stay empty before it is swept
var RoomIdleTimeout = 2 * time.Minute

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room full")
	ErrTooManyRooms  = errors.New("too many active rooms")
	ErrAlreadySeated = errors.New("already seated")
	ErrNotSeated     = errors.New("not seated in a room")
	ErrNotPaired     = errors.New("waiting for an opponent")
	ErrRoundRunning  = errors.New("round already running")
	ErrNotRelayed    = errors.New("event is not relayed")
)

// Peer is a seated connection as the room sees it. Send must not block.
type Peer interface {
	Send(event string, data interface{})
}

// SeatResult is one side of a finished round
type SeatResult struct {
	Name   string
	AuthID int64
	Score  int
	Rows   int
	Gnus   int
	Won    bool
}

// RoundResult is reported when a round ends with a loser
type RoundResult struct {
	RoomID   string
	Duration time.Duration
	Seats    []SeatResult
}

// RoomHooks lets the hub observe room activity. Nil hooks are skipped.
// Hooks run outside the room lock.
type RoomHooks struct {
	RoundStarted func(roomID string, players []int64)
	RoundEnded   func(RoundResult)
	PowerUp      func(roomID string, authID int64, id string)
}

type seat struct {
	peer   Peer
	name   string
	authID int64
	score  int
	rows   int
	gnus   int
}

func (s *seat) result(won bool) SeatResult {
	return SeatResult{Name: s.name, AuthID: s.authID, Score: s.score, Rows: s.rows, Gnus: s.gnus, Won: won}
}

// Room pairs two players and relays game events between them
type Room struct {
	ID string

	mu         sync.Mutex
	host       string
	seats      [seatsPerRoom]*seat
	playing    bool
	seed       uint64
	startedAt  time.Time
	emptySince time.Time
	hooks      RoomHooks
	log        *zap.SugaredLogger
}

// NewRoom creates an empty room
func NewRoom(id, host string, hooks RoomHooks, log *zap.SugaredLogger) *Room {
	return &Room{
		ID:         id,
		host:       host,
		hooks:      hooks,
		log:        log,
		emptySince: time.Now(),
	}
}

func (r *Room) seatOf(p Peer) int {
	for i, s := range r.seats {
		if s != nil && s.peer == p {
			return i
		}
	}
	return -1
}

func (r *Room) opponent(i int) *seat {
	return r.seats[1-i]
}

// Join seats p. It returns the seat index and the opponent's name, if any.
func (r *Room) Join(p Peer, name string, authID int64) (int, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seatOf(p) >= 0 {
		return 0, "", ErrAlreadySeated
	}
	idx := -1
	for i, s := range r.seats {
		if s == nil {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, "", ErrRoomFull
	}
	r.seats[idx] = &seat{peer: p, name: name, authID: authID}
	r.emptySince = time.Time{}

	opponent := ""
	if op := r.opponent(idx); op != nil {
		opponent = op.name
		op.peer.Send(MsgOpJoined, OpJoinedMsg{Name: name})
	}
	r.log.Infof("room %s: %s took seat %d", r.ID, name, idx)
	return idx, opponent, nil
}

// Leave frees p's seat and tells the opponent. It reports whether the
// room is now empty.
func (r *Room) Leave(p Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.seatOf(p)
	if i < 0 {
		return r.players() == 0
	}
	name := r.seats[i].name
	r.seats[i] = nil
	r.playing = false
	if op := r.opponent(i); op != nil {
		op.peer.Send(game.EvtOpLeft, nil)
	}
	r.log.Infof("room %s: %s left", r.ID, name)
	if r.players() == 0 {
		r.emptySince = time.Now()
		return true
	}
	return false
}

// Start begins a round for both seats: a fresh seed goes out first, then
// the start signal.
func (r *Room) Start(p Peer) error {
	r.mu.Lock()
	if r.seatOf(p) < 0 {
		r.mu.Unlock()
		return ErrNotSeated
	}
	if r.players() < seatsPerRoom {
		r.mu.Unlock()
		return ErrNotPaired
	}
	if r.playing {
		r.mu.Unlock()
		return ErrRoundRunning
	}
	r.seed = NewSeed()
	r.playing = true
	r.startedAt = time.Now()
	players := make([]int64, 0, seatsPerRoom)
	for _, s := range r.seats {
		s.score, s.rows, s.gnus = 0, 0, 0
		s.peer.Send(game.EvtGameReady, r.seed)
		players = append(players, s.authID)
	}
	for _, s := range r.seats {
		s.peer.Send(game.EvtStart, 1)
	}
	r.mu.Unlock()

	r.log.Infof("room %s: round started (seed %d)", r.ID, r.seed)
	if r.hooks.RoundStarted != nil {
		r.hooks.RoundStarted(r.ID, players)
	}
	return nil
}

// Relay forwards a game event from p to the opponent as op_<event>, in
// whatever codec the opponent speaks. Counters are remembered for the
// round result. A loose ends the round.
func (r *Room) Relay(p Peer, msg game.Message) error {
	if !game.RelayedEvents[msg.Event] {
		return ErrNotRelayed
	}
	value, err := msg.Value()
	if err != nil {
		return err
	}

	r.mu.Lock()
	i := r.seatOf(p)
	if i < 0 {
		r.mu.Unlock()
		return ErrNotSeated
	}
	me := r.seats[i]
	var counter *int
	switch msg.Event {
	case game.EvtScore:
		counter = &me.score
	case game.EvtRows:
		counter = &me.rows
	case game.EvtGnus:
		counter = &me.gnus
	}
	if counter != nil {
		if err := msg.Decode(counter); err != nil {
			r.log.Debugf("room %s: %s from %s: %v", r.ID, msg.Event, me.name, err)
		}
	}
	op := r.opponent(i)
	if op != nil {
		op.peer.Send(game.OpponentPrefix+msg.Event, value)
	}

	var result *RoundResult
	if msg.Event == game.EvtLoose && r.playing {
		r.playing = false
		result = &RoundResult{RoomID: r.ID, Duration: time.Since(r.startedAt)}
		result.Seats = append(result.Seats, me.result(false))
		if op != nil {
			result.Seats = append(result.Seats, op.result(true))
		}
	}
	authID := me.authID
	r.mu.Unlock()

	switch {
	case result != nil:
		r.log.Infof("room %s: %s lost after %s", r.ID, me.name, result.Duration.Round(time.Second))
		if r.hooks.RoundEnded != nil {
			r.hooks.RoundEnded(*result)
		}
	case msg.Event == game.EvtFishtris:
		if id, ok := value.(string); ok && r.hooks.PowerUp != nil {
			r.hooks.PowerUp(r.ID, authID, id)
		}
	}
	return nil
}

func (r *Room) players() int {
	n := 0
	for _, s := range r.seats {
		if s != nil {
			n++
		}
	}
	return n
}

// Players returns the number of taken seats
func (r *Room) Players() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.players()
}

// Playing reports whether a round is running
func (r *Room) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

// Info summarizes the room for listings
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{ID: r.ID, Host: r.host, Players: r.players(), Playing: r.playing}
}

func (r *Room) idle(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.players() == 0 && !r.emptySince.IsZero() && now.Sub(r.emptySince) >= RoomIdleTimeout
}

// RoomManager handles creation and lookup of rooms
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	hooks RoomHooks
	log   *zap.SugaredLogger
}

// NewRoomManager creates a new RoomManager
func NewRoomManager(hooks RoomHooks, log *zap.SugaredLogger) *RoomManager {
	return &RoomManager{
		rooms: make(map[string]*Room),
		hooks: hooks,
		log:   log,
	}
}

// CreateRoom opens a room named after its host
func (rm *RoomManager) CreateRoom(host string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if len(rm.rooms) >= maxRooms {
		return nil, ErrTooManyRooms
	}
	room := NewRoom(GenerateUUID(), host, rm.hooks, rm.log)
	rm.rooms[room.ID] = room
	return room, nil
}

// GetRoom returns a room by ID, or nil
func (rm *RoomManager) GetRoom(id string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[id]
}

// Leave removes p from a room and drops the room once it is empty
func (rm *RoomManager) Leave(roomID string, p Peer) {
	room := rm.GetRoom(roomID)
	if room == nil {
		return
	}
	if room.Leave(p) {
		rm.mu.Lock()
		delete(rm.rooms, roomID)
		rm.mu.Unlock()
	}
}

// Sweep removes rooms that have been empty for RoomIdleTimeout
func (rm *RoomManager) Sweep(now time.Time) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	n := 0
	for id, room := range rm.rooms {
		if room.idle(now) {
			delete(rm.rooms, id)
			n++
		}
	}
	return n
}

// ListRooms returns info about rooms. With openOnly set, full rooms are left out.
func (rm *RoomManager) ListRooms(openOnly bool) []RoomInfo {
	rm.mu.RLock()
	list := make([]RoomInfo, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		info := room.Info()
		if openOnly && info.Players >= seatsPerRoom {
			continue
		}
		list = append(list, info)
	}
	rm.mu.RUnlock()

	slices.SortFunc(list, func(a, b RoomInfo) int {
		return strings.Compare(a.ID, b.ID)
	})
	return list
}

// Count returns the number of rooms
func (rm *RoomManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}
