package game

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// State is the engine's round state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateGameOver:
		return "game_over"
	}
	return "unknown"
}

var (
	ErrNotPlaying       = errors.New("game: round not in progress")
	ErrUnknownPowerUp   = errors.New("game: unknown power-up")
	ErrInsufficientGnus = errors.New("game: not enough gnus")
)

// GnusForRows is the currency awarded for clearing n rows with one lock.
func GnusForRows(n int) int {
	if n <= 0 {
		return 0
	}
	return n + (n-1)*3
}

// Engine runs one player's simulation. It is single-threaded: Tick, Enqueue,
// Activate and the rest must be called from one goroutine. Every externally
// visible change is appended to the Outbox.
type Engine struct {
	cfg     Config
	state   State
	session *Session
	outbox  Outbox
	coin    Coin
	spawns  int
	log     *zap.Logger
}

// NewEngine creates an idle engine. The seed only matters until the first
// round seed arrives.
func NewEngine(cfg Config, seed uint64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		state:   StateIdle,
		session: NewSession(cfg, seed),
		coin:    FairCoin,
		log:     logger,
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// State returns the current round state.
func (e *Engine) State() State { return e.state }

// Playing reports whether a round is in progress.
func (e *Engine) Playing() bool { return e.state == StatePlaying }

// Session exposes the session for read-only consumers such as a renderer.
func (e *Engine) Session() *Session { return e.session }

// Outbox returns the outbound event log.
func (e *Engine) Outbox() *Outbox { return &e.outbox }

// Spawns returns how many pieces have spawned in the current round.
func (e *Engine) Spawns() int { return e.spawns }

// SetCoin replaces the drill's coin source.
func (e *Engine) SetCoin(c Coin) { e.coin = c }

// Seed applies a round seed: the bag restarts and a new upcoming shape is drawn.
func (e *Engine) Seed(seed uint64) {
	e.session.Reseed(seed)
	e.log.Debug("round seed", zap.Uint64("seed", seed), zap.String("next", e.session.Next.ID))
	e.outbox.emit(EvtNext, e.session.Next.ID)
}

// RequestStart asks the other side to begin a round. It does nothing while
// a round is running.
func (e *Engine) RequestStart() bool {
	if e.state == StatePlaying {
		return false
	}
	e.outbox.emit(EvtStart, 1)
	return true
}

// Start begins a new round from a clean session.
func (e *Engine) Start() {
	e.session.Reset()
	e.spawns = 1
	e.state = StatePlaying
	e.outbox.emit(EvtRows, 0)
	e.outbox.emit(EvtGnus, 0)
	e.outbox.emit(EvtScore, 0)
	e.outbox.emit(EvtNext, e.session.Next.ID)
	e.log.Info("round started", zap.String("current", e.session.Current.Shape.ID))
}

// Forfeit ends the running round.
func (e *Engine) Forfeit() {
	if e.state == StatePlaying {
		e.lose()
	}
}

// Close drops the round state when the opponent or transport goes away.
func (e *Engine) Close() {
	e.state = StateIdle
	e.spawns = 0
	e.session.clear()
}

// Enqueue queues a player action. It returns false when no round is running
// or the queue is full.
func (e *Engine) Enqueue(a PlayerAction) bool {
	if e.state != StatePlaying {
		return false
	}
	if !e.session.pushAction(a, e.cfg.MaxPendingActions) {
		e.log.Debug("action dropped, queue full", zap.Stringer("action", a))
		return false
	}
	return true
}

func (e *Engine) interval() float64 {
	sp := e.cfg.Speed
	step := sp.Start - sp.Decrement*float64(e.session.Rows+e.session.SpeedBias)
	if step < sp.Min {
		return sp.Min
	}
	return step
}

// DropInterval is the current gravity period.
func (e *Engine) DropInterval() time.Duration {
	return time.Duration(e.interval() * float64(time.Second))
}

// Tick advances the simulation by dt, which is clamped to MaxFrameDelta.
func (e *Engine) Tick(dt time.Duration) {
	if e.state != StatePlaying {
		return
	}
	if dt < 0 {
		dt = 0
	}
	if dt > e.cfg.MaxFrameDelta {
		dt = e.cfg.MaxFrameDelta
	}
	s := e.session
	if s.DisplayScore < s.Score {
		s.DisplayScore++
	}
	if a, ok := s.popAction(); ok {
		e.handle(a)
		if e.state != StatePlaying {
			return
		}
	}
	s.Elapsed += dt.Seconds()
	if step := e.interval(); s.Elapsed > step {
		s.Elapsed -= step
		e.drop(false)
	}
}

func (e *Engine) handle(a PlayerAction) {
	switch a {
	case ActionLeft:
		e.move(-1, 0, false)
	case ActionRight:
		e.move(1, 0, false)
	case ActionRotate:
		e.rotate()
	case ActionDrop:
		e.drop(true)
	}
}

// move announces the pre-move position, then translates the current piece if
// the destination is free. A hard move keeps falling to the last free row.
func (e *Engine) move(dx, dy int, hard bool) bool {
	s := e.session
	e.outbox.emit(EvtCur, s.Current.Placement())
	next := s.Current.Moved(dx, dy)
	if !s.Board.Fits(next) {
		return false
	}
	if hard {
		for {
			below := next.Moved(0, 1)
			if !s.Board.Fits(below) {
				break
			}
			next = below
		}
		step := e.interval()
		s.Elapsed = max(s.Elapsed-step, -step)
	}
	s.Current = next
	s.Board.Invalidate()
	return true
}

func (e *Engine) rotate() {
	s := e.session
	next := s.Current.Rotated()
	if s.Board.Fits(next) {
		s.Current = next
		s.Board.Invalidate()
	}
}

func (e *Engine) drop(hard bool) {
	if !e.move(0, 1, hard) {
		e.lock()
	}
}

func (e *Engine) lock() {
	s := e.session
	e.outbox.emit(EvtDown, s.Current.Placement())
	s.Board.DropPiece(s.Current)
	n := s.Board.RemoveCompletedRows()
	if n > 0 {
		e.addRows(n)
		e.addGnus(GnusForRows(n))
		e.log.Debug("rows cleared", zap.Int("rows", n), zap.Int("total", s.Rows))
	}
	e.addScore(1)

	if shape, ok := s.popInjected(); ok {
		s.Current = SpawnPiece(shape, s.Board.Width())
	} else {
		s.Current = SpawnPiece(s.Next, s.Board.Width())
		s.Next = s.bag.Draw()
		e.outbox.emit(EvtNext, s.Next.ID)
	}
	e.spawns++
	s.actions = s.actions[:0]
	s.Board.Invalidate()

	if !s.Board.Fits(s.Current) {
		e.lose()
	}
}

func (e *Engine) lose() {
	s := e.session
	e.state = StateGameOver
	s.DisplayScore = s.Score
	e.outbox.emit(EvtLoose, true)
	e.log.Info("round lost", zap.Int("score", s.Score), zap.Int("rows", s.Rows))
}

func (e *Engine) addScore(n int) {
	e.session.Score += n
	e.outbox.emit(EvtScore, e.session.Score)
}

func (e *Engine) addRows(n int) {
	e.session.Rows += n
	e.outbox.emit(EvtRows, e.session.Rows)
}

func (e *Engine) addGnus(n int) {
	e.session.Gnus += n
	e.outbox.emit(EvtGnus, e.session.Gnus)
}

// Activate spends gnus on a power-up: the activation is announced, exactly
// its cost is deducted and its self-targeted local effect runs. The caller
// is expected to apply any mirror-targeted local effect.
func (e *Engine) Activate(id string) error {
	p, ok := PowerUpByID(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPowerUp, id)
	}
	if e.state != StatePlaying {
		return ErrNotPlaying
	}
	if e.session.Gnus < p.Cost {
		return fmt.Errorf("%w: %s costs %d, have %d", ErrInsufficientGnus, p.ID, p.Cost, e.session.Gnus)
	}
	e.outbox.emit(EvtFishtris, p.ID)
	e.addGnus(-p.Cost)
	if p.Local.Target == TargetSelf {
		e.applyEffect(p.Local.Effect)
	}
	e.log.Info("power-up activated", zap.String("id", p.ID), zap.Int("gnus", e.session.Gnus))
	return nil
}

// ApplyRemote runs the self-targeted remote effect of a power-up the
// opponent activated.
func (e *Engine) ApplyRemote(id string) error {
	p, ok := PowerUpByID(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPowerUp, id)
	}
	if e.state != StatePlaying {
		return ErrNotPlaying
	}
	if p.Remote.Target == TargetSelf {
		e.applyEffect(p.Remote.Effect)
	}
	e.log.Info("power-up received", zap.String("id", p.ID))
	return nil
}

func (e *Engine) applyEffect(effect Effect) {
	if effect == EffectNone {
		return
	}
	s := e.session
	for _, c := range effect.Apply(s, e.coin) {
		e.outbox.emit(EvtBohrer, c)
	}
	s.Board.Invalidate()
	e.settle(effect.RowsRemoved())
}

// settle keeps the current piece on free cells after a power-up removed
// shift rows from the bottom of the court. A piece that still fits stays
// where it is. Otherwise it moves down with the stack, which keeps it clear
// of everything that shifted around it. A piece that fits neither way is
// trapped and the round is lost.
func (e *Engine) settle(shift int) {
	s := e.session
	if s.Board.Fits(s.Current) {
		return
	}
	if p := s.Current.Moved(0, shift); shift > 0 && s.Board.Fits(p) {
		s.Current = p
		return
	}
	e.log.Debug("piece trapped by power-up", zap.Int("y", s.Current.Y), zap.Int("shift", shift))
	e.lose()
}
