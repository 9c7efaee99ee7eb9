package game

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrInvalidMessage marks inbound messages that failed validation.
var ErrInvalidMessage = errors.New("game: invalid inbound message")

// Coordinate slack granted to opponent pieces, which may hang over the side
// walls or sit partly above the court while spawning.
const (
	mirrorSlackLeft  = 2
	mirrorSlackRight = 1
)

// Transport delivers outbound events. Delivery is fire-and-forget.
type Transport interface {
	Send(event string, data interface{}) error
}

// Mirror is the display-only copy of the opponent's court.
type Mirror struct {
	Board   *Board
	Current *Piece
	Next    *Shape
	Score   int
	Rows    int
	Gnus    int
	Lost    bool
	Gone    bool
}

// NewMirror creates an empty mirror court.
func NewMirror(cfg Config) *Mirror {
	return &Mirror{Board: NewBoard(cfg.Width, cfg.Height)}
}

// Reset clears the mirror for a new round.
func (m *Mirror) Reset() {
	m.Board.Clear()
	m.Current = nil
	m.Next = nil
	m.Score = 0
	m.Rows = 0
	m.Gnus = 0
	m.Lost = false
}

// Sync moves events between the local engine, the transport and the mirror.
type Sync struct {
	engine    *Engine
	mirror    *Mirror
	transport Transport
	log       *zap.Logger
}

// NewSync wires an engine to a transport.
func NewSync(engine *Engine, transport Transport, logger *zap.Logger) *Sync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sync{
		engine:    engine,
		mirror:    NewMirror(engine.Config()),
		transport: transport,
		log:       logger,
	}
}

// Engine returns the local engine.
func (s *Sync) Engine() *Engine { return s.engine }

// Mirror returns the opponent mirror.
func (s *Sync) Mirror() *Mirror { return s.mirror }

// Tick advances the engine and flushes what it emitted.
func (s *Sync) Tick(dt time.Duration) error {
	s.engine.Tick(dt)
	return s.Flush()
}

// Flush drains the engine's outbox through the transport in emission order.
// Own activations with a mirror-side local effect are applied to the mirror
// here. A failed send does not stop the rest of the batch.
func (s *Sync) Flush() error {
	var errs error
	for _, ev := range s.engine.Outbox().Drain() {
		if ev.Name == EvtFishtris {
			if id, ok := ev.Data.(string); ok {
				if p, ok := PowerUpByID(id); ok && p.Local.Target == TargetMirror {
					p.Local.Effect.ApplyMirror(s.mirror.Board)
				}
			}
		}
		if err := s.transport.Send(ev.Name, ev.Data); err != nil {
			s.log.Warn("send failed", zap.String("event", ev.Name), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("send %s: %w", ev.Name, err))
		}
	}
	return errs
}

// Handle validates an inbound message and applies it. Invalid messages are
// logged and reported with ErrInvalidMessage; they never touch local state.
func (s *Sync) Handle(msg Message) error {
	switch msg.Event {
	case EvtGameReady:
		var seed uint64
		if err := msg.Decode(&seed); err != nil {
			return s.invalid(msg, "seed: %v", err)
		}
		s.engine.Seed(seed)

	case EvtStart:
		v, err := s.decodeInt(msg)
		if err != nil {
			return err
		}
		if v != 1 {
			return s.invalid(msg, "unexpected start value %d", v)
		}
		s.mirror.Reset()
		if !s.engine.Playing() {
			s.engine.Start()
		}

	case EvtOpScore, EvtOpRows, EvtOpGnus:
		v, err := s.decodeInt(msg)
		if err != nil {
			return err
		}
		if v < 0 {
			return s.invalid(msg, "negative counter %d", v)
		}
		switch msg.Event {
		case EvtOpScore:
			s.mirror.Score = v
		case EvtOpRows:
			s.mirror.Rows = v
		default:
			s.mirror.Gnus = v
		}

	case EvtOpDown:
		p, err := s.decodePlacement(msg, s.mirror.Board.Height()-1)
		if err != nil {
			return err
		}
		s.mirror.Board.DropPiece(p)
		s.mirror.Board.RemoveCompletedRows()
		s.mirror.Board.Invalidate()
		s.mirror.Current = nil

	case EvtOpCur:
		p, err := s.decodePlacement(msg, s.mirror.Board.Height()+1)
		if err != nil {
			return err
		}
		s.mirror.Current = &p
		s.mirror.Board.Invalidate()

	case EvtOpNext:
		var id string
		if err := msg.Decode(&id); err != nil {
			return s.invalid(msg, "shape id: %v", err)
		}
		shape := ShapeByID(id)
		if shape == nil {
			return s.invalid(msg, "unknown shape %q", id)
		}
		s.mirror.Next = shape

	case EvtOpBohrer:
		var c Cell
		if err := msg.Decode(&c); err != nil {
			return s.invalid(msg, "cell: %v", err)
		}
		if !s.mirror.Board.InBounds(c.X, c.Y) {
			return s.invalid(msg, "cell (%d,%d) out of range", c.X, c.Y)
		}
		s.mirror.Board.Set(c.X, c.Y, "")

	case EvtOpFishtris:
		var id string
		if err := msg.Decode(&id); err != nil {
			return s.invalid(msg, "power-up id: %v", err)
		}
		p, ok := PowerUpByID(id)
		if !ok {
			return s.invalid(msg, "unknown power-up %q", id)
		}
		switch p.Remote.Target {
		case TargetMirror:
			p.Remote.Effect.ApplyMirror(s.mirror.Board)
		case TargetSelf:
			if err := s.engine.ApplyRemote(p.ID); err != nil {
				s.log.Debug("remote power-up ignored", zap.String("id", p.ID), zap.Error(err))
			}
		}

	case EvtOpLoose:
		s.mirror.Lost = true
		s.mirror.Current = nil

	case EvtOpLeft:
		s.mirror.Gone = true
		s.engine.Close()

	default:
		return s.invalid(msg, "unknown event")
	}
	return nil
}

func (s *Sync) invalid(msg Message, format string, args ...interface{}) error {
	err := fmt.Errorf("%w: %s: %s", ErrInvalidMessage, msg.Event, fmt.Sprintf(format, args...))
	s.log.Warn("dropping inbound message", zap.String("event", msg.Event), zap.Error(err))
	return err
}

func (s *Sync) decodeInt(msg Message) (int, error) {
	var v int
	if err := msg.Decode(&v); err != nil {
		return 0, s.invalid(msg, "integer: %v", err)
	}
	return v, nil
}

// decodePlacement validates an opponent piece: a known shape, x within the
// side slack, y within [0, maxY] and a rotation in 0..3.
func (s *Sync) decodePlacement(msg Message, maxY int) (Piece, error) {
	var pl Placement
	if err := msg.Decode(&pl); err != nil {
		return Piece{}, s.invalid(msg, "placement: %v", err)
	}
	shape := ShapeByID(pl.ID)
	if shape == nil {
		return Piece{}, s.invalid(msg, "unknown shape %q", pl.ID)
	}
	w := s.mirror.Board.Width()
	if pl.X < -mirrorSlackLeft || pl.X > w+mirrorSlackRight {
		return Piece{}, s.invalid(msg, "x %d out of range", pl.X)
	}
	if pl.Y < 0 || pl.Y > maxY {
		return Piece{}, s.invalid(msg, "y %d out of range", pl.Y)
	}
	if pl.Dir < DirUp || pl.Dir > DirLeft {
		return Piece{}, s.invalid(msg, "rotation %d out of range", pl.Dir)
	}
	return Piece{Shape: shape, X: pl.X, Y: pl.Y, Dir: pl.Dir}, nil
}
