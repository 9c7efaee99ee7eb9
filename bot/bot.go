package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tabacha/fishtris/game"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	frameRate    = 60
	restartDelay = 3 * time.Second
)

// Relay control messages the bot speaks.
const (
	msgCreate   = "create"
	msgCreated  = "created"
	msgJoin     = "join"
	msgJoined   = "joined"
	msgOpJoined = "op_joined"
	msgError    = "error"
)

type createMsg struct {
	Name string `json:"name" msgpack:"name"`
}

type createdMsg struct {
	Room string `json:"room" msgpack:"room"`
}

type joinMsg struct {
	Room string `json:"room" msgpack:"room"`
	Name string `json:"name" msgpack:"name"`
	Bin  bool   `json:"bin" msgpack:"bin"`
}

type joinedMsg struct {
	Room     string `json:"room" msgpack:"room"`
	Seat     int    `json:"seat" msgpack:"seat"`
	Opponent string `json:"opponent" msgpack:"opponent"`
}

type errorMsg struct {
	Msg string `json:"msg" msgpack:"msg"`
}

// Options configure one bot.
type Options struct {
	URL       string
	Room      string // empty creates a new room
	Name      string
	Binary    bool
	AutoStart bool
}

// Bot plays one seat. Everything but the socket pumps runs on the game
// goroutine.
type Bot struct {
	opts    Options
	engine  *game.Engine
	sync    *game.Sync
	out     game.Transport
	planner *Planner
	log     *zap.SugaredLogger

	room      string
	paired    bool
	playing   bool
	lastSpawn int
	nextStart time.Time
}

func NewBot(opts Options, cfg game.Config, out game.Transport, logger *zap.Logger) *Bot {
	engine := game.NewEngine(cfg, uint64(time.Now().UnixNano()), logger.Named("engine"))
	return &Bot{
		opts:    opts,
		engine:  engine,
		sync:    game.NewSync(engine, out, logger.Named("sync")),
		out:     out,
		planner: NewPlanner(DefaultWeights),
		log:     logger.Sugar(),
	}
}

// Run dials the relay and plays until ctx ends or the link fails.
func Run(ctx context.Context, opts Options, cfg game.Config, logger *zap.Logger) error {
	codec := game.JSONCodec
	if opts.Binary {
		codec = game.MsgpackCodec
	}
	conn, err := Dial(ctx, opts.URL, codec, logger.Sugar())
	if err != nil {
		return err
	}
	bot := NewBot(opts, cfg, conn, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return conn.ReadLoop(ctx) })
	g.Go(func() error { return conn.WriteLoop(ctx) })
	g.Go(func() error { return bot.loop(ctx, conn.Inbox()) })
	return g.Wait()
}

func (b *Bot) loop(ctx context.Context, inbox <-chan game.Message) error {
	if err := b.enter(); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			b.step(now, now.Sub(last))
			last = now
		case msg, ok := <-inbox:
			if !ok {
				return fmt.Errorf("connection closed")
			}
			if err := b.handle(msg); err != nil {
				return err
			}
		}
		if err := b.sync.Flush(); err != nil {
			b.log.Warnf("flush: %v", err)
		}
	}
}

// enter creates a room or joins the configured one.
func (b *Bot) enter() error {
	if b.opts.Room == "" {
		return b.out.Send(msgCreate, createMsg{Name: b.opts.Name})
	}
	return b.join(b.opts.Room)
}

func (b *Bot) join(room string) error {
	return b.out.Send(msgJoin, joinMsg{Room: room, Name: b.opts.Name, Bin: b.opts.Binary})
}

// step advances one frame: gravity, then planning for a fresh piece, then
// a restart request when idle.
func (b *Bot) step(now time.Time, dt time.Duration) {
	b.engine.Tick(dt)

	if b.playing && !b.engine.Playing() {
		s := b.engine.Session()
		b.log.Infof("round over: score %d, rows %d", s.Score, s.Rows)
		b.nextStart = now.Add(restartDelay)
		b.lastSpawn = 0
	}
	b.playing = b.engine.Playing()

	if b.playing && b.engine.Spawns() != b.lastSpawn {
		b.lastSpawn = b.engine.Spawns()
		b.think()
	}

	if !b.engine.Playing() && b.opts.AutoStart && b.paired && now.After(b.nextStart) {
		if b.engine.RequestStart() {
			b.log.Infof("requesting a round in %s", b.room)
		}
		b.nextStart = now.Add(restartDelay)
	}
}

// think plans the current piece and spends gnus.
func (b *Bot) think() {
	s := b.engine.Session()
	plan, ok := b.planner.Best(s.Board, s.Current)
	if !ok {
		b.engine.Enqueue(game.ActionDrop)
		return
	}
	for _, a := range Actions(s.Current, plan) {
		if !b.engine.Enqueue(a) {
			break
		}
	}
	if id, ok := ChoosePowerUp(s.Gnus, s.Board); ok {
		if err := b.engine.Activate(id); err != nil {
			b.log.Debugf("power-up %s: %v", id, err)
		}
	}
}

// handle applies control messages itself and passes game traffic to Sync.
func (b *Bot) handle(msg game.Message) error {
	switch msg.Event {
	case msgCreated:
		var m createdMsg
		if err := msg.Decode(&m); err != nil {
			return fmt.Errorf("created: %w", err)
		}
		b.log.Infof("created room %s", m.Room)
		return b.join(m.Room)

	case msgJoined:
		var m joinedMsg
		if err := msg.Decode(&m); err != nil {
			return fmt.Errorf("joined: %w", err)
		}
		b.room = m.Room
		b.paired = m.Opponent != ""
		b.log.Infof("seat %d in room %s, opponent %q", m.Seat, m.Room, m.Opponent)

	case msgOpJoined:
		b.paired = true
		b.nextStart = time.Time{}
		b.log.Infof("opponent joined room %s", b.room)

	case msgError:
		var m errorMsg
		if err := msg.Decode(&m); err != nil {
			b.log.Debugf("error: %v", err)
		}
		if b.room == "" {
			return fmt.Errorf("relay refused: %s", m.Msg)
		}
		b.log.Warnf("relay error: %s", m.Msg)

	case game.EvtOpLoose:
		b.relayed(msg)
		if b.engine.Playing() {
			b.log.Infof("opponent lost, score %d", b.engine.Session().Score)
			b.engine.Close()
		}

	case game.EvtOpLeft:
		b.relayed(msg)
		b.paired = false
		b.log.Info("opponent left")

	default:
		b.relayed(msg)
	}
	return nil
}

func (b *Bot) relayed(msg game.Message) {
	if err := b.sync.Handle(msg); err != nil {
		b.log.Debugf("%s: %v", msg.Event, err)
	}
}
