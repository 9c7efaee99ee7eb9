package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
	"github.com/tabacha/fishtris/game"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 256
	dialAttempts   = 6
	dialBaseDelay  = 500 * time.Millisecond
	dialMaxDelay   = 8 * time.Second
)

var ErrSendBufferFull = errors.New("send buffer full")

type frame struct {
	binary bool
	data   []byte
}

// Conn is the bot's websocket link. It implements game.Transport.
type Conn struct {
	ws    *websocket.Conn
	codec game.Codec
	send  chan frame
	inbox chan game.Message
	log   *zap.SugaredLogger
}

// Dial connects to url, retrying with exponential backoff.
func Dial(ctx context.Context, url string, codec game.Codec, log *zap.SugaredLogger) (*Conn, error) {
	backoff := retry.WithMaxRetries(dialAttempts, retry.WithCappedDuration(dialMaxDelay, retry.NewExponential(dialBaseDelay)))

	var ws *websocket.Conn
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			log.Warnf("dial %s: %v", url, err)
			return retry.RetryableError(err)
		}
		ws = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	log.Infof("connected to %s", url)
	return &Conn{
		ws:    ws,
		codec: codec,
		send:  make(chan frame, sendBufferSize),
		inbox: make(chan game.Message, sendBufferSize),
		log:   log,
	}, nil
}

// Send encodes an event in the connection's codec and queues it.
func (c *Conn) Send(event string, data interface{}) error {
	raw, err := c.codec.Encode(event, data)
	if err != nil {
		return err
	}
	select {
	case c.send <- frame{binary: c.codec.Binary(), data: raw}:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Inbox delivers decoded inbound messages.
func (c *Conn) Inbox() <-chan game.Message { return c.inbox }

// ReadLoop decodes frames until the socket fails or ctx ends.
func (c *Conn) ReadLoop(ctx context.Context) error {
	defer close(c.inbox)
	for {
		kind, raw, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		codec := game.JSONCodec
		if kind == websocket.BinaryMessage {
			codec = game.MsgpackCodec
		}
		msg, err := codec.Decode(raw)
		if err != nil {
			c.log.Debugf("undecodable frame: %v", err)
			continue
		}
		select {
		case c.inbox <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WriteLoop writes queued frames. On shutdown it says goodbye and closes
// the socket, which also ends ReadLoop.
func (c *Conn) WriteLoop(ctx context.Context) error {
	defer c.ws.Close()
	for {
		select {
		case f := <-c.send:
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(kind, f.data); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		case <-ctx.Done():
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return ctx.Err()
		}
	}
}
