package main

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tabacha/fishtris/game"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120
	maxNameLen        = 16
	defaultName       = "Fisch"
)

// frame is one outbound websocket message
type frame struct {
	binary bool
	data   []byte
}

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan frame
	remoteAddr string
	msgCount   int
	msgResetAt time.Time

	// guarded by mu; read by the opponent's goroutine when relaying
	mu           sync.Mutex
	codec        game.Codec
	roomID       string
	authPlayerID int64  // 0 = guest
	authUsername string // "" = guest
}

// NewClient creates a new Client speaking JSON until it joins with bin set
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan frame, sendBufSize),
		remoteAddr: remoteAddr,
		codec:      game.JSONCodec,
	}
}

// RoomID returns the room the client is seated in, or ""
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// AuthID returns the authenticated player ID, or 0
func (c *Client) AuthID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authPlayerID
}

func (c *Client) setRoom(id string, codec game.Codec) {
	c.mu.Lock()
	c.roomID = id
	if codec != nil {
		c.codec = codec
	}
	c.mu.Unlock()
}

func (c *Client) setAuth(id int64, username string) {
	c.mu.Lock()
	c.authPlayerID = id
	c.authUsername = username
	c.mu.Unlock()
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warnf("ws error from %s: %v", c.remoteAddr, err)
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.hub.log.Warnf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		codec := game.JSONCodec
		if msgType == websocket.BinaryMessage {
			codec = game.MsgpackCodec
		}
		msg, err := codec.Decode(raw)
		if err != nil {
			c.hub.log.Debugf("bad frame from %s: %v", c.remoteAddr, err)
			continue
		}
		c.handleMessage(msg)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(kind, f.data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send encodes an event in the client's codec and queues it. Slow clients
// lose messages rather than stall the sender.
func (c *Client) Send(event string, data interface{}) {
	c.mu.Lock()
	codec := c.codec
	c.mu.Unlock()

	raw, err := codec.Encode(event, data)
	if err != nil {
		c.hub.log.Errorf("encode %s: %v", event, err)
		return
	}
	defer func() { recover() }() // send on closed channel after unregister
	select {
	case c.send <- frame{binary: codec.Binary(), data: raw}:
	default:
	}
}

func (c *Client) sendError(err error) {
	c.Send(MsgError, ErrorMsg{Msg: err.Error()})
}

// handleMessage routes control messages and relays game events
func (c *Client) handleMessage(msg game.Message) {
	switch msg.Event {
	case MsgList:
		c.Send(MsgRooms, c.hub.rooms.ListRooms(true))
	case MsgCreate:
		c.handleCreate(msg)
	case MsgJoin:
		c.handleJoin(msg)
	case MsgCheck:
		c.handleCheck(msg)
	case MsgLeave:
		c.handleLeave()
	case MsgStart:
		c.handleStart()
	case MsgRegister:
		c.handleRegister(msg)
	case MsgLogin:
		c.handleLogin(msg)
	case MsgAuth:
		c.handleAuth(msg)
	case MsgProfile:
		c.handleProfile()
	default:
		if game.RelayedEvents[msg.Event] {
			c.handleRelay(msg)
			return
		}
		c.hub.log.Debugf("unknown message %q from %s", msg.Event, c.remoteAddr)
	}
}

func (c *Client) handleCreate(msg game.Message) {
	var req CreateMsg
	if err := msg.Decode(&req); err != nil {
		c.hub.log.Debugf("create from %s: %v", c.remoteAddr, err)
	}
	room, err := c.hub.rooms.CreateRoom(CleanName(req.Name, defaultName, maxNameLen))
	if err != nil {
		c.sendError(err)
		return
	}
	c.Send(MsgCreated, CreatedMsg{Room: room.ID})
}

func (c *Client) handleJoin(msg game.Message) {
	var req JoinMsg
	if err := msg.Decode(&req); err != nil {
		c.sendError(errors.New("malformed join"))
		return
	}
	room := c.hub.rooms.GetRoom(req.Room)
	if room == nil {
		c.sendError(ErrRoomNotFound)
		return
	}
	switch current := c.RoomID(); current {
	case "":
	case room.ID:
		c.sendError(ErrAlreadySeated)
		return
	default:
		c.handleLeave()
	}

	c.mu.Lock()
	authID, username := c.authPlayerID, c.authUsername
	c.mu.Unlock()
	name := username
	if name == "" {
		name = CleanName(req.Name, defaultName, maxNameLen)
	}

	codec := game.JSONCodec
	if req.Bin {
		codec = game.MsgpackCodec
	}
	// Relayed events can arrive as soon as the seat is taken.
	c.setRoom(room.ID, codec)
	seat, opponent, err := room.Join(c, name, authID)
	if err != nil {
		c.setRoom("", nil)
		c.sendError(err)
		return
	}
	c.Send(MsgJoined, JoinedMsg{Room: room.ID, Seat: seat, Opponent: opponent})
}

func (c *Client) handleCheck(msg game.Message) {
	var req CheckMsg
	if err := msg.Decode(&req); err != nil {
		return
	}
	room := c.hub.rooms.GetRoom(req.Room)
	if room == nil {
		c.Send(MsgChecked, CheckedMsg{Room: req.Room, Exists: false})
		return
	}
	c.Send(MsgChecked, CheckedMsg{Room: req.Room, Exists: true, Players: room.Players()})
}

func (c *Client) handleLeave() {
	roomID := c.RoomID()
	if roomID == "" {
		return
	}
	c.hub.rooms.Leave(roomID, c)
	c.setRoom("", nil)
}

func (c *Client) handleStart() {
	room := c.hub.rooms.GetRoom(c.RoomID())
	if room == nil {
		c.sendError(ErrNotSeated)
		return
	}
	if err := room.Start(c); err != nil {
		c.sendError(err)
	}
}

func (c *Client) handleRelay(msg game.Message) {
	room := c.hub.rooms.GetRoom(c.RoomID())
	if room == nil {
		return
	}
	if err := room.Relay(c, msg); err != nil {
		c.hub.log.Debugf("relay %s from %s: %v", msg.Event, c.remoteAddr, err)
	}
}

func (c *Client) handleRegister(msg game.Message) {
	if c.hub.auth == nil {
		c.sendError(errors.New("accounts are disabled"))
		return
	}
	var req RegisterMsg
	if err := msg.Decode(&req); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(req.Username, req.Password)
	if err != nil {
		c.sendError(err)
		return
	}
	c.authenticated(id, strings.TrimSpace(req.Username), token)
}

func (c *Client) handleLogin(msg game.Message) {
	if c.hub.auth == nil {
		c.sendError(errors.New("accounts are disabled"))
		return
	}
	var req LoginMsg
	if err := msg.Decode(&req); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(req.Username, req.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err)
		return
	}
	c.authenticated(id, strings.TrimSpace(req.Username), token)
}

func (c *Client) handleAuth(msg game.Message) {
	if c.hub.auth == nil {
		c.sendError(errors.New("accounts are disabled"))
		return
	}
	var req AuthMsg
	if err := msg.Decode(&req); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(req.Token)
	if err != nil {
		c.sendError(ErrInvalidToken)
		return
	}
	c.authenticated(id, username, req.Token)
}

func (c *Client) authenticated(id int64, username, token string) {
	c.setAuth(id, username)
	c.Send(MsgAuthOK, AuthOKMsg{Token: token, Username: username, PlayerID: id})
}

func (c *Client) handleProfile() {
	c.mu.Lock()
	id, username := c.authPlayerID, c.authUsername
	c.mu.Unlock()
	if c.hub.db == nil || id == 0 {
		c.sendError(errors.New("not authenticated"))
		return
	}
	stats, err := c.hub.db.GetStats(id)
	if err != nil || stats == nil {
		c.sendError(errors.New("profile not found"))
		return
	}
	achievements, err := c.hub.db.GetAchievements(id)
	if err != nil {
		c.hub.log.Warnf("achievements for %d: %v", id, err)
	}
	c.Send(MsgProfileData, ProfileDataMsg{
		Username:   username,
		Rounds:     stats.Rounds,
		Wins:       stats.Wins,
		Losses:     stats.Losses,
		BestScore:  stats.BestScore,
		TotalRows:  stats.TotalRows,
		TotalScore: stats.TotalScore,
		Playtime:   stats.Playtime,

		Achievements: achievements,
	})
}
