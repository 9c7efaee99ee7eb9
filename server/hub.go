package main

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
	sweepInterval = 30 * time.Second
)

// Hub manages all connected clients and routes them to rooms
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	rooms      *RoomManager
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
	// Persistence; all three may be nil when running without a database
	db        *DB
	auth      *Auth
	analytics *Analytics
	log       *zap.SugaredLogger
}

// NewHub creates a new Hub. db may be nil, which disables accounts,
// match history and analytics.
func NewHub(db *DB, log *zap.SugaredLogger) (*Hub, error) {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		quit:       make(chan struct{}),
		ipConns:    make(map[string]int),
		db:         db,
		log:        log,
	}
	if db != nil {
		auth, err := NewAuth(db, log)
		if err != nil {
			return nil, err
		}
		h.auth = auth
		h.analytics = NewAnalytics(db, log)
	}
	h.rooms = NewRoomManager(RoomHooks{
		RoundStarted: h.roundStarted,
		RoundEnded:   h.roundEnded,
		PowerUp:      h.powerUp,
	}, log)
	return h, nil
}

func (h *Hub) track(evtType string, playerID int64, roomID string, data interface{}) {
	if h.analytics != nil {
		h.analytics.Track(evtType, playerID, roomID, data)
	}
}

func (h *Hub) roundStarted(roomID string, players []int64) {
	for _, pid := range players {
		h.track(EvtRoundStart, pid, roomID, nil)
	}
}

func (h *Hub) roundEnded(r RoundResult) {
	for _, s := range r.Seats {
		h.track(EvtRoundEnd, s.AuthID, r.RoomID, map[string]interface{}{
			"won":      s.Won,
			"score":    s.Score,
			"rows":     s.Rows,
			"duration": r.Duration.Seconds(),
		})
	}
	if h.db == nil {
		return
	}
	if _, err := h.db.RecordRound(r); err != nil {
		h.log.Errorf("record round in room %s: %v", r.RoomID, err)
		return
	}
	for i, s := range r.Seats {
		for _, a := range CheckAchievements(h.db, r, i) {
			h.log.Infof("%s unlocked %s", s.Name, a.Name)
			h.track(EvtAchievement, s.AuthID, r.RoomID, map[string]string{"id": a.ID})
		}
	}
}

func (h *Hub) powerUp(roomID string, authID int64, id string) {
	h.track(EvtPowerUp, authID, roomID, map[string]string{"id": id})
}

// CanAccept reports whether another connection from ip fits the caps
func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events and sweeps idle rooms until Stop
func (h *Hub) Run() {
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.track(EvtSessionStart, 0, "", map[string]string{"ip": client.remoteAddr})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			if roomID := client.RoomID(); roomID != "" {
				h.rooms.Leave(roomID, client)
			}
			h.track(EvtSessionEnd, client.AuthID(), "", nil)

		case now := <-sweep.C:
			if n := h.rooms.Sweep(now); n > 0 {
				h.log.Infof("swept %d idle rooms", n)
			}

		case <-h.quit:
			return
		}
	}
}

// Stop ends Run and flushes analytics
func (h *Hub) Stop() {
	close(h.quit)
	if h.analytics != nil {
		h.analytics.Stop()
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
