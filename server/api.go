package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	statsWindowDays         = 7
	qrSize                  = 256
)

type apiHandler struct {
	hub *Hub
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorMsg{Msg: msg})
}

func (a *apiHandler) health(w http.ResponseWriter, r *http.Request) {
	if a.hub.db != nil {
		if err := a.hub.db.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": a.hub.ClientCount(),
		"rooms":   a.hub.rooms.Count(),
	})
}

func (a *apiHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by == "" {
		by = "wins"
	}
	if _, ok := leaderboardCols[by]; !ok {
		writeError(w, http.StatusBadRequest, "by must be one of wins, score, rows")
		return
	}
	limit := defaultLeaderboardLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}
	if a.hub.db == nil {
		writeJSON(w, http.StatusOK, []LeaderboardEntry{})
		return
	}
	entries, err := a.hub.db.GetLeaderboard(by, limit)
	if err != nil {
		a.hub.log.Errorf("leaderboard: %v", err)
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *apiHandler) rooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.hub.rooms.ListRooms(true))
}

func (a *apiHandler) stats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"clients": a.hub.ClientCount(),
		"rooms":   a.hub.rooms.Count(),
	}
	if a.hub.analytics != nil {
		events, err := a.hub.analytics.EventCounts(statsWindowDays)
		if err != nil {
			a.hub.log.Errorf("stats: %v", err)
			writeError(w, http.StatusInternalServerError, "stats unavailable")
			return
		}
		powerUps, err := a.hub.analytics.PopularPowerUps(statsWindowDays)
		if err != nil {
			a.hub.log.Errorf("stats: %v", err)
			writeError(w, http.StatusInternalServerError, "stats unavailable")
			return
		}
		resp["events"] = events
		resp["powerups"] = powerUps
	}
	writeJSON(w, http.StatusOK, resp)
}

// inviteURL is the link a second player opens to join the room
func inviteURL(r *http.Request, roomID string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/" + roomID
}

func (a *apiHandler) roomQR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if a.hub.rooms.GetRoom(id) == nil {
		writeError(w, http.StatusNotFound, ErrRoomNotFound.Error())
		return
	}
	png, err := qrcode.Encode(inviteURL(r, id), qrcode.Medium, qrSize)
	if err != nil {
		a.hub.log.Errorf("qr for room %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "qr generation failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}
