package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PlayerRow represents a player record in the database
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow represents lifetime player stats
type StatsRow struct {
	PlayerID   int64
	Rounds     int
	Wins       int
	Losses     int
	BestScore  int
	TotalScore int
	TotalRows  int
	Playtime   float64 // seconds
}

// MatchPlayerRow represents a player's side of a recorded round
type MatchPlayerRow struct {
	MatchID  int64     `json:"match_id"`
	PlayerID int64     `json:"-"`
	Seat     int       `json:"seat"`
	Score    int       `json:"score"`
	Rows     int       `json:"rows"`
	Gnus     int       `json:"gnus"`
	Won      bool      `json:"won"`
	PlayedAt time.Time `json:"played_at"`
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Username  string `json:"username"`
	Rounds    int    `json:"rounds"`
	Wins      int    `json:"wins"`
	Losses    int    `json:"losses"`
	BestScore int    `json:"best_score"`
	TotalRows int    `json:"total_rows"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under WAL.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stats (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		rounds INTEGER NOT NULL DEFAULT 0,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		best_score INTEGER NOT NULL DEFAULT 0,
		total_score INTEGER NOT NULL DEFAULT 0,
		total_rows INTEGER NOT NULL DEFAULT 0,
		playtime REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS match_players (
		match_id INTEGER NOT NULL REFERENCES matches(id),
		player_id INTEGER NOT NULL REFERENCES players(id),
		seat INTEGER NOT NULL DEFAULT 0,
		score INTEGER NOT NULL DEFAULT 0,
		rows_cleared INTEGER NOT NULL DEFAULT 0,
		gnus INTEGER NOT NULL DEFAULT 0,
		won INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (match_id, player_id)
	);

	CREATE TABLE IF NOT EXISTS achievements (
		player_id INTEGER NOT NULL REFERENCES players(id),
		achievement TEXT NOT NULL,
		unlocked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (player_id, achievement)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id INTEGER,
		room_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_match_players_player ON match_players(player_id);
	CREATE INDEX IF NOT EXISTS idx_analytics_type_time ON analytics_events(event_type, created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// GetSetting returns a stored setting, or "" if it is missing
func (db *DB) GetSetting(key string) string {
	var v string
	if err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v); err != nil {
		return ""
	}
	return v
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// CreatePlayer creates a new player account (returns player ID)
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO players (username, pass_hash) VALUES (?, ?)", username, passHash)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec("INSERT INTO stats (player_id) VALUES (?)", id); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// GetPlayerByUsername returns a player by username, or nil
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE username = ?",
		username,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetStats returns player stats, or nil
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	row := db.conn.QueryRow(
		`SELECT player_id, rounds, wins, losses, best_score, total_score, total_rows, playtime
		 FROM stats WHERE player_id = ?`,
		playerID,
	)
	s := &StatsRow{}
	err := row.Scan(&s.PlayerID, &s.Rounds, &s.Wins, &s.Losses, &s.BestScore, &s.TotalScore, &s.TotalRows, &s.Playtime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// RecordRound stores a finished round and folds it into the stats of every
// authenticated seat. Guests are not recorded; a round without any
// authenticated seat is skipped and returns 0.
func (db *DB) RecordRound(r RoundResult) (int64, error) {
	authed := false
	for _, s := range r.Seats {
		if s.AuthID > 0 {
			authed = true
		}
	}
	if !authed {
		return 0, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	secs := r.Duration.Seconds()
	res, err := tx.Exec("INSERT INTO matches (room_id, duration) VALUES (?, ?)", r.RoomID, secs)
	if err != nil {
		return 0, err
	}
	matchID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, s := range r.Seats {
		if s.AuthID <= 0 {
			continue
		}
		win, loss := 0, 1
		if s.Won {
			win, loss = 1, 0
		}
		if _, err := tx.Exec(
			`INSERT INTO match_players (match_id, player_id, seat, score, rows_cleared, gnus, won)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			matchID, s.AuthID, i, s.Score, s.Rows, s.Gnus, win,
		); err != nil {
			return 0, fmt.Errorf("match player %d: %w", s.AuthID, err)
		}
		if _, err := tx.Exec(`
			UPDATE stats SET
				rounds = rounds + 1,
				wins = wins + ?,
				losses = losses + ?,
				best_score = MAX(best_score, ?),
				total_score = total_score + ?,
				total_rows = total_rows + ?,
				playtime = playtime + ?
			WHERE player_id = ?`,
			win, loss, s.Score, s.Score, s.Rows, secs, s.AuthID,
		); err != nil {
			return 0, fmt.Errorf("stats %d: %w", s.AuthID, err)
		}
	}
	return matchID, tx.Commit()
}

// leaderboardCols whitelists the leaderboard orderings
var leaderboardCols = map[string]string{
	"wins":  "s.wins",
	"score": "s.best_score",
	"rows":  "s.total_rows",
}

// GetLeaderboard returns top players sorted by wins, score or rows
func (db *DB) GetLeaderboard(orderBy string, limit int) ([]LeaderboardEntry, error) {
	col, ok := leaderboardCols[orderBy]
	if !ok {
		col = leaderboardCols["wins"]
	}

	query := `SELECT p.username, s.rounds, s.wins, s.losses, s.best_score, s.total_rows
		FROM stats s JOIN players p ON p.id = s.player_id
		WHERE s.rounds > 0
		ORDER BY ` + col + ` DESC, p.username ASC LIMIT ?`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []LeaderboardEntry{}
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Rounds, &e.Wins, &e.Losses, &e.BestScore, &e.TotalRows); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetMatchHistory returns recent rounds for a player, newest first
func (db *DB) GetMatchHistory(playerID int64, limit int) ([]MatchPlayerRow, error) {
	rows, err := db.conn.Query(`
		SELECT mp.match_id, mp.player_id, mp.seat, mp.score, mp.rows_cleared, mp.gnus, mp.won, m.created_at
		FROM match_players mp
		JOIN matches m ON m.id = mp.match_id
		WHERE mp.player_id = ?
		ORDER BY m.id DESC
		LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchPlayerRow
	for rows.Next() {
		var r MatchPlayerRow
		if err := rows.Scan(&r.MatchID, &r.PlayerID, &r.Seat, &r.Score, &r.Rows, &r.Gnus, &r.Won, &r.PlayedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetAchievements returns the IDs a player has unlocked, oldest first
func (db *DB) GetAchievements(playerID int64) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT achievement FROM achievements WHERE player_id = ? ORDER BY unlocked_at, achievement", playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnlockAchievement records an achievement. It reports false when the
// player already had it.
func (db *DB) UnlockAchievement(playerID int64, id string) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT OR IGNORE INTO achievements (player_id, achievement) VALUES (?, ?)", playerID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
