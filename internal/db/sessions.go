package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one period during which the receiver was listening.
type Session struct {
	ID            string     `json:"session_id"`
	Source        string     `json:"source"`
	ListenAddr    string     `json:"listen_addr"`
	DataPort      int        `json:"data_port"`
	DiscoveryPort int        `json:"discovery_port"`
	StartedAt     time.Time  `json:"started_at"`
	StoppedAt     *time.Time `json:"stopped_at,omitempty"`
}

// StartSession inserts a new session with a fresh id. Source names where
// readings come from: "udp", "serial" or "pcap".
func (db *DB) StartSession(s Session) (*Session, error) {
	s.ID = uuid.NewString()
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	s.StoppedAt = nil
	_, err := db.Exec(`INSERT INTO receiver_sessions
		(session_id, source, listen_addr, data_port, discovery_port, started_unix)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.Source, s.ListenAddr, s.DataPort, s.DiscoveryPort, toUnix(s.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return &s, nil
}

// EndSession records when a session stopped.
func (db *DB) EndSession(id string, at time.Time) error {
	res, err := db.Exec(`UPDATE receiver_sessions SET stopped_unix = ? WHERE session_id = ?`, toUnix(at), id)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// GetSession loads one session.
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.QueryRow(`SELECT session_id, source, listen_addr, data_port, discovery_port, started_unix, stopped_unix
		FROM receiver_sessions WHERE session_id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, err
}

// Sessions returns the most recent sessions first.
func (db *DB) Sessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`SELECT session_id, source, listen_addr, data_port, discovery_port, started_unix, stopped_unix
		FROM receiver_sessions ORDER BY started_unix DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		s       Session
		started float64
		stopped sql.NullFloat64
	)
	if err := row.Scan(&s.ID, &s.Source, &s.ListenAddr, &s.DataPort, &s.DiscoveryPort, &started, &stopped); err != nil {
		return nil, err
	}
	s.StartedAt = fromUnix(started)
	if stopped.Valid {
		t := fromUnix(stopped.Float64)
		s.StoppedAt = &t
	}
	return &s, nil
}
