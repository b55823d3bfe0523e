package db

import (
	"database/sql"
	"fmt"
	"time"
)

// AngleSample is one applied reading.
type AngleSample struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Raw        float64   `json:"raw_angle"`
	Processed  float64   `json:"processed_angle"`
	SensorAddr string    `json:"sensor_addr"`
	ReceivedAt time.Time `json:"received_at"`
}

// ConnectionEvent records the sensor being found or lost.
type ConnectionEvent struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Connected  bool      `json:"connected"`
	SensorAddr string    `json:"sensor_addr"`
	At         time.Time `json:"at"`
}

// SessionStats summarises a session.
type SessionStats struct {
	SessionID     string     `json:"session_id"`
	SampleCount   int64      `json:"sample_count"`
	FirstSampleAt *time.Time `json:"first_sample_at,omitempty"`
	LastSampleAt  *time.Time `json:"last_sample_at,omitempty"`
	MinProcessed  float64    `json:"min_processed"`
	MaxProcessed  float64    `json:"max_processed"`
	Connects      int64      `json:"connects"`
	Disconnects   int64      `json:"disconnects"`
}

const insertSample = `INSERT INTO angle_samples
	(session_id, raw_angle, processed_angle, sensor_addr, received_unix)
	VALUES (?, ?, ?, ?, ?)`

// RecordSample stores one reading.
func (db *DB) RecordSample(s AngleSample) error {
	_, err := db.Exec(insertSample, s.SessionID, s.Raw, s.Processed, s.SensorAddr, toUnix(s.ReceivedAt))
	if err != nil {
		return fmt.Errorf("failed to record sample: %w", err)
	}
	return nil
}

// RecordSamples stores a batch of readings in one transaction.
func (db *DB) RecordSamples(samples []AngleSample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertSample)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.Exec(s.SessionID, s.Raw, s.Processed, s.SensorAddr, toUnix(s.ReceivedAt)); err != nil {
			return fmt.Errorf("failed to record sample: %w", err)
		}
	}
	return tx.Commit()
}

// RecordConnectionEvent stores a connect or disconnect.
func (db *DB) RecordConnectionEvent(e ConnectionEvent) error {
	_, err := db.Exec(`INSERT INTO connection_events (session_id, connected, sensor_addr, event_unix)
		VALUES (?, ?, ?, ?)`, e.SessionID, e.Connected, e.SensorAddr, toUnix(e.At))
	if err != nil {
		return fmt.Errorf("failed to record connection event: %w", err)
	}
	return nil
}

// RecentSamples returns up to limit readings, newest first. An empty
// sessionID spans all sessions.
func (db *DB) RecentSamples(sessionID string, limit int) ([]AngleSample, error) {
	if limit <= 0 {
		limit = 500
	}
	var (
		rows *sql.Rows
		err  error
	)
	const cols = `SELECT sample_id, session_id, raw_angle, processed_angle, sensor_addr, received_unix FROM angle_samples`
	if sessionID == "" {
		rows, err = db.Query(cols+` ORDER BY received_unix DESC, sample_id DESC LIMIT ?`, limit)
	} else {
		rows, err = db.Query(cols+` WHERE session_id = ? ORDER BY received_unix DESC, sample_id DESC LIMIT ?`, sessionID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []AngleSample
	for rows.Next() {
		var (
			s        AngleSample
			received float64
		)
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Raw, &s.Processed, &s.SensorAddr, &received); err != nil {
			return nil, err
		}
		s.ReceivedAt = fromUnix(received)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// ConnectionEvents returns a session's events, oldest first.
func (db *DB) ConnectionEvents(sessionID string) ([]ConnectionEvent, error) {
	rows, err := db.Query(`SELECT event_id, session_id, connected, sensor_addr, event_unix
		FROM connection_events WHERE session_id = ? ORDER BY event_unix, event_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ConnectionEvent
	for rows.Next() {
		var (
			e  ConnectionEvent
			at float64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Connected, &e.SensorAddr, &at); err != nil {
			return nil, err
		}
		e.At = fromUnix(at)
		events = append(events, e)
	}
	return events, rows.Err()
}

// SessionStats aggregates the samples and events of one session.
func (db *DB) SessionStats(sessionID string) (*SessionStats, error) {
	if _, err := db.GetSession(sessionID); err != nil {
		return nil, err
	}

	st := &SessionStats{SessionID: sessionID}
	var first, last, minP, maxP sql.NullFloat64
	err := db.QueryRow(`SELECT COUNT(*), MIN(received_unix), MAX(received_unix), MIN(processed_angle), MAX(processed_angle)
		FROM angle_samples WHERE session_id = ?`, sessionID).Scan(&st.SampleCount, &first, &last, &minP, &maxP)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate samples: %w", err)
	}
	if first.Valid {
		t := fromUnix(first.Float64)
		st.FirstSampleAt = &t
	}
	if last.Valid {
		t := fromUnix(last.Float64)
		st.LastSampleAt = &t
	}
	st.MinProcessed = minP.Float64
	st.MaxProcessed = maxP.Float64

	err = db.QueryRow(`SELECT
			COALESCE(SUM(CASE WHEN connected THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN connected THEN 0 ELSE 1 END), 0)
		FROM connection_events WHERE session_id = ?`, sessionID).Scan(&st.Connects, &st.Disconnects)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate connection events: %w", err)
	}
	return st, nil
}
