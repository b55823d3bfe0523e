package db

import (
	"context"
	"time"

	"github.com/banshee-data/angle.receiver/internal/monitoring"
	"github.com/banshee-data/angle.receiver/internal/receiver"
)

// EventSource is the part of the receiver the Recorder listens to.
type EventSource interface {
	SubscribeAngles() (string, <-chan receiver.AngleEvent)
	SubscribeConnection() (string, <-chan receiver.ConnectionEvent)
	Unsubscribe(id string)
}

// Recorder writes receiver events into a session. Angle readings are
// batched; connection changes are written as they happen.
type Recorder struct {
	db            *DB
	sessionID     string
	batchSize     int
	flushInterval time.Duration

	pending []AngleSample
	written int64
}

// NewRecorder creates a recorder for sessionID. Zero batchSize or
// flushInterval pick 100 samples and one second.
func NewRecorder(db *DB, sessionID string, batchSize int, flushInterval time.Duration) *Recorder {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &Recorder{
		db:            db,
		sessionID:     sessionID,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Written returns how many samples have been committed.
func (r *Recorder) Written() int64 { return r.written }

// Run records events from src until ctx is done or both subscriptions are
// closed, then flushes what is left. Events already buffered when ctx is
// cancelled are still written.
func (r *Recorder) Run(ctx context.Context, src EventSource) error {
	angleID, angles := src.SubscribeAngles()
	connID, conns := src.SubscribeConnection()
	defer src.Unsubscribe(angleID)
	defer src.Unsubscribe(connID)

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()
	defer r.flush()

	for angles != nil || conns != nil {
		select {
		case <-ctx.Done():
			r.drain(angles, conns)
			return ctx.Err()
		case <-ticker.C:
			r.flush()
		case evt, ok := <-angles:
			if !ok {
				angles = nil
				continue
			}
			r.recordAngle(evt)
		case evt, ok := <-conns:
			if !ok {
				conns = nil
				continue
			}
			r.recordConnection(evt)
		}
	}
	return nil
}

// drain takes whatever is buffered without blocking, angles first.
func (r *Recorder) drain(angles <-chan receiver.AngleEvent, conns <-chan receiver.ConnectionEvent) {
	for angles != nil {
		select {
		case evt, ok := <-angles:
			if !ok {
				angles = nil
				continue
			}
			r.recordAngle(evt)
		default:
			angles = nil
		}
	}
	for conns != nil {
		select {
		case evt, ok := <-conns:
			if !ok {
				conns = nil
				continue
			}
			r.recordConnection(evt)
		default:
			conns = nil
		}
	}
}

func (r *Recorder) recordAngle(evt receiver.AngleEvent) {
	r.pending = append(r.pending, AngleSample{
		SessionID:  r.sessionID,
		Raw:        evt.Raw,
		Processed:  evt.Processed,
		SensorAddr: evt.Source,
		ReceivedAt: evt.At,
	})
	if len(r.pending) >= r.batchSize {
		r.flush()
	}
}

func (r *Recorder) recordConnection(evt receiver.ConnectionEvent) {
	// samples before the change land first
	r.flush()
	err := r.db.RecordConnectionEvent(ConnectionEvent{
		SessionID:  r.sessionID,
		Connected:  evt.Connected,
		SensorAddr: evt.Address,
		At:         evt.At,
	})
	if err != nil {
		monitoring.Logf("recorder: %v", err)
	}
}

func (r *Recorder) flush() {
	if len(r.pending) == 0 {
		return
	}
	if err := r.db.RecordSamples(r.pending); err != nil {
		monitoring.Logf("recorder: failed to write %d samples: %v", len(r.pending), err)
	} else {
		r.written += int64(len(r.pending))
	}
	r.pending = r.pending[:0]
}
