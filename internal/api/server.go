// Package api serves the receiver's HTTP interface: status and control,
// stored samples, statistics, live events and charts.
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/angle.receiver/internal/db"
	"github.com/banshee-data/angle.receiver/internal/monitoring"
	"github.com/banshee-data/angle.receiver/internal/receiver"
	"github.com/banshee-data/angle.receiver/internal/serialmux"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

const (
	defaultSampleLimit = 100
	maxSampleLimit     = 10000
	defaultStatsLimit  = 500
)

// Receiver is the part of *receiver.Receiver the server drives.
type Receiver interface {
	Status() receiver.Status
	Config() receiver.Config
	SetConfig(receiver.Config) error
	StartListening() error
	StopListening()
	ResetAngle()
	SendDiscovery()
	SubscribeAngles() (string, <-chan receiver.AngleEvent)
	SubscribeConnection() (string, <-chan receiver.ConnectionEvent)
	Unsubscribe(string)
}

// SampleStore is the read side of the sample database.
type SampleStore interface {
	RecentSamples(sessionID string, limit int) ([]db.AngleSample, error)
	SessionStats(sessionID string) (*db.SessionStats, error)
}

type Server struct {
	rx        Receiver
	store     SampleStore
	sessionID string
	m         serialmux.SerialMuxInterface
}

// NewServer creates a Server. store and m may be nil when persistence or
// the serial port are not in use.
func NewServer(rx Receiver, store SampleStore, sessionID string, m serialmux.SerialMuxInterface) *Server {
	return &Server{
		rx:        rx,
		store:     store,
		sessionID: sessionID,
		m:         m,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.showStatus)
	mux.HandleFunc("/start", s.control(s.start))
	mux.HandleFunc("/stop", s.control(func() error { s.rx.StopListening(); return nil }))
	mux.HandleFunc("/reset", s.control(func() error { s.rx.ResetAngle(); return nil }))
	mux.HandleFunc("/discover", s.control(s.discover))
	mux.HandleFunc("/config", s.handleConfig)
	mux.HandleFunc("/samples", s.listSamples)
	mux.HandleFunc("/stats", s.showStats)
	mux.HandleFunc("/events", s.streamEvents)
	mux.HandleFunc("/charts/angles", s.angleChart)
	mux.HandleFunc("/charts/angles.png", s.anglePlot)
	mux.HandleFunc("/command", s.sendCommandHandler)
	return mux
}

// queryInt reads a positive integer query parameter, falling back to def
// and capping at max.
func queryInt(r *http.Request, name string, def, max int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, strconv.ErrSyntax
	}
	if n > max {
		n = max
	}
	return n, nil
}

// sessionParam maps the session query parameter to a store filter: empty
// means the running session and "all" means every session.
func (s *Server) sessionParam(r *http.Request) string {
	switch v := r.URL.Query().Get("session"); v {
	case "":
		return s.sessionID
	case "all":
		return ""
	default:
		return v
	}
}

func (s *Server) sendCommandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.m == nil {
		http.Error(w, "No serial port configured", http.StatusServiceUnavailable)
		return
	}

	command := r.FormValue("command")
	if command == "" {
		http.Error(w, "Missing command", http.StatusBadRequest)
		return
	}

	if err := s.m.SendCommand(command); err != nil {
		switch {
		case errors.Is(err, serialmux.ErrNoPort):
			http.Error(w, "No serial port configured", http.StatusServiceUnavailable)
		case errors.Is(err, serialmux.ErrInvalidCommand):
			http.Error(w, "Invalid command", http.StatusBadRequest)
		default:
			http.Error(w, "Failed to send command", http.StatusInternalServerError)
		}
		return
	}
	io.WriteString(w, "Command sent successfully")
}
