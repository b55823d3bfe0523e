package api

import (
	"errors"
	"net/http"

	"github.com/banshee-data/angle.receiver/internal/angle"
	"github.com/banshee-data/angle.receiver/internal/config"
	"github.com/banshee-data/angle.receiver/internal/db"
	"github.com/banshee-data/angle.receiver/internal/httputil"
	"github.com/banshee-data/angle.receiver/internal/receiver"
	"gonum.org/v1/gonum/stat"
)

// StatsResponse is returned by GET /stats.
type StatsResponse struct {
	SessionID string              `json:"session_id,omitempty"`
	Session   *db.SessionStats    `json:"session,omitempty"`
	Window    int                 `json:"window"`
	Processed angle.CircularStats `json:"processed"`
	Raw       angle.CircularStats `json:"raw"`
	Rate      *SampleRate         `json:"rate,omitempty"`
	Status    receiver.Status     `json:"status"`
}

// SampleRate describes the spacing of the samples in the stats window.
type SampleRate struct {
	MeanIntervalMs   float64 `json:"mean_interval_ms"`
	StdDevIntervalMs float64 `json:"std_dev_interval_ms"`
	Hz               float64 `json:"hz"`
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.rx.Status())
}

// control wraps a POST-only action and answers with the resulting status.
func (s *Server) control(action func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httputil.MethodNotAllowed(w)
			return
		}
		if err := action(); err != nil {
			if errors.Is(err, receiver.ErrNotListening) {
				httputil.Conflict(w, err.Error())
				return
			}
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, s.rx.Status())
	}
}

func (s *Server) start() error {
	return s.rx.StartListening()
}

func (s *Server) discover() error {
	if !s.rx.Status().Listening {
		return receiver.ErrNotListening
	}
	s.rx.SendDiscovery()
	return nil
}

// handleConfig returns the active configuration on GET and applies a
// partial override on PUT or POST.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, config.FromReceiver(s.rx.Config()))
	case http.MethodPut, http.MethodPost:
		var f config.File
		if err := httputil.DecodeJSON(w, r, &f); err != nil {
			httputil.BadRequest(w, "Invalid JSON: "+err.Error())
			return
		}
		if err := f.Validate(); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		cfg, err := f.Apply(s.rx.Config())
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		if err := s.rx.SetConfig(cfg); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, config.FromReceiver(s.rx.Config()))
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) listSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.ServiceUnavailable(w, "No database configured")
		return
	}
	limit, err := queryInt(r, "limit", defaultSampleLimit, maxSampleLimit)
	if err != nil {
		httputil.BadRequest(w, "Invalid 'limit' parameter")
		return
	}
	d, err := parseDisplay(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	samples, err := s.store.RecentSamples(s.sessionParam(r), limit)
	if err != nil {
		httputil.InternalServerError(w, "Failed to retrieve samples")
		return
	}
	out := make([]db.AngleSample, len(samples))
	for i, smp := range samples {
		out[i] = d.apply(smp)
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	resp := StatsResponse{Status: s.rx.Status()}
	if s.store == nil {
		httputil.WriteJSONOK(w, resp)
		return
	}

	limit, err := queryInt(r, "limit", defaultStatsLimit, maxSampleLimit)
	if err != nil {
		httputil.BadRequest(w, "Invalid 'limit' parameter")
		return
	}
	session := s.sessionParam(r)
	samples, err := s.store.RecentSamples(session, limit)
	if err != nil {
		httputil.InternalServerError(w, "Failed to retrieve samples")
		return
	}
	if session != "" {
		st, err := s.store.SessionStats(session)
		if err != nil {
			httputil.InternalServerError(w, "Failed to retrieve session stats")
			return
		}
		resp.SessionID = session
		resp.Session = st
	}

	processed := make([]float64, len(samples))
	raw := make([]float64, len(samples))
	for i, smp := range samples {
		processed[i] = smp.Processed
		raw[i] = smp.Raw
	}
	resp.Window = len(samples)
	resp.Processed = angle.Circular(processed)
	resp.Raw = angle.Circular(raw)
	resp.Rate = sampleRate(samples)
	httputil.WriteJSONOK(w, resp)
}

// sampleRate measures the gaps between consecutive samples, which arrive
// newest first. Fewer than two samples give nil.
func sampleRate(samples []db.AngleSample) *SampleRate {
	if len(samples) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		gaps = append(gaps, samples[i-1].ReceivedAt.Sub(samples[i].ReceivedAt).Seconds()*1000)
	}
	mean, std := stat.MeanStdDev(gaps, nil)
	rate := &SampleRate{MeanIntervalMs: mean, StdDevIntervalMs: std}
	if mean > 0 {
		rate.Hz = 1000 / mean
	}
	return rate
}
