package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// keepAliveInterval is how often an idle event stream sends a comment line.
const keepAliveInterval = 15 * time.Second

// streamEvents sends applied readings and connection changes as server-sent
// events until the client goes away or the receiver closes.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	angleID, angles := s.rx.SubscribeAngles()
	defer s.rx.Unsubscribe(angleID)
	connID, conns := s.rx.SubscribeConnection()
	defer s.rx.Unsubscribe(connID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := writeEvent(w, "status", s.rx.Status()); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-angles:
			if !ok {
				return
			}
			err = writeEvent(w, "angle", evt)
		case evt, ok := <-conns:
			if !ok {
				return
			}
			err = writeEvent(w, "connection", evt)
		case <-keepAlive.C:
			_, err = fmt.Fprint(w, ": keep-alive\n\n")
		}
		if err != nil {
			return
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
