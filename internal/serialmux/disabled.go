package serialmux

import (
	"context"
	"net/http"

	"tailscale.com/tsweb"
)

// DisabledSerialMux stands in when no serial port is configured. It never
// produces lines but still closes subscriber channels on Unsubscribe and
// Close so readers unblock during shutdown.
type DisabledSerialMux struct {
	lines *lineHub
}

func NewDisabledSerialMux() *DisabledSerialMux {
	return &DisabledSerialMux{lines: newLineHub()}
}

func (d *DisabledSerialMux) Subscribe() (string, chan string) { return d.lines.subscribe() }

func (d *DisabledSerialMux) Unsubscribe(id string) { d.lines.unsubscribe(id) }

func (d *DisabledSerialMux) SendCommand(string) error { return ErrNoPort }

func (d *DisabledSerialMux) Monitor(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }

func (d *DisabledSerialMux) Stats() Stats { return Stats{Subscribers: d.lines.count()} }

func (d *DisabledSerialMux) Close() error {
	d.lines.close()
	return nil
}

func (d *DisabledSerialMux) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.HandleSilentFunc("serial", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "serial disabled", http.StatusNotFound)
	})
}
