package api

import (
	"net/http"

	"tailscale.com/tsweb"

	"github.com/banshee-data/angle.receiver/internal/httputil"
	"github.com/banshee-data/angle.receiver/internal/module"
)

// AttachAdminRoutes adds receiver debugging endpoints under /debug/. These
// are reachable only from localhost or over Tailscale.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.Handle("receiver", "Receiver status (JSON)", http.HandlerFunc(s.showStatus))
	debug.Handle("receiver-config", "Active receiver configuration (JSON)", http.HandlerFunc(s.handleConfig))
	debug.Handle("module", "Module descriptor and dependencies (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, map[string]any{"name": module.Name, "dependencies": module.Dependencies()})
	}))
	debug.HandleSilentFunc("receiver-discover", func(w http.ResponseWriter, r *http.Request) {
		r.Method = http.MethodPost
		s.control(s.discover)(w, r)
	})
}
