package api

import (
	"context"
	"net/http"

	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/eventbus"
	"github.com/ignite/fleetwatch/internal/pkg/httputil"
)

// ScanRunner triggers a fleet scan on demand. Satisfied by
// *scanner.Orchestrator; kept as an interface here so handlers can be
// tested without constructing a full orchestrator.
type ScanRunner interface {
	RunScan(ctx context.Context) (domain.ScanLog, error)
}

// Handlers holds the collaborators the thin API surface depends on.
type Handlers struct {
	bus     *eventbus.Bus
	scanner ScanRunner
}

// NewHandlers builds the handler set.
func NewHandlers(bus *eventbus.Bus, scanner ScanRunner) *Handlers {
	return &Handlers{bus: bus, scanner: scanner}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

// TriggerScan runs one fleet scan synchronously and reports the resulting
// scan log. The scanner's own distlock ensures a concurrent timer-driven
// scan doesn't race this request.
func (h *Handlers) TriggerScan(w http.ResponseWriter, r *http.Request) {
	scanLog, err := h.scanner.RunScan(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, scanLog)
}

// StreamAdmin streams every event over SSE.
func (h *Handlers) StreamAdmin(w http.ResponseWriter, r *http.Request) {
	h.bus.ServeAdmin(w, r)
}

// StreamPortal streams events scoped to one inbox email over SSE.
func (h *Handlers) StreamPortal(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.BadRequest(w, "email is required")
		return
	}
	h.bus.ServePortal(w, r, email)
}
