package broadcast

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// Module owns the live room registry and the broadcast router. It has no
// service surface of its own; the gateway receives both through direct
// injection in main.go since in-process fan-out does not go through the
// service container.
type Module struct {
	registry *Registry
	router   *Router
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new broadcast module.
func NewModule() *Module {
	registry := NewRegistry()
	return &Module{
		registry: registry,
		router:   NewRouter(registry),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[broadcast] Module started")
	return nil
}

// Stop closes all live sessions.
func (m *Module) Stop(_ context.Context) error {
	sessions := m.registry.SessionCount()
	m.registry.CloseAll()
	log.Printf("[broadcast] Module stopped - %d sessions were attached", sessions)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"live_rooms":        m.registry.RoomCount(),
			"attached_sessions": m.registry.SessionCount(),
		},
	}
}

// Registry returns the room registry for the gateway to use.
func (m *Module) Registry() *Registry {
	return m.registry
}

// Router returns the broadcast router for the gateway to use.
func (m *Module) Router() *Router {
	return m.router
}
