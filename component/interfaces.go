package component

import "context"

// HealthStatus is the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is a component's self-reported state.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed part of the application, such as the
// container or the inspect server.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description summarizes a component for the startup summary.
type Description struct {
	// Name is the display name. Defaults to Component.Name().
	Name string
	// Type categorizes the component: "container", "server", "telemetry".
	Type string
	// Details is a one-line configuration summary.
	Details string
	// Port is the primary listening port, 0 if none.
	Port int
}

// Describable is implemented by components that report a Description.
type Describable interface {
	Describe() Description
}

// Route is an HTTP route served by a component.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider is implemented by components that serve HTTP routes.
type RouteProvider interface {
	Routes() []Route
}

// Overall folds component health into one status: unhealthy if any component
// is unhealthy, degraded if any is degraded, healthy otherwise.
func Overall(results []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range results {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		case StatusHealthy:
		default:
			status = StatusDegraded
		}
	}
	return status
}
