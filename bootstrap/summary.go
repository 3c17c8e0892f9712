package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/injector/component"
	"github.com/kbukum/injector/di"
)

// Summary renders the startup report: infrastructure, the dependency graph,
// routes and live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	out             io.Writer
}

// NewSummary creates a summary that writes to out.
func NewSummary(serviceName, version string, out io.Writer) *Summary {
	return &Summary{serviceName: serviceName, version: version, out: out}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Display writes the summary, collecting everything from the registry and
// container. Either may be nil.
func (s *Summary) Display(registry *component.Registry, container *di.Container) {
	w := s.out
	fmt.Fprintf(w, "\n🚀 %s", s.serviceName)
	if s.version != "" {
		fmt.Fprintf(w, " v%s", s.version)
	}
	fmt.Fprintf(w, " started in %.2fs\n\n", s.startupDuration.Seconds())

	if registry != nil {
		s.writeInfrastructure(w, registry.All())
	}
	if container != nil {
		s.writeGraph(w, container.Registrations())
	}
	if registry != nil {
		s.writeRoutes(w, registry.All())
		s.writeHealth(w, registry.HealthAll(context.Background()))
	}
	fmt.Fprintln(w)
}

func (s *Summary) writeInfrastructure(w io.Writer, comps []component.Component) {
	var descs []component.Description
	for _, c := range comps {
		d, ok := c.(component.Describable)
		if !ok {
			continue
		}
		desc := d.Describe()
		if desc.Name == "" {
			desc.Name = c.Name()
		}
		descs = append(descs, desc)
	}
	if len(descs) == 0 {
		return
	}

	fmt.Fprintf(w, "📊 Infrastructure\n")
	for i, d := range descs {
		details := d.Details
		if d.Port > 0 {
			details = fmt.Sprintf("%s (:%d)", details, d.Port)
		}
		fmt.Fprintf(w, "   %s %s %s [%s]: %s\n", branch(i, len(descs)), typeIcon(d.Type), d.Name, d.Type, details)
	}
	fmt.Fprintln(w)
}

// writeGraph lists classes with their declared dependencies and counts the
// value and alias registrations.
func (s *Summary) writeGraph(w io.Writer, regs []di.RegistrationInfo) {
	var classes []di.RegistrationInfo
	values, aliases := 0, 0
	for _, r := range regs {
		switch r.Kind {
		case di.KindClass.String():
			classes = append(classes, r)
		case di.KindAlias.String():
			aliases++
		default:
			values++
		}
	}

	fmt.Fprintf(w, "🧩 Registrations (%d: %d classes, %d values, %d aliases)\n",
		len(regs), len(classes), values, aliases)
	for i, c := range classes {
		last := i == len(classes)-1
		state := "pending"
		if c.Initialized {
			state = "initialized"
		}
		fmt.Fprintf(w, "   %s ⚙️ %s [%s] (%s)\n", branch(i, len(classes)), c.Token, c.Scope, state)
		for j, d := range c.Dependencies {
			indent := "│   "
			if last {
				indent = "    "
			}
			fmt.Fprintf(w, "   %s%s 🔗 #%d %s (%s)\n", indent, branch(j, len(c.Dependencies)), d.Index, d.Token, d.Requirement)
		}
	}
}

func (s *Summary) writeRoutes(w io.Writer, comps []component.Component) {
	var routes []component.Route
	for _, c := range comps {
		if rp, ok := c.(component.RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}
	}
	if len(routes) == 0 {
		return
	}
	fmt.Fprintf(w, "\n🌐 Routes (%d)\n", len(routes))
	for i, r := range routes {
		fmt.Fprintf(w, "   %s %-7s %s → %s\n", branch(i, len(routes)), r.Method, r.Path, r.Handler)
	}
}

func (s *Summary) writeHealth(w io.Writer, results []component.Health) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(w, "\n🏥 Health Check\n")
	for i, h := range results {
		msg := ""
		if h.Message != "" {
			msg = " - " + h.Message
		}
		fmt.Fprintf(w, "   %s %s %s: %s%s\n", branch(i, len(results)), healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
	}
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func typeIcon(t string) string {
	switch t {
	case "container":
		return "📦"
	case "server":
		return "🌐"
	case "telemetry":
		return "📈"
	default:
		return "🔧"
	}
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
