package bootstrap

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/portfolio/component"
)

// InfrastructureInfo describes an infrastructure component in the summary.
type InfrastructureInfo struct {
	Name    string
	Type    string // "database", "storage", "server"
	Details string
	Port    int
}

// BusinessComponentInfo represents a business-layer component (service,
// repository, handler).
type BusinessComponentInfo struct {
	Name         string
	Type         string
	Dependencies []string
}

// Summary tracks and renders what the application brought up.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	infrastructure  []InfrastructureInfo
	business        []BusinessComponentInfo
	routes          []component.Route
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackBusinessComponent records a business-layer component.
func (s *Summary) TrackBusinessComponent(name, componentType string, dependencies ...string) {
	s.business = append(s.business, BusinessComponentInfo{
		Name:         name,
		Type:         componentType,
		Dependencies: dependencies,
	})
}

// Collect replaces infrastructure and routes with what the registered
// components report through Describable and RouteProvider.
func (s *Summary) Collect(registry *component.Registry) {
	s.infrastructure = s.infrastructure[:0]
	s.routes = s.routes[:0]
	for _, c := range registry.All() {
		info := InfrastructureInfo{Name: c.Name()}
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			info = InfrastructureInfo{Name: desc.Name, Type: desc.Type, Details: desc.Details, Port: desc.Port}
		}
		s.infrastructure = append(s.infrastructure, info)
		if rp, ok := c.(component.RouteProvider); ok {
			s.routes = append(s.routes, rp.Routes()...)
		}
	}
}

// Infrastructure returns the collected infrastructure entries.
func (s *Summary) Infrastructure() []InfrastructureInfo { return s.infrastructure }

// Routes returns the collected routes.
func (s *Summary) Routes() []component.Route { return s.routes }

// Render writes the summary with the given health results to w.
func (s *Summary) Render(w io.Writer, healths []component.Health) {
	fmt.Fprintf(w, "\n🚀 %s v%s started in %.2fs\n\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.infrastructure) == 0 {
		fmt.Fprintf(w, "📊 Infrastructure\n   └── No components registered\n")
	} else {
		fmt.Fprintf(w, "📊 Infrastructure\n")
		for i, inf := range s.infrastructure {
			details := inf.Details
			if inf.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, inf.Port)
			}
			label := inf.Name
			if inf.Type != "" {
				label = fmt.Sprintf("%s [%s]", inf.Name, inf.Type)
			}
			fmt.Fprintf(w, "   %s %s: %s\n", branch(i, len(s.infrastructure)), label, details)
		}
	}

	if len(s.business) > 0 {
		fmt.Fprintf(w, "\n💼 Business Layer\n")
		for i, b := range s.business {
			last := i == len(s.business)-1
			fmt.Fprintf(w, "   %s %s %s\n", branch(i, len(s.business)), businessIcon(b.Type), b.Name)
			indent := "│   "
			if last {
				indent = "    "
			}
			for j, dep := range b.Dependencies {
				fmt.Fprintf(w, "   %s%s 🔗 %s\n", indent, branch(j, len(b.Dependencies)), dep)
			}
		}
	}

	if len(s.routes) > 0 {
		fmt.Fprintf(w, "\n🌐 Routes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", branch(i, len(s.routes)), r.Method, r.Path, r.Handler)
		}
	}

	if len(healths) > 0 {
		fmt.Fprintf(w, "\n🏥 Health Check\n")
		healthy := 0
		for i, h := range healths {
			msg := ""
			if h.Message != "" {
				msg = ": " + h.Message
			}
			if h.Status == component.StatusHealthy {
				healthy++
			}
			fmt.Fprintf(w, "   %s %s %s %s%s\n", branch(i, len(healths)), healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
		}
		if healthy == len(healths) {
			fmt.Fprintf(w, "\n✅ All components healthy (%d/%d)\n", healthy, len(healths))
		} else {
			fmt.Fprintf(w, "\n⚠️  Some components have issues (%d/%d healthy)\n", healthy, len(healths))
		}
	}
	fmt.Fprintln(w)
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
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

func businessIcon(compType string) string {
	switch compType {
	case "service":
		return "⚙️"
	case "repository":
		return "📁"
	case "handler":
		return "🎯"
	default:
		return "💼"
	}
}
