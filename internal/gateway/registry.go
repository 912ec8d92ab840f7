package gateway

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	cfgpkg "github.com/MFAIZAN20/dreamcanvas/internal/config"
)

// IDParam is the placeholder a rewrite template uses for the first path
// segment after the prefix.
const IDParam = "{id}"

// Route declares a prefix and how it is rewritten for its service.
//
// A plain rewrite replaces the prefix and keeps the rest of the path:
// prefix /api/vote, rewrite /like turns /api/vote/7 into /like/7. A rewrite
// containing {id} consumes the first segment after the prefix:
// prefix /api/portfolio, rewrite /user/{id}/dreams turns /api/portfolio/5
// into /user/5/dreams.
type Route struct {
	Prefix  string
	Service string
	Rewrite string
}

// DefaultRoutes is the public routing table.
func DefaultRoutes() []Route {
	return []Route{
		{Prefix: "/api/dreams", Service: cfgpkg.ServiceIngestor, Rewrite: "/dreams"},
		{Prefix: "/api/stories", Service: cfgpkg.ServiceStory, Rewrite: "/generate"},
		{Prefix: "/api/art", Service: cfgpkg.ServiceArt, Rewrite: "/generate"},
		{Prefix: "/api/gallery", Service: cfgpkg.ServiceGallery, Rewrite: "/all"},
		{Prefix: "/api/notify", Service: cfgpkg.ServiceNotification, Rewrite: "/notify"},
		{Prefix: "/api/trending", Service: cfgpkg.ServiceTrending, Rewrite: "/trending"},
		{Prefix: "/api/vote", Service: cfgpkg.ServiceVoting, Rewrite: "/like"},
		{Prefix: "/api/remix", Service: cfgpkg.ServiceRemix, Rewrite: "/remix"},
		{Prefix: "/api/portfolio", Service: cfgpkg.ServicePortfolio, Rewrite: "/user/" + IDParam + "/dreams"},
	}
}

// Target is a resolved, immutable route.
type Target struct {
	Prefix  string `json:"prefix"`
	Service string `json:"service"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Rewrite string `json:"rewrite"`
}

// Addr returns host:port.
func (t Target) Addr() string { return net.JoinHostPort(t.Host, strconv.Itoa(t.Port)) }

// BaseURL returns the http origin of the target.
func (t Target) BaseURL() string { return "http://" + t.Addr() }

// match reports whether path falls under the prefix on a segment boundary.
func (t Target) match(path string) bool {
	if !strings.HasPrefix(path, t.Prefix) {
		return false
	}
	rest := path[len(t.Prefix):]
	return rest == "" || rest[0] == '/'
}

// RewritePath maps an inbound path under the prefix to the service path.
// It fails only for {id} templates when the id segment is missing.
func (t Target) RewritePath(path string) (string, bool) {
	rest := strings.TrimPrefix(path, t.Prefix)
	if !strings.Contains(t.Rewrite, IDParam) {
		return t.Rewrite + rest, true
	}
	rest = strings.TrimPrefix(rest, "/")
	id, tail, _ := strings.Cut(rest, "/")
	if id == "" {
		return "", false
	}
	out := strings.Replace(t.Rewrite, IDParam, id, 1)
	if tail != "" {
		out += "/" + tail
	}
	return out, true
}

// Registry is the immutable prefix table.
type Registry struct {
	targets []Target
}

// NewRegistry resolves routes against the configured service locations.
// Longer prefixes win when prefixes nest.
func NewRegistry(routes []Route, services map[string]cfgpkg.ServiceConfig) (*Registry, error) {
	targets := make([]Target, 0, len(routes))
	for _, r := range routes {
		if !strings.HasPrefix(r.Prefix, "/") || strings.HasSuffix(r.Prefix, "/") {
			return nil, fmt.Errorf("route prefix %q must start and not end with /", r.Prefix)
		}
		sc, ok := services[r.Service]
		if !ok {
			return nil, fmt.Errorf("route %s: unknown service %q", r.Prefix, r.Service)
		}
		if slices.ContainsFunc(targets, func(t Target) bool { return t.Prefix == r.Prefix }) {
			return nil, fmt.Errorf("duplicate route prefix %q", r.Prefix)
		}
		targets = append(targets, Target{
			Prefix:  r.Prefix,
			Service: r.Service,
			Host:    sc.Host,
			Port:    sc.Port,
			Rewrite: r.Rewrite,
		})
	}
	slices.SortStableFunc(targets, func(a, b Target) int { return len(b.Prefix) - len(a.Prefix) })
	return &Registry{targets: targets}, nil
}

// Lookup finds the target for path and the rewritten service path.
func (r *Registry) Lookup(path string) (Target, string, bool) {
	i := slices.IndexFunc(r.targets, func(t Target) bool { return t.match(path) })
	if i < 0 {
		return Target{}, "", false
	}
	t := r.targets[i]
	rewritten, ok := t.RewritePath(path)
	if !ok {
		return Target{}, "", false
	}
	return t, rewritten, true
}

// Targets returns a copy of the table.
func (r *Registry) Targets() []Target {
	return slices.Clone(r.targets)
}

// Services returns the distinct service names, in table order.
func (r *Registry) Services() []Target {
	out := make([]Target, 0, len(r.targets))
	for _, t := range r.targets {
		if !slices.ContainsFunc(out, func(o Target) bool { return o.Service == t.Service }) {
			out = append(out, t)
		}
	}
	return out
}
