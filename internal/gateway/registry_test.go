package gateway

import (
	"testing"

	cfgpkg "github.com/MFAIZAN20/dreamcanvas/internal/config"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(DefaultRoutes(), cfgpkg.DefaultServices())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func TestLookup(t *testing.T) {
	r := newTestRegistry(t)
	cases := []struct {
		path    string
		service string
		want    string
	}{
		{"/api/dreams", cfgpkg.ServiceIngestor, "/dreams"},
		{"/api/dreams/42", cfgpkg.ServiceIngestor, "/dreams/42"},
		{"/api/stories", cfgpkg.ServiceStory, "/generate"},
		{"/api/art", cfgpkg.ServiceArt, "/generate"},
		{"/api/gallery", cfgpkg.ServiceGallery, "/all"},
		{"/api/notify", cfgpkg.ServiceNotification, "/notify"},
		{"/api/trending", cfgpkg.ServiceTrending, "/trending"},
		{"/api/vote/7", cfgpkg.ServiceVoting, "/like/7"},
		{"/api/remix/3", cfgpkg.ServiceRemix, "/remix/3"},
		{"/api/portfolio/5", cfgpkg.ServicePortfolio, "/user/5/dreams"},
	}
	for _, c := range cases {
		tgt, got, ok := r.Lookup(c.path)
		if !ok {
			t.Fatalf("%s: no match", c.path)
		}
		if tgt.Service != c.service || got != c.want {
			t.Fatalf("%s: got %s %s, want %s %s", c.path, tgt.Service, got, c.service, c.want)
		}
	}
}

func TestLookupSegmentBoundary(t *testing.T) {
	r := newTestRegistry(t)
	for _, p := range []string{"/api/dreamsX", "/api/unknown", "/api", "/", "/api/portfolio", "/api/portfolio/"} {
		if tgt, got, ok := r.Lookup(p); ok {
			t.Fatalf("%s: unexpected match %s -> %s", p, tgt.Service, got)
		}
	}
}

func TestLookupTargetAddress(t *testing.T) {
	r := newTestRegistry(t)
	tgt, _, ok := r.Lookup("/api/notify")
	if !ok {
		t.Fatalf("no match")
	}
	if tgt.BaseURL() != "http://127.0.0.1:3005" {
		t.Fatalf("base url: %s", tgt.BaseURL())
	}
}

func TestNewRegistryRejectsBadRoutes(t *testing.T) {
	svcs := cfgpkg.DefaultServices()
	bad := [][]Route{
		{{Prefix: "api/x", Service: cfgpkg.ServiceStory, Rewrite: "/x"}},
		{{Prefix: "/api/x/", Service: cfgpkg.ServiceStory, Rewrite: "/x"}},
		{{Prefix: "/api/x", Service: "nope", Rewrite: "/x"}},
		{
			{Prefix: "/api/x", Service: cfgpkg.ServiceStory, Rewrite: "/x"},
			{Prefix: "/api/x", Service: cfgpkg.ServiceArt, Rewrite: "/y"},
		},
	}
	for i, routes := range bad {
		if _, err := NewRegistry(routes, svcs); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestLongestPrefixWins(t *testing.T) {
	svcs := cfgpkg.DefaultServices()
	r, err := NewRegistry([]Route{
		{Prefix: "/api/a", Service: cfgpkg.ServiceStory, Rewrite: "/short"},
		{Prefix: "/api/a/b", Service: cfgpkg.ServiceArt, Rewrite: "/long"},
	}, svcs)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	tgt, got, ok := r.Lookup("/api/a/b/c")
	if !ok || tgt.Service != cfgpkg.ServiceArt || got != "/long/c" {
		t.Fatalf("got %v %s %v", tgt.Service, got, ok)
	}
	tgt, got, _ = r.Lookup("/api/a/x")
	if tgt.Service != cfgpkg.ServiceStory || got != "/short/x" {
		t.Fatalf("got %v %s", tgt.Service, got)
	}
}
