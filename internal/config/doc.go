// Package config provides loading and environment overlay for the DreamCanvas
// mesh: gateway timeouts, the fixed downstream topology, the shared store and
// its pool, and the hedged-write tunables.
//
// Example:
//
//	cfg, err := config.Load("/etc/dreamcanvas.yaml") // .json, .yaml or .yml
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	story := cfg.Services[config.ServiceStory].Addr()
package config
