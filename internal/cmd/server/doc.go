// Package serverrun exposes the shared Run entrypoint the CLI uses to start
// one DreamCanvas process: the gateway, a single named service, or every
// service at once. Stateful services in the same process share one runtime.
//
// Example:
//
//	cfg := config.Default()
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg, Services: []string{config.ServiceVoting}})
package serverrun
