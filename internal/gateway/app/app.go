package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"springforge/internal/gateway/config"
	"springforge/internal/gateway/handler"
	"springforge/internal/gateway/handler/rpc"
	"springforge/internal/gateway/server"
)

type App struct {
	core   *Core
	server *server.Server
}

func New(args []string) (*App, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()
	core, err := NewCore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	httpHandler := handler.NewHTTPHandler(core.Service)
	generatorHandler := rpc.NewGeneratorHandler(core.Service)
	eventsHandler := rpc.NewEventsHandler(core.Events)

	// Routing & Server
	mux := server.NewMux(httpHandler, generatorHandler, eventsHandler, cfg.CORSOrigins)
	srv := server.New(cfg.Port, mux, cfg.ShutdownTimeout)

	return &App{
		core:   core,
		server: srv,
	}, nil
}

// Run serves until ctx is done, then drains requests and releases the core.
func (a *App) Run(ctx context.Context) error {
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go func() {
		if err := a.core.Templates.Watch(watchCtx); err != nil {
			log.Printf("template watcher stopped: %v", err)
		}
	}()
	serveErr := a.server.Serve(ctx)
	stopWatch()
	return errors.Join(serveErr, a.core.Close())
}
