// Package app wires the registry, router, console, and transports into
// one runnable relay instance. Nothing here is global: tests can run
// several independent instances side by side.
package app

import (
	"context"
	"io"
	stdhttp "net/http"

	"github.com/rs/zerolog"

	"github.com/arnvid/norsechat/internal/admin"
	"github.com/arnvid/norsechat/internal/config"
	"github.com/arnvid/norsechat/internal/core"
	"github.com/arnvid/norsechat/internal/session"
	transporthttp "github.com/arnvid/norsechat/internal/transport/http"
	"github.com/arnvid/norsechat/internal/transport/tcp"
)

// App holds one relay instance.
type App struct {
	cfg      config.Config
	log      *zerolog.Logger
	registry *core.Registry
	console  *admin.Console
	tcp      *tcp.Server
	http     *stdhttp.Server
}

// New constructs the application. consoleIn/consoleOut carry the
// operator's command loop; production passes stdin and stdout.
func New(cfg config.Config, logger *zerolog.Logger, consoleIn io.Reader, consoleOut io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := core.NewRegistry(cfg.DefaultRoom, cfg.AdminName, cfg.Rooms...)
	router := core.NewRouter(registry, logger)
	console := admin.New(registry, router, consoleIn, consoleOut, logger)
	router.SetConsole(console)

	handler := session.NewHandler(registry, router, logger)
	tcpServer := tcp.NewServer(cfg.Addr, handler, logger)
	httpServer := transporthttp.NewServer(cfg.HTTPAddr, cfg.ReadHeaderTimeout, handler, registry, logger)

	return &App{
		cfg:      cfg,
		log:      logger,
		registry: registry,
		console:  console,
		tcp:      tcpServer,
		http:     httpServer,
	}, nil
}

// TCPAddr returns the bound chat address. Valid after Run has started
// listening, or immediately when Listen was called first.
func (a *App) TCPAddr() string { return a.tcp.Addr() }

// Listen binds the TCP listener ahead of Run, so tests using ":0" can
// learn the resolved port.
func (a *App) Listen() error { return a.tcp.Listen() }

// Run serves until context cancellation or a fatal transport error.
func (a *App) Run(ctx context.Context) error {
	if err := a.tcp.Listen(); err != nil {
		return err
	}

	serverErr := make(chan error, 2)

	go func() {
		serverErr <- a.tcp.Serve()
	}()
	go func() {
		if err := a.http.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	// The console outlives ctx only while blocked on its reader; that
	// read ends with the process (stdin) or the test fixture.
	go func() {
		if err := a.console.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Warn().Err(err).Msg("admin console stopped")
		}
	}()

	select {
	case err := <-serverErr:
		a.shutdown()
		return err
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")
		a.shutdown()
		return nil
	}
}

// shutdown releases every resource: the HTTP server first so no new
// WebSocket sessions arrive, then every registered connection so
// pending reads unblock, then the listener.
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("http shutdown")
	}
	a.registry.CloseAll()
	if err := a.tcp.Shutdown(); err != nil {
		a.log.Warn().Err(err).Msg("tcp shutdown")
	}
}
