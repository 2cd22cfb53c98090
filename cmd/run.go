package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"watchparty/internal/app/api"
	"watchparty/internal/app/chat"
	"watchparty/internal/app/session"
	"watchparty/internal/app/storage"
	"watchparty/internal/configs"
	"watchparty/internal/handler"
	"watchparty/internal/pkg/limiter"
	"watchparty/internal/pkg/logx"
	"watchparty/internal/pkg/metrics"
	"watchparty/internal/shell"
	"watchparty/internal/view"
)

// run starts the client and blocks until the shell quits or a signal arrives.
func run(parent context.Context, cfg *configs.AppConfig) error {
	if parent == nil {
		parent = context.Background()
	}

	closeLog, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("server_url", cfg.ServerURL).
		Str("session_file", cfg.SessionFile).
		Dur("poll_interval", cfg.PollInterval).
		Str("debug_addr", cfg.DebugAddr).
		Msg("Configuration loaded successfully")

	sess, err := openSession(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	client := api.New(api.Config{
		BaseURL:    cfg.ServerURL,
		AuthScheme: cfg.AuthScheme,
		Timeout:    cfg.RequestTimeout,
		Limiter:    limiter.NewKeyedLimiter(rate.Limit(cfg.RequestRate), cfg.RequestBurst),
		Metrics:    m,
	}, func() string {
		return sess.Get().AuthToken
	})

	term := view.NewTerminal(os.Stdout)

	app := chat.New(chat.Config{
		Backend:      client,
		Session:      sess,
		Renderer:     term,
		Metrics:      m,
		PollInterval: cfg.PollInterval,
		StartPath:    cfg.StartPath,
	})

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDone := make(chan error, 1)
	go func() {
		appDone <- app.Run(ctx)
	}()

	if err := app.WatchSession(ctx); err != nil {
		logx.Warn("Session file cannot be watched; changes from other processes will not be picked up.", "error", err.Error())
	}

	var debugServer *http.Server
	if cfg.DebugAddr != "" {
		debugServer = startDebugServer(cfg, app, reg)
	}

	term.Printf("%s %s, connected to %s. Type `help` for commands.\n", appName, Version, cfg.ServerURL)

	shellDone := make(chan error, 1)
	go func() {
		shellDone <- shell.New(app, term).Run(ctx, os.Stdin)
	}()

	select {
	case <-ctx.Done():
		logx.Info("Received shutdown signal. Stopping client...")
	case err := <-shellDone:
		if err != nil {
			logx.Error(err, "Reading commands failed")
		}
	}

	// Stops the event loop, which stops polling.
	stop()
	if err := <-appDone; err != nil && !errors.Is(err, context.Canceled) {
		logx.Error(err, "Event loop exited with error")
	}

	if debugServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := debugServer.Shutdown(shutdownCtx); err != nil {
			logx.Error(err, "Debug server forced to shutdown")
		}
	}

	logx.Info("Client stopped.")
	return nil
}

// initLogger sets up the global logger. Logs go to the log file when one is configured,
// since stdout is the render surface.
func initLogger(cfg *configs.AppConfig) (func(), error) {
	var out io.Writer = os.Stderr
	closeFn := func() {}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	logx.InitGlobalLogger(cfg.IsDevelopment(), out)
	return closeFn, nil
}

func openSession(cfg *configs.AppConfig) (*session.Store, error) {
	kv, err := storage.NewStore(storage.ServiceConfig{Path: cfg.SessionFile})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return session.NewStore(kv), nil
}

func startDebugServer(cfg *configs.AppConfig, app *chat.App, reg *prometheus.Registry) *http.Server {
	server := &http.Server{
		Addr:         cfg.DebugAddr,
		Handler:      handler.Router(&handler.AppDeps{App: app, Config: cfg, Gatherer: reg}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info("Debug server starting", "addr", cfg.DebugAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Error(err, "Debug server failed")
		}
	}()

	return server
}
