package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/internal/logging"
	"github.com/jrsteele09/go-session-auth/server"
	"github.com/jrsteele09/go-session-auth/storage/sqlite"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running server: %s\n", err)
		os.Exit(1)
	}
}

func run() (returnError error) {
	c, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(c.GetLogLevel(), c.GetEnv())

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName())

	if dir := filepath.Dir(c.GetDatabasePath()); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	store, err := sqlite.Open(c.GetDatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	secrets, err := token.NewSecretStoreFromConfig(c)
	if err != nil {
		return err
	}
	manager, err := auth.NewSessionManager(auth.Repos{
		Principals: store.Principals(),
		Sessions:   store.Sessions(),
		Passkeys:   store.Passkeys(),
		Activity:   store,
	}, secrets, c, auth.WithLogger(logger))
	if err != nil {
		return err
	}
	warnIfRotationDue(logger, manager.RotationStatus())

	handler, err := server.New(c, manager, logger)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepExpired(ctx, logger, manager, c.GetSweepInterval())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(logger, httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	if err := shutdown(httpServer); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func listenAndServe(logger zerolog.Logger, server *http.Server) error {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// sweepExpired removes expired session records on every tick until ctx ends.
func sweepExpired(ctx context.Context, logger zerolog.Logger, manager *auth.SessionManager, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := manager.SweepExpired(ctx)
			if err != nil {
				continue // Already logged by the manager
			}
			logger.Debug().Int64("removed", removed).Msg("session sweep finished")
		}
	}
}

func warnIfRotationDue(logger zerolog.Logger, status token.RotationStatus) {
	switch {
	case !status.Known:
		logger.Warn().Msg("SESSION_SECRET_ROTATED_AT is unset; rotation age unknown")
	case status.Due:
		logger.Warn().
			Time("rotated_at", status.RotatedAt).
			Dur("age", status.Age).
			Dur("interval", status.Interval).
			Msg("session secret is due for rotation")
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
