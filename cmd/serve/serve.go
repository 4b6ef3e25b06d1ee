// Package serve implements the serve subcommand, running the web server and
// the detection pipeline.
package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/melonguard/melonguard-go/internal/api"
	"github.com/melonguard/melonguard-go/internal/conf"
	"github.com/melonguard/melonguard-go/internal/datastore"
	"github.com/melonguard/melonguard-go/internal/detector"
	"github.com/melonguard/melonguard-go/internal/errors"
	"github.com/melonguard/melonguard-go/internal/imagestore"
	"github.com/melonguard/melonguard-go/internal/security"
	"github.com/melonguard/melonguard-go/internal/session"
)

const shutdownTimeout = 10 * time.Second

// Command returns the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the detection web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}

	cmd.Flags().StringVarP(&settings.WebServer.Port, "port", "p", settings.WebServer.Port, "Port to listen on")
	_ = viper.BindPFlag("webserver.port", cmd.Flags().Lookup("port"))

	return cmd
}

// run wires the application together and serves until interrupted.
func run(settings *conf.Settings) error {
	if settings.Security.SessionSecret == "" {
		return errors.Newf("session secret is not configured").
			Component("serve").
			Category(errors.CategoryConfiguration).
			Build()
	}

	ds := datastore.New(settings)
	if ds == nil {
		return errors.Newf("no database backend enabled in configuration").
			Component("serve").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			slog.Warn("failed to close datastore", "error", err)
		}
	}()

	images, err := imagestore.New(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize image store: %w", err)
	}

	// A model load failure is permanent for the process lifetime. The server
	// still starts so accounts and history remain reachable, but every
	// detection produces an error-shaped result explaining the outage.
	var engine session.Engine
	if d, err := detector.New(settings); err != nil {
		slog.Error("detection model failed to load, detection disabled", "error", err)
	} else {
		engine = d
	}

	sessions := security.NewManager(settings)
	registry := session.NewRegistry(engine, settings.Detector.Threshold, settings.Security.SessionDuration)

	controller := api.New(settings, ds, images, sessions, registry)

	errCh := make(chan error, 1)
	go func() {
		if err := controller.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return controller.Echo.Shutdown(ctx)
}
