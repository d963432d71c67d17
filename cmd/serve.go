package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tclive/internal/hub"
	"github.com/desertthunder/tclive/internal/server"
	"github.com/desertthunder/tclive/internal/shared"
)

// Serve runs the daemon: HTTP API, websocket hub, live poller and reminder timers.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String("log-file"); path != "" {
		fileLogger, err := shared.NewFileLogger(path)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := int(cmd.Int("port")); port > 0 {
		r.config.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := r.newDaemon(ctx, daemonOpts{Restore: cmd.Bool("restore")})
	if err != nil {
		return err
	}
	defer d.Close()

	go d.hub.Run(ctx)

	d.helper.Boot(ctx)
	if cmd.Bool("no-poll") {
		r.logger.Info("live polling disabled, start it with POST /api/live/start")
	} else {
		d.poller.Boot(ctx)
	}

	srv := server.New(ctx, server.Options{
		Addr:        r.config.Addr(),
		Scores:      d.store,
		Live:        d.poller,
		Notify:      d.helper,
		Websocket:   hub.NewHandler(ctx, d.hub, r.config.Server.CORSOrigins),
		Metrics:     d.metrics,
		Logger:      shared.WithLogger(r.logger, "component", "http"),
		CORSOrigins: r.config.Server.CORSOrigins,
		CheckRate:   r.config.YouTube.CheckRate,
		Now:         r.now,
	})

	r.logger.Info("tclive started", "addr", r.config.Addr(), "event", r.config.Event.Name)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}

	r.logger.Info("tclive stopped")
	return nil
}
