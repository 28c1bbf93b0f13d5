package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pawalert/internal/dedup"
	"github.com/desertthunder/pawalert/internal/events"
	"github.com/desertthunder/pawalert/internal/server"
	"github.com/desertthunder/pawalert/internal/shared"
	"github.com/desertthunder/pawalert/internal/tasks"
)

// Serve runs the engine until SIGINT or SIGTERM, then drains queued events before exiting.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := r.database()
	if err != nil {
		return err
	}

	var client *redis.Client
	if r.config.Engine.ClaimStore == "redis" || cmd.Bool("subscribe") {
		if client, err = events.NewClient(r.config.Redis.URL); err != nil {
			return err
		}
		defer client.Close()
	}

	var claims dedup.Claimer = dedup.NewMemoryClaimer()
	if r.config.Engine.ClaimStore == "redis" {
		claims = dedup.NewRedisClaimer(client, r.config.Redis.Namespace)
	}

	notifier, err := r.notifier()
	if err != nil {
		return err
	}
	engine, err := r.newEngine(db, notifier, claims)
	if err != nil {
		return err
	}

	updates := make(chan tasks.CycleUpdate, 64)
	engine.SetUpdates(updates)
	go r.logUpdates(ctx, updates)

	// Workers outlive the signal so Stop can drain what was already accepted.
	engine.Start(context.WithoutCancel(ctx))
	defer engine.Stop()

	if cmd.Bool("subscribe") {
		sub := events.NewSubscriber(client, r.config.Redis.Channel, engine, r.logger)
		go func() {
			if err := sub.Run(ctx); err != nil {
				r.logger.Error("redis subscriber stopped", "err", err)
			}
		}()
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}
	srv := server.New(addr, server.NewRouter(engine, r.logger), r.logger)
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (r *Runner) logUpdates(ctx context.Context, updates <-chan tasks.CycleUpdate) {
	logger := shared.WithLogger(r.logger, "component", "progress")
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-updates:
			logger.Debug(u.Message, "phase", u.Phase, "listing_id", u.ListingID, "step", u.Step, "total", u.Total)
		}
	}
}
