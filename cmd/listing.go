package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pawalert/internal/dedup"
	"github.com/desertthunder/pawalert/internal/events"
	"github.com/desertthunder/pawalert/internal/formatter"
	"github.com/desertthunder/pawalert/internal/matching"
	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/repositories"
	"github.com/desertthunder/pawalert/internal/shared"
	"github.com/desertthunder/pawalert/internal/tasks"
)

// listingEvent builds an event from --file or from the individual listing flags.
func (r *Runner) listingEvent(cmd *cli.Command) (models.ListingCreatedEvent, error) {
	var ev models.ListingCreatedEvent

	if path := cmd.String("file"); path != "" {
		var in io.Reader = r.input
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return ev, fmt.Errorf("failed to open listing file: %w", err)
			}
			defer f.Close()
			in = f
		}
		if err := json.NewDecoder(in).Decode(&ev); err != nil {
			return ev, fmt.Errorf("%w: listing file: %v", shared.ErrInvalidInput, err)
		}
		return ev, nil
	}

	ev = models.ListingCreatedEvent{
		ListingID: cmd.String("id"),
		Name:      cmd.String("name"),
		Species:   cmd.String("species"),
		Breed:     cmd.String("breed"),
		Size:      cmd.String("size"),
		CreatedAt: time.Now().UTC(),
	}
	if ev.ListingID == "" {
		ev.ListingID = shared.GenerateID()
	}
	if cmd.IsSet("age") {
		ev.Age = &models.Age{Value: cmd.Float("age"), Unit: models.AgeUnit(cmd.String("age-unit"))}
	}
	return ev, nil
}

// ListingMatch runs one cycle in the foreground and prints its report.
//
// With --dry-run it only lists the selected candidates.
func (r *Runner) ListingMatch(ctx context.Context, cmd *cli.Command) error {
	ev, err := r.listingEvent(cmd)
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	if cmd.Bool("dry-run") {
		return r.listCandidates(ctx, db, ev)
	}

	notifier, err := r.notifier()
	if err != nil {
		return err
	}
	engine, err := r.newEngine(db, notifier, dedup.NewMemoryClaimer())
	if err != nil {
		return err
	}

	report := engine.RunCycle(ctx, ev)
	if err := formatter.WriteReport(r.output, report, cmd.String("format")); err != nil {
		return err
	}
	if report.Phase == tasks.Abandoned {
		return fmt.Errorf("cycle abandoned: %w", report.Reason)
	}
	return nil
}

func (r *Runner) listCandidates(ctx context.Context, db *sql.DB, ev models.ListingCreatedEvent) error {
	listing, err := models.NewListingSnapshot(ev)
	if err != nil {
		return err
	}
	policy, err := matching.ParseEmptySetPolicy(r.config.Matching.EmptySetPolicy)
	if err != nil {
		return err
	}

	selector := matching.NewSelector(repositories.NewPreferenceRepository(db), matching.Matcher{EmptySet: policy}.Matches)
	subs, err := selector.Select(ctx, listing)
	if err != nil {
		return err
	}

	if err := r.writePlain("%d candidates for %s (%s, %s, %s)\n", len(subs), listing.ListingID, listing.Species, listing.Breed, listing.Age); err != nil {
		return err
	}
	for _, s := range subs {
		if err := r.writePlain("  %s <%s>\n", s.Contact.UserID, s.Contact.Email); err != nil {
			return err
		}
	}
	return nil
}

// ListingPublish emits a listing event onto the Redis channel for a running `serve --subscribe`.
func (r *Runner) ListingPublish(ctx context.Context, cmd *cli.Command) error {
	ev, err := r.listingEvent(cmd)
	if err != nil {
		return err
	}

	client, err := events.NewClient(r.config.Redis.URL)
	if err != nil {
		return err
	}
	defer client.Close()

	receivers, err := events.NewPublisher(client, r.config.Redis.Channel).Publish(ctx, ev)
	if err != nil {
		return err
	}
	r.logger.Info("listing event published", "listing_id", ev.ListingID, "channel", r.config.Redis.Channel, "receivers", receivers)
	return r.writePlain("✓ Published %s to %d subscriber(s)\n", ev.ListingID, receivers)
}
