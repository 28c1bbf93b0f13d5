package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pawalert/internal/formatter"
	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/repositories"
)

// PrefsSet replaces a user's preferences with the given flags.
//
// Omitted facet flags store an empty set and omitted age flags leave that bound open.
func (r *Runner) PrefsSet(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	user, err := resolveUser(ctx, repositories.NewUserRepository(db), cmd.String("user"))
	if err != nil {
		return err
	}

	pref := models.PreferenceRecord{
		UserID:      user.ID(),
		WantsAlerts: cmd.Bool("alerts"),
		Species:     cmd.StringSlice("species"),
		Breeds:      cmd.StringSlice("breed"),
		Size:        cmd.StringSlice("size"),
	}
	if cmd.IsSet("age-min") || cmd.IsSet("age-max") {
		pref.AgeRange = &models.AgeRange{}
		if cmd.IsSet("age-min") {
			v := cmd.Float("age-min")
			pref.AgeRange.Min = &v
		}
		if cmd.IsSet("age-max") {
			v := cmd.Float("age-max")
			pref.AgeRange.Max = &v
		}
	}

	if err := repositories.NewPreferenceRepository(db).Upsert(ctx, &pref); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	r.logger.Info("preferences saved", "user_id", pref.UserID, "wants_alerts", pref.WantsAlerts)
	if err := r.writePlain("✓ Saved preferences for %s\n", user.Email()); err != nil {
		return err
	}
	return r.writeBytes(formatter.PreferencesToText([]models.PreferenceRecord{pref}))
}

// PrefsShow prints one user's preferences.
func (r *Runner) PrefsShow(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	user, err := resolveUser(ctx, repositories.NewUserRepository(db), cmd.String("user"))
	if err != nil {
		return err
	}

	sub, err := repositories.NewPreferenceRepository(db).Get(ctx, user.ID())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sub, true)
	}
	return r.writeBytes(formatter.PreferencesToText([]models.PreferenceRecord{sub.Preferences}))
}

// PrefsList prints every stored preference record.
func (r *Runner) PrefsList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if cmd.Bool("alerts-only") {
		criteria["wants_alerts"] = true
	}

	subs, err := repositories.NewPreferenceRepository(db).List(ctx, criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if subs == nil {
			subs = []models.Subscriber{}
		}
		return r.writeJSON(subs, true)
	}

	prefs := make([]models.PreferenceRecord, 0, len(subs))
	for _, s := range subs {
		prefs = append(prefs, s.Preferences)
	}
	return r.writeBytes(formatter.PreferencesToText(prefs))
}

// PrefsDelete removes a user's preferences.
func (r *Runner) PrefsDelete(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	user, err := resolveUser(ctx, repositories.NewUserRepository(db), cmd.String("user"))
	if err != nil {
		return err
	}
	if err := repositories.NewPreferenceRepository(db).Delete(ctx, user.ID()); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted preferences for %s\n", user.Email())
}
