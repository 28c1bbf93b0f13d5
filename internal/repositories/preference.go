package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/desertthunder/pawalert/internal/matching"
	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
)

var facetTables = [...]string{"preference_species", "preference_breeds", "preference_sizes"}

// subscriberSelect reads a preference row with its owner's contact and packed facet sets, each in write order.
const subscriberSelect = `
	SELECT p.user_id, p.wants_alerts, p.age_min, p.age_max, p.updated_at, u.email, u.name,
		(SELECT group_concat(value, char(31) ORDER BY position) FROM preference_species WHERE user_id = p.user_id),
		(SELECT group_concat(value, char(31) ORDER BY position) FROM preference_breeds WHERE user_id = p.user_id),
		(SELECT group_concat(value, char(31) ORDER BY position) FROM preference_sizes WHERE user_id = p.user_id)
	FROM preferences p
	JOIN users u ON u.id = p.user_id AND u.deleted_at IS NULL
`

// candidateWhere is the coarse filter: alerts on, and each of species and size either unset or containing the listing's tag.
const candidateWhere = `
	WHERE p.wants_alerts = 1
	AND (
		NOT EXISTS (SELECT 1 FROM preference_species s WHERE s.user_id = p.user_id)
		OR EXISTS (SELECT 1 FROM preference_species s WHERE s.user_id = p.user_id AND s.value = ?)
	)
	AND (
		NOT EXISTS (SELECT 1 FROM preference_sizes z WHERE z.user_id = p.user_id)
		OR EXISTS (SELECT 1 FROM preference_sizes z WHERE z.user_id = p.user_id AND z.value = ?)
	)
	ORDER BY u.sequence ASC
`

// PreferenceRepository persists [models.PreferenceRecord] values and serves the selector's candidate query.
type PreferenceRepository struct {
	db *sql.DB
}

// NewPreferenceRepository creates a new [PreferenceRepository]
func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

var _ matching.PreferenceQuerier = (*PreferenceRepository)(nil)

// Upsert normalizes and writes pref, replacing every facet set in one transaction.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.PreferenceRecord) error {
	pref.Normalize()
	if err := pref.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	pref.UpdatedAt = time.Now().UTC()

	var lo, hi sql.NullFloat64
	if pref.AgeRange != nil {
		lo, hi = nullFloat(pref.AgeRange.Min), nullFloat(pref.AgeRange.Max)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO preferences (user_id, wants_alerts, age_min, age_max, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			wants_alerts = excluded.wants_alerts,
			age_min = excluded.age_min,
			age_max = excluded.age_max,
			updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query, pref.UserID, pref.WantsAlerts, lo, hi, pref.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}

	sets := [...][]string{pref.Species, pref.Breeds, pref.Size}
	for i, table := range facetTables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE user_id = ?", table), pref.UserID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		for pos, v := range sets[i] {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (user_id, value, position) VALUES (?, ?, ?)", table), pref.UserID, v, pos); err != nil {
				return fmt.Errorf("failed to insert into %s: %w", table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit preferences: %w", err)
	}
	return nil
}

// Get returns the subscriber row for userID.
func (r *PreferenceRepository) Get(ctx context.Context, userID string) (models.Subscriber, error) {
	sub, err := scanSubscriber(r.db.QueryRowContext(ctx, subscriberSelect+` WHERE p.user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscriber{}, fmt.Errorf("%w: preferences for user %s", shared.ErrNotFound, userID)
	}
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("failed to query preferences: %w", err)
	}
	return sub, nil
}

// List returns subscriber rows. Supported criteria: "wants_alerts" (bool).
func (r *PreferenceRepository) List(ctx context.Context, criteria map[string]any) ([]models.Subscriber, error) {
	query := subscriberSelect + ` WHERE 1 = 1`
	args := []any{}
	if wants, ok := criteria["wants_alerts"].(bool); ok {
		query += " AND p.wants_alerts = ?"
		args = append(args, wants)
	}
	query += " ORDER BY u.sequence ASC"

	var out []models.Subscriber
	for sub, err := range r.query(ctx, query, args...) {
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// Delete removes a user's preferences and facet sets.
func (r *PreferenceRepository) Delete(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return expectRow(result, "preferences for user", userID)
}

// QueryCandidatePreferences streams alert-enabled subscribers that pass the coarse species and size filter.
func (r *PreferenceRepository) QueryCandidatePreferences(ctx context.Context, filter matching.CoarseFilter) iter.Seq2[models.Subscriber, error] {
	return r.query(ctx, subscriberSelect+candidateWhere, filter.Species, filter.Size)
}

func (r *PreferenceRepository) query(ctx context.Context, query string, args ...any) iter.Seq2[models.Subscriber, error] {
	return func(yield func(models.Subscriber, error) bool) {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(models.Subscriber{}, fmt.Errorf("failed to query preferences: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			sub, err := scanSubscriber(rows)
			if err != nil {
				yield(models.Subscriber{}, fmt.Errorf("failed to scan preferences: %w", err))
				return
			}
			if !yield(sub, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Subscriber{}, fmt.Errorf("row iteration error: %w", err))
		}
	}
}

func scanSubscriber(row scanner) (models.Subscriber, error) {
	var (
		userID                 string
		wants                  bool
		lo, hi                 sql.NullFloat64
		updatedAt              time.Time
		email, name            string
		species, breeds, sizes sql.NullString
	)
	if err := row.Scan(&userID, &wants, &lo, &hi, &updatedAt, &email, &name, &species, &breeds, &sizes); err != nil {
		return models.Subscriber{}, err
	}

	pref := models.PreferenceRecord{
		UserID:      userID,
		WantsAlerts: wants,
		Species:     splitFacet(species),
		Breeds:      splitFacet(breeds),
		Size:        splitFacet(sizes),
		UpdatedAt:   updatedAt,
	}
	if lo.Valid || hi.Valid {
		pref.AgeRange = &models.AgeRange{Min: floatPtr(lo), Max: floatPtr(hi)}
	}

	return models.Subscriber{
		Preferences: pref,
		Contact:     models.Contact{UserID: userID, Email: email, Name: name},
	}, nil
}
