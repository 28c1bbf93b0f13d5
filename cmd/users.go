package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/repositories"
)

type userView struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewUser(u *models.User) userView {
	return userView{ID: u.ID(), Sequence: u.Sequence(), Email: u.Email(), Name: u.Name(), CreatedAt: u.CreatedAt()}
}

// resolveUser looks a user up by email when ref contains "@", otherwise by ID.
func resolveUser(ctx context.Context, users *repositories.UserRepository, ref string) (*models.User, error) {
	ref = strings.TrimSpace(ref)
	if strings.Contains(ref, "@") {
		return users.GetByEmail(ctx, ref)
	}
	return users.Get(ctx, ref)
}

// UsersAdd registers an adopter.
func (r *Runner) UsersAdd(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	user := models.NewUser(0, cmd.String("email"), cmd.String("name"))
	if err := repositories.NewUserRepository(db).Create(ctx, user); err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}

	r.logger.Info("user added", "id", user.ID(), "email", user.Email())
	return r.writePlain("✓ Added %s (%s)\n", user.Email(), user.ID())
}

// UsersList prints live adopters in registration order.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	users, err := repositories.NewUserRepository(db).List(ctx, map[string]any{})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]userView, 0, len(users))
		for _, u := range users {
			views = append(views, viewUser(u))
		}
		return r.writeJSON(views, true)
	}

	if len(users) == 0 {
		return r.writePlain("No users\n")
	}
	for _, u := range users {
		if err := r.writePlain("%4d  %s  %-30s %s\n", u.Sequence(), u.ID(), u.Email(), u.Name()); err != nil {
			return err
		}
	}
	return nil
}

// UsersRemove soft-deletes an adopter. Their preferences stop matching immediately.
func (r *Runner) UsersRemove(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	users := repositories.NewUserRepository(db)
	user, err := resolveUser(ctx, users, cmd.String("user"))
	if err != nil {
		return err
	}
	if err := users.Delete(ctx, user.ID()); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s\n", user.Email())
}
