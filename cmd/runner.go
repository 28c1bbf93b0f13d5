package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pawalert/internal/dedup"
	"github.com/desertthunder/pawalert/internal/matching"
	"github.com/desertthunder/pawalert/internal/notify"
	"github.com/desertthunder/pawalert/internal/repositories"
	"github.com/desertthunder/pawalert/internal/shared"
	"github.com/desertthunder/pawalert/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	ownsDB     bool
	sender     notify.Sender
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	closeOnce  sync.Once
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB       // opened from [database] path when nil
	Sender     notify.Sender // built from [notify] when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		sender:     opts.Sender,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, usersCommand, prefsCommand, listingCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// LoadConfig reads --config when the file exists and applies the log level.
//
// A missing file keeps the current (default) config; an invalid one is an error.
func (r *Runner) LoadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	shared.SetLogLevel(r.logger, r.config.Log.Level)
	return ctx, nil
}

// database opens (once) and migrates the configured database.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.ownsDB = true
	return db, nil
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		if r.db != nil && r.ownsDB {
			r.db.Close()
		}
	})
}

func (r *Runner) notifier() (*notify.Dispatcher, error) {
	sender := r.sender
	if sender == nil {
		var err error
		if sender, err = notify.NewSender(r.config.Notify, r.logger, r.httpClient); err != nil {
			return nil, err
		}
	}
	return notify.NewDispatcher(sender, r.logger, notify.Options{
		Timeout:   r.config.Engine.DispatchTimeout.Duration,
		RateLimit: r.config.Notify.RateLimit,
	}), nil
}

// newEngine wires store, selector, dispatcher and claimer into a [tasks.Engine].
func (r *Runner) newEngine(db *sql.DB, notifier tasks.Notifier, claims dedup.Claimer) (*tasks.Engine, error) {
	policy, err := matching.ParseEmptySetPolicy(r.config.Matching.EmptySetPolicy)
	if err != nil {
		return nil, err
	}

	store := repositories.NewPreferenceRepository(db)
	selector := matching.NewSelector(store, matching.Matcher{EmptySet: policy}.Matches)

	return tasks.NewEngine(selector, notifier, claims, r.logger, tasks.Options{
		QueueSize:       r.config.Engine.QueueSize,
		CycleWorkers:    r.config.Engine.CycleWorkers,
		DispatchWorkers: r.config.Engine.DispatchWorkers,
		ClaimTTL:        r.config.Engine.ClaimTTL.Duration,
	}), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
