package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/balkashynov/tempo/internal/config"
	"github.com/balkashynov/tempo/internal/db"
	"github.com/balkashynov/tempo/internal/ical"
	"github.com/balkashynov/tempo/internal/linkage"
	"github.com/balkashynov/tempo/internal/logging"
	"github.com/balkashynov/tempo/internal/models"
	"github.com/balkashynov/tempo/internal/parser"
	"github.com/balkashynov/tempo/internal/recurrence"
	"github.com/balkashynov/tempo/internal/schedule"
	"github.com/balkashynov/tempo/internal/stats"
	"github.com/balkashynov/tempo/internal/tracking"
)

// app holds everything a command needs, wired from the config file
type app struct {
	loc   *time.Location
	log   zerolog.Logger
	store *db.Store
	user  models.User
	now   func() time.Time

	tracking *tracking.Service
	linkage  *linkage.Service
	schedule *schedule.Reconciler
	stats    *stats.Aggregator
	exporter *ical.Exporter

	closers []func() error
}

// openApp is replaced in tests
var openApp = newApp

func newApp() (*app, error) {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	engine, err := cfg.Engine()
	if err != nil {
		return nil, err
	}

	log, closeLog, err := logging.Open(cfg.Logging(verbose))
	if err != nil {
		return nil, err
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		closeLog()
		return nil, err
	}
	store, err := db.Open(dbPath, loc)
	if err != nil {
		closeLog()
		return nil, err
	}
	log.Debug().Str("config", path).Str("database", dbPath).Str("timezone", loc.String()).Msg("opened")

	a, err := buildApp(store, engine, cfg.Cache(), log, cfg.User)
	if err != nil {
		store.Close()
		closeLog()
		return nil, err
	}
	a.closers = append(a.closers, store.Close, closeLog)
	return a, nil
}

// buildApp wires the services on top of an open store
func buildApp(store *db.Store, engine recurrence.Engine, cache *stats.Cache, log zerolog.Logger, user config.UserConfig) (*app, error) {
	u, err := store.EnsureUser(user.Email, user.Name)
	if err != nil {
		return nil, err
	}

	loc := store.Location()
	agg := stats.NewAggregator(store, engine, cache, log.With().Str("component", "stats").Logger())
	return &app{
		loc:      loc,
		log:      log,
		store:    store,
		user:     u,
		now:      func() time.Time { return time.Now().In(loc) },
		tracking: tracking.NewService(store, agg, log.With().Str("component", "tracking").Logger()),
		linkage:  linkage.NewService(store, engine.Expander, agg, log.With().Str("component", "linkage").Logger()),
		schedule: schedule.NewReconciler(store, engine, log.With().Str("component", "schedule").Logger()),
		stats:    agg,
		exporter: ical.NewExporter(engine),
	}, nil
}

// Close releases the database and log file
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withApp wraps a command function to open the app first
func withApp(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(a, cmd, args)
	}
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

// parseID parses a positional row id
func parseID(what, s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s ID '%s'", what, s)
	}
	return uint(id), nil
}

// day parses a date argument, defaulting to today
func (a *app) day(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		s = "today"
	}
	return parser.ParseDate(s, a.now())
}

// instant parses "<date>" or "<date> HH:MM". A bare date means the start of
// the day, or its last minute when endOfDay is set.
func (a *app) instant(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	datePart, clockPart := s, ""
	if i := strings.LastIndexAny(s, " T"); i > 0 && strings.Contains(s[i+1:], ":") {
		datePart, clockPart = s[:i], s[i+1:]
	}

	d, err := parser.ParseDate(datePart, a.now())
	if err != nil {
		return time.Time{}, err
	}
	if clockPart == "" {
		if endOfDay {
			return models.MaxClock.On(d), nil
		}
		return d, nil
	}
	c, err := models.ParseClock(clockPart)
	if err != nil {
		return time.Time{}, err
	}
	return c.On(d), nil
}
