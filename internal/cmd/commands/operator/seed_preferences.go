package operator

import (
	"context"
	"flag"
	"fmt"

	"gorm.io/gorm/logger"

	"github.com/helpdeskhq/helpdesk/internal/cmd/base"
	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/db"
	"github.com/helpdeskhq/helpdesk/internal/store"
	"github.com/helpdeskhq/helpdesk/pkg/database"
	"github.com/helpdeskhq/helpdesk/pkg/models"
)

type SeedPreferencesCommand struct {
	*base.Command

	flagConfig    string
	flagDryRun    bool
	flagBatchSize int
	flagVerbose   bool
}

func (c *SeedPreferencesCommand) Synopsis() string {
	return "Create default notification preferences for users without any"
}

func (c *SeedPreferencesCommand) Help() string {
	return `Usage: helpdesk operator seed-preferences

  This command saves the default notification preferences (every email
  enabled) for all users who never saved their settings. Users are processed
  in batches with progress logging.` +
		c.Flags().Help()
}

func (c *SeedPreferencesCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(
		flag.NewFlagSet("seed-preferences", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to helpdesk config file",
	)
	f.BoolVar(
		&c.flagDryRun, "dry-run", false,
		"Only print what would be done without making changes.",
	)
	f.IntVar(
		&c.flagBatchSize, "batch-size", 100,
		"Number of users to process per batch.",
	)
	f.BoolVar(
		&c.flagVerbose, "verbose", false,
		"Print extra information including each user and the SQL statements.",
	)

	return f
}

func (c *SeedPreferencesCommand) Run(args []string) int {
	log, ui := c.Log, c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if c.flagConfig == "" {
		ui.Error("config flag is required")
		return 1
	}
	if c.flagBatchSize < 1 {
		ui.Error("batch-size must be at least 1")
		return 1
	}

	cfg, err := config.NewConfig(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}

	gdb, err := db.NewDB(*cfg.Postgres, log)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing database: %v", err))
		return 1
	}
	logLevel := logger.Silent
	if c.flagVerbose {
		logLevel = logger.Info
	}
	gdb.Logger = database.NewGormLogger(log.Named("gorm")).LogMode(logLevel)

	if c.flagDryRun {
		ui.Warn("DRY RUN mode enabled - no changes will be made")
	}
	ui.Info(fmt.Sprintf("Processing in batches of %d users", c.flagBatchSize))

	res := seedPreferences(context.Background(), store.NewGormStore(gdb), seedOptions{
		batchSize: c.flagBatchSize,
		dryRun:    c.flagDryRun,
		visit: func(userID string) {
			if c.flagVerbose {
				ui.Info(fmt.Sprintf("User %s -> default preferences", userID))
			}
		},
		batchDone: func(processed int) {
			if !c.flagVerbose {
				ui.Info(fmt.Sprintf("Progress: %d users processed", processed))
			}
		},
	})

	ui.Info("")
	ui.Info("=== Summary ===")
	ui.Info(fmt.Sprintf("Users without preferences: %d", res.processed))
	if c.flagDryRun {
		ui.Info(fmt.Sprintf("Would seed preferences for: %d users", res.seeded))
	} else {
		ui.Info(fmt.Sprintf("Preferences seeded: %d", res.seeded))
	}
	if res.err != nil {
		ui.Error(res.err.Error())
		return 1
	}
	if res.failed > 0 {
		ui.Error(fmt.Sprintf("Errors encountered: %d", res.failed))
		return 1
	}

	if c.flagDryRun {
		ui.Warn("DRY RUN completed - no changes were made")
	} else if res.processed == 0 {
		ui.Info("All users already have notification preferences")
	} else {
		ui.Info("Preference seeding completed successfully")
	}
	return 0
}

type seedOptions struct {
	batchSize int
	dryRun    bool
	visit     func(userID string)
	batchDone func(processed int)
}

type seedResult struct {
	processed int
	seeded    int
	failed    int
	err       error
}

type preferenceSeeder interface {
	ProfilesWithoutPreferences(ctx context.Context, afterID string, limit int) ([]string, error)
	UpsertPreference(ctx context.Context, np *models.NotificationPreference) error
}

// seedPreferences pages through users without preferences by ID so rows
// created by earlier batches do not shift later pages.
func seedPreferences(ctx context.Context, s preferenceSeeder, opts seedOptions) seedResult {
	var res seedResult
	afterID := ""
	for {
		ids, err := s.ProfilesWithoutPreferences(ctx, afterID, opts.batchSize)
		if err != nil {
			res.err = fmt.Errorf("error fetching users after %q: %w", afterID, err)
			return res
		}
		if len(ids) == 0 {
			return res
		}

		for _, id := range ids {
			res.processed++
			if opts.visit != nil {
				opts.visit(id)
			}
			if !opts.dryRun {
				np := models.DefaultNotificationPreference(id)
				if err := s.UpsertPreference(ctx, &np); err != nil {
					res.failed++
					continue
				}
			}
			res.seeded++
		}
		afterID = ids[len(ids)-1]

		if opts.batchDone != nil {
			opts.batchDone(res.processed)
		}
		if len(ids) < opts.batchSize {
			return res
		}
	}
}
