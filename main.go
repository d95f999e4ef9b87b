package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Barrelito/sam-a-sub001/Config"
	"github.com/Barrelito/sam-a-sub001/CronJobs"
	"github.com/Barrelito/sam-a-sub001/FiberConfig"
	"github.com/Barrelito/sam-a-sub001/Logging"
	"github.com/Barrelito/sam-a-sub001/Models"
	"github.com/Barrelito/sam-a-sub001/Notifications"
	"github.com/Barrelito/sam-a-sub001/Seed"
	"github.com/Barrelito/sam-a-sub001/email"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "stationportal",
	Short:         "Ambulance station admin portal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the reminder scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := setup()
		if err != nil {
			return err
		}

		var mailer email.Sender
		if cfg.EmailEnabled() {
			mailer = email.NewSMTPSender(email.FromConfig(cfg))
		}
		var slack Notifications.Poster
		if cfg.SlackEnabled() {
			slack = Notifications.NewSlackPoster(cfg.SlackToken, cfg.SlackChannel)
		}
		reminders := CronJobs.NewReminderJob(db, cfg.ReminderSchedule, mailer, slack)
		if err := reminders.Start(); err != nil {
			return err
		}
		defer reminders.Stop()

		return FiberConfig.Serve(cmd.Context(), cfg, db)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Connect migrates
		_, _, err := setup()
		if err != nil {
			return err
		}
		Logging.GetLogger().Info("schema up to date")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.json5>",
	Short: "Load reference data from a JSON5 file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		_, err = Seed.LoadFile(cmd.Context(), db, args[0])
		return err
	},
}

func setup() (Config.Config, *gorm.DB, error) {
	cfg, err := Config.Load(envFile)
	if err != nil {
		return Config.Config{}, nil, err
	}
	Logging.SetLevel(cfg.LogLevel)
	if cfg.DefaultSecret() {
		Logging.GetLogger().Warn("JWT_SECRET is not set, sessions are signed with the built-in development secret")
	}
	db, err := Models.Connect(cfg)
	if err != nil {
		return Config.Config{}, nil, errors.Wrap(err, "connect database")
	}
	return cfg, db, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		Logging.GetLogger().WithError(err).Error("command failed")
		stop()
		os.Exit(1)
	}
}
