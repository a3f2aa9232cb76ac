package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docvault/internal/app"
	"docvault/internal/config"
	"docvault/internal/repository/postgres"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env and the environment, and sets up logging.
// The caller must close the returned closer.
func loadConfig() (*config.Config, *slog.Logger, func(), error) {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer, err := config.NewLogger(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setting up logging: %w", err)
	}
	return cfg, logger, func() { closer.Close() }, nil
}

// newApp loads configuration and connects. The caller must defer the returned cleanup.
func newApp(ctx context.Context) (*app.App, func(), error) {
	cfg, logger, closeLog, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		closeLog()
		return nil, nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, func() { a.Close(); closeLog() }, nil
}

var rootCmd = &cobra.Command{
	Use:          "docctl",
	Short:        "Administer the docvault database",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := loadConfig()
		if err != nil {
			return err
		}
		defer closeLog()

		return postgres.MigrateUp(cfg.DatabaseURL, logger)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default departments if none exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := a.Maintenance.Seed(cmd.Context()); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
		fmt.Println("Departments seeded")
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all data and re-seed the default departments",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		force, _ := cmd.Flags().GetBool("force")
		if !yes {
			return errors.New("reset deletes every user and document; pass --yes to confirm")
		}

		a, cleanup, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if a.Config.IsProduction() && !force {
			return errors.New("refusing to reset a production database without --force")
		}

		result, err := a.Maintenance.Reset(cmd.Context())
		if err != nil {
			return fmt.Errorf("resetting: %w", err)
		}
		fmt.Println(result.Message)
		return nil
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant the Admin role to a registered user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := a.Auth.Promote(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("promoting %s: %w", args[0], err)
		}
		fmt.Printf("%s is now an admin\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
	resetCmd.Flags().Bool("force", false, "Allow resetting a production database")
	rootCmd.AddCommand(promoteCmd)
}
