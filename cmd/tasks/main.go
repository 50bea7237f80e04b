package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/baiirun/tasks/internal/config"
	"github.com/baiirun/tasks/internal/console"
	"github.com/baiirun/tasks/internal/db"
	"github.com/baiirun/tasks/internal/telemetry"
)

const envFile = ".env"

var rootCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Interactive task manager",
	Long: `A menu-driven tool for adding, listing, updating and deleting tasks.

The store is configured through TASKS_* environment variables or a .env file
(TASKS_DB_DRIVER, TASKS_DB_HOST, TASKS_DB_PORT, TASKS_DB_USER,
TASKS_DB_PASSWORD, TASKS_DB_NAME). Without them tasks are kept in a sqlite
file under ~/.tasks.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, database *db.DB, logger *slog.Logger) error {
			// Schema problems are reported but do not stop the menu; each
			// operation reports its own failure.
			if err := database.EnsureSchema(ctx); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Could not prepare the tasks table: %v\n", err)
			}

			logger = logger.With("session", uuid.NewString())
			return console.New(database, cmd.InOrStdin(), cmd.OutOrStdout(), logger).Run(ctx)
		})
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and the tasks table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, database *db.DB, _ *slog.Logger) error {
			if err := database.EnsureSchema(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Table 'tasks' was created or already exists.")
			return nil
		})
	},
}

// withStore loads configuration, starts telemetry and opens the store around fn.
func withStore(ctx context.Context, fn func(context.Context, *db.DB, *slog.Logger) error) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	logOut, closeLog := openLogFile(cfg.LogFile)
	defer closeLog()

	shutdown, err := telemetry.Setup(ctx, logOut)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	database, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	return fn(ctx, database, telemetry.Logger())
}

// openLogFile returns the telemetry destination, falling back to discarding
// output when the file cannot be opened so the menu still works.
func openLogFile(path string) (io.Writer, func()) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { _ = f.Close() }
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
