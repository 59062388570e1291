package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shohag/pubsubsink/internal/api"
	"github.com/shohag/pubsubsink/internal/config"
	"github.com/shohag/pubsubsink/internal/storage"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pubsubsink",
		Short: "pubsubsink: Pub/Sub push receiver that stores every message it is sent",
	}

	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(resetCmd(&configPath))
	rootCmd.AddCommand(messagesCmd(&configPath))
	rootCmd.AddCommand(statsCmd(&configPath))
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the push receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log := setupLogger(cfg.Logging, os.Stdout)

			store, err := setupStorage(cfg.Storage, log)
			if err != nil {
				return fmt.Errorf("failed to setup storage: %w", err)
			}
			defer store.Close()

			ctx := context.Background()
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("database migrations completed")

			if cfg.Storage.ResetOnStart {
				removed, err := store.DeleteAllMessages(ctx)
				if err != nil {
					return fmt.Errorf("failed to reset messages: %w", err)
				}
				log.Info().Int64("removed", removed).Msg("message store reset")
			}

			server := api.NewServer(cfg, store, log)
			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server error")
				}
			}()

			log.Info().
				Str("host", cfg.Server.Host).
				Int("port", cfg.Server.Port).
				Str("storage", cfg.Storage.Driver).
				Str("payload_format", string(cfg.Storage.PayloadFormat)).
				Bool("push_token", cfg.Push.VerificationToken != "").
				Msg("pubsubsink is running")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info().Msg("shutting down...")

			if err := server.Shutdown(10 * time.Second); err != nil {
				log.Error().Err(err).Msg("server shutdown error")
			}

			log.Info().Msg("pubsubsink stopped")
			return nil
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cleanup, err := storeFromConfig(cmd.Context(), *configPath)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer cleanup()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations completed successfully")
			return nil
		},
	}
}

func resetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every stored message",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := storeFromConfig(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			removed, err := store.DeleteAllMessages(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to reset messages: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d messages\n", removed)
			return nil
		},
	}
}

func messagesCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Inspect stored messages",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print all stored messages as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := storeFromConfig(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			msgs, err := store.ListMessages(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list messages: %w", err)
			}

			if len(msgs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No messages found.")
				return nil
			}

			out, _ := json.MarshalIndent(msgs, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.AddCommand(listCmd)
	return cmd
}

func statsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number of stored messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := storeFromConfig(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := store.CountMessages(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to count messages: %w", err)
			}

			out, _ := json.MarshalIndent(map[string]int64{"total_messages": n}, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pubsubsink v%s\n", version)
		},
	}
}

// setupLogger tags every line with the service name and version.
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "pubsubsink").
		Str("version", version).
		Logger()
}

func setupStorage(cfg config.StorageConfig, log zerolog.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case "sqlite":
		log.Info().Str("path", cfg.SQLite.Path).Msg("using SQLite storage")
		return storage.NewSQLite(cfg.SQLite.Path)
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("storage.postgres.dsn is required for the postgres driver")
		}
		log.Info().Msg("using Postgres storage")
		return storage.NewPostgres(cfg.Postgres.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// storeFromConfig opens and migrates the configured store for the one-shot
// commands. The returned cleanup closes it.
func storeFromConfig(ctx context.Context, configPath string) (storage.Storage, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := setupStorage(cfg.Storage, setupLogger(cfg.Logging, os.Stderr))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, func() { store.Close() }, nil
}
