package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shohag/lineapi/internal/api"
	"github.com/shohag/lineapi/internal/bot"
	"github.com/shohag/lineapi/internal/config"
	"github.com/shohag/lineapi/internal/flex"
	"github.com/shohag/lineapi/internal/messaging"
	"github.com/shohag/lineapi/internal/models"
	"github.com/shohag/lineapi/internal/storage"
	"github.com/shohag/lineapi/internal/webhook"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "lineapi",
		Short: "lineapi: LINE Messaging API client and webhook receiver",
	}

	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(pushCmd(&configPath))
	rootCmd.AddCommand(profileCmd(&configPath))
	rootCmd.AddCommand(flexCmd())
	rootCmd.AddCommand(purgeCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server with the demo command bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			log := setupLogger(cfg.Logging)

			store, err := setupStorage(cfg.Storage, log)
			if err != nil {
				return fmt.Errorf("failed to setup storage: %w", err)
			}

			var opts []webhook.Option
			if store != nil {
				defer store.Close()
				if err := store.Migrate(context.Background()); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
				log.Info().Msg("database migrations completed")
				opts = append(opts, webhook.WithLedger(store))
			}

			client := messaging.NewClient(cfg.Line, log)
			handler := webhook.NewHandler(cfg.Line.ChannelSecret, log, opts...)
			bot.New(client, log).Register(handler)

			server := api.NewServer(cfg.Server, handler, client, store, log)
			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server error")
				}
			}()

			log.Info().
				Str("version", version).
				Int("port", cfg.Server.Port).
				Str("storage", cfg.Storage.Driver).
				Msg("lineapi is running")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info().Msg("shutting down...")

			if err := server.Shutdown(10 * time.Second); err != nil {
				log.Error().Err(err).Msg("server shutdown error")
			}

			log.Info().Msg("lineapi stopped")
			return nil
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the processed-event ledger tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cleanup, err := storeFromConfig(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Println("migrations completed successfully")
			return nil
		},
	}
}

func pushCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Send a push message (billed) to a user, group or room",
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString("to")
			text, _ := cmd.Flags().GetString("text")
			flexFile, _ := cmd.Flags().GetString("flex")
			altText, _ := cmd.Flags().GetString("alt-text")
			silent, _ := cmd.Flags().GetBool("silent")
			if to == "" {
				return fmt.Errorf("--to is required")
			}

			var msgs []models.Message
			if text != "" {
				msgs = append(msgs, models.NewTextMessage(text))
			}
			if flexFile != "" {
				contents, err := readFlexFile(flexFile)
				if err != nil {
					return err
				}
				raw, err := json.Marshal(map[string]any{
					"type":     "flex",
					"altText":  altText,
					"contents": json.RawMessage(contents),
				})
				if err != nil {
					return err
				}
				if err := flex.ValidateJSON(raw); err != nil {
					return err
				}
				msgs = append(msgs, models.RawMessage(raw))
			}
			if len(msgs) == 0 {
				return fmt.Errorf("--text or --flex is required")
			}

			client, err := clientFromConfig(*configPath)
			if err != nil {
				return err
			}

			opts := []messaging.SendOption{messaging.WithNewRetryKey()}
			if silent {
				opts = append(opts, messaging.WithNotificationDisabled())
			}
			resp, err := client.PushMessage(cmd.Context(), to, msgs, opts...)
			if err != nil {
				return fmt.Errorf("failed to push message: %w", err)
			}

			out, _ := json.MarshalIndent(resp.SentMessages, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().String("to", "", "user, group or room id")
	cmd.Flags().String("text", "", "text message to send")
	cmd.Flags().String("flex", "", "path to a flex container JSON file")
	cmd.Flags().String("alt-text", "Flex message", "alt text for --flex")
	cmd.Flags().Bool("silent", false, "deliver without a notification")
	return cmd
}

func profileCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <userId>",
		Short: "Show a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromConfig(*configPath)
			if err != nil {
				return err
			}

			profile, err := client.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get profile: %w", err)
			}

			out, _ := json.MarshalIndent(profile, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
}

func flexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flex",
		Short: "Work with flex message JSON",
	}

	// flex validate
	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a flex container or flex message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := readFlexFile(args[0]); err != nil {
				return err
			}
			fmt.Printf("%s: valid\n", args[0])
			return nil
		},
	}

	// flex print
	printCmd := &cobra.Command{
		Use:   "print <file>",
		Short: "Validate and pretty-print flex JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readFlexFile(args[0])
			if err != nil {
				return err
			}
			out, err := flex.Indent(data)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.AddCommand(validateCmd, printCmd)
	return cmd
}

func purgeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete ledger rows older than retention.event_ttl",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			store, cleanup, err := storeFromConfig(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			before := time.Now().UTC().Add(-cfg.Retention.EventTTL)
			n, err := store.PurgeProcessedEvents(cmd.Context(), before)
			if err != nil {
				return fmt.Errorf("failed to purge events: %w", err)
			}

			fmt.Printf("purged %d events processed before %s\n", n, before.Format(time.RFC3339))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lineapi v%s\n", version)
		},
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// setupStorage returns a nil Storage when the ledger is disabled.
func setupStorage(cfg config.StorageConfig, log zerolog.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case "sqlite":
		log.Info().Str("path", cfg.SQLite.Path).Msg("using SQLite storage")
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
			return nil, err
		}
		store, err := storage.NewSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "none", "":
		log.Info().Msg("event ledger disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func clientFromConfig(configPath string) (*messaging.Client, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return messaging.NewClient(cfg.Line, setupLogger(cfg.Logging)), nil
}

func storeFromConfig(configPath string) (storage.Storage, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg.Logging)
	store, err := setupStorage(cfg.Storage, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup storage: %w", err)
	}
	if store == nil {
		return nil, nil, fmt.Errorf("storage driver %q has no ledger", cfg.Storage.Driver)
	}

	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, func() { store.Close() }, nil
}

func readFlexFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := flex.ValidateJSON(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}
