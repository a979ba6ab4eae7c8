// Command diabetecam serves the DiabèteCam screening dashboard and carries
// the database maintenance subcommands.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/diabetecam/diabetecam/internal/config"
	"github.com/diabetecam/diabetecam/internal/content"
	"github.com/diabetecam/diabetecam/internal/dataset"
	"github.com/diabetecam/diabetecam/internal/db"
	"github.com/diabetecam/diabetecam/internal/logging"
	"github.com/diabetecam/diabetecam/internal/metrics"
	"github.com/diabetecam/diabetecam/internal/services"
	"github.com/diabetecam/diabetecam/view"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

const appName = "diabetecam"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Diabetes screening dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// a missing .env is normal in containers
			_ = godotenv.Load(envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration")

	cmd.AddCommand(serveCmd(), migrateCmd(), seedCmd(), createUserCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})
	return cmd
}

// env loads and validates configuration and builds the logger.
func env() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := logging.New(cfg.App.Dev, cfg.App.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

// openMigrated connects and brings the schema up to date.
func openMigrated(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	conn, err := db.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn, cfg.Database); err != nil {
		return nil, err
	}
	return conn, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := env()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return serve(cfg, logger)
		},
	}
}

func serve(cfg *config.Config, logger *zap.Logger) error {
	view.SetDev(cfg.App.Dev)

	conn, err := openMigrated(cfg, logger)
	if err != nil {
		return err
	}
	if cfg.Database.Seed && cfg.App.AuthMode == config.AuthDatabase {
		if err := db.Seed(conn); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	data, err := dataset.Load(cfg.App.DatasetPath)
	if err != nil {
		logger.Warn("dataset not loaded, dependent pages will show the empty state",
			zap.String("path", cfg.App.DatasetPath), zap.Error(err))
	} else {
		logger.Info("dataset loaded",
			zap.String("path", cfg.App.DatasetPath),
			zap.Int("rows", data.Len()),
			zap.Int("dropped", data.Dropped()))
	}
	lib, err := content.Default()
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}

	app, err := NewApp(Deps{
		Config:  cfg,
		DB:      conn,
		Data:    data,
		Content: lib,
		Metrics: metrics.New(),
		Log:     logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.Bool("dev", cfg.App.Dev),
			zap.String("auth_mode", cfg.App.AuthMode),
			zap.String("backend", cfg.Database.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-quit:
	}
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := env()
			if err != nil {
				return err
			}
			if _, err := openMigrated(cfg, logger); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info("migrations completed")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demonstration accounts and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := env()
			if err != nil {
				return err
			}
			conn, err := openMigrated(cfg, logger)
			if err != nil {
				return err
			}
			if err := db.Seed(conn); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			logger.Info("seeding completed")
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var (
		in          services.NewUser
		permissions string
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := env()
			if err != nil {
				return err
			}
			conn, err := openMigrated(cfg, logger)
			if err != nil {
				return err
			}
			in.Permissions = splitList(permissions)
			u, err := services.NewUserService(conn, logger).Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, role %s, pages %s)\n",
				u.Username, u.ID, u.Role, u.Permissions)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Username, "username", "", "Login name")
	f.StringVar(&in.Password, "password", "", "Initial password (at least 6 characters)")
	f.StringVar(&in.Role, "role", "medecin", "Role: medecin, infirmier or admin")
	f.StringVar(&in.FullName, "full-name", "", "Display name")
	f.StringVar(&permissions, "permissions", "", "Comma-separated page names; empty means the role defaults")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("full-name")
	return cmd
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
