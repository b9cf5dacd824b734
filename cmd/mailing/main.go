package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diy-network/core/internal/app"
	"github.com/diy-network/core/internal/config"
	"github.com/diy-network/core/internal/database"
	"github.com/diy-network/core/internal/middleware"
	"github.com/diy-network/core/internal/pkg/jwt"
	"github.com/diy-network/core/internal/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "mailing",
		Short:         "Send the digest of new events to active subscribers",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDigest(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultConfigPath, "Path to YAML config file")
	cmd.AddCommand(newMigrateCmd(opts), newTokenCmd(opts))
	return cmd
}

func setup(opts *options) (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(logging.Options{Dir: cfg.Paths.Logs, Debug: cfg.IsDev()})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, logger, nil
}

// runDigest performs one digest pass. Every status, a failed delivery
// included, ends with exit code 0; only setup and unexpected errors fail.
func runDigest(ctx context.Context, opts *options) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := app.Connect(cfg, false)
	if err != nil {
		logger.Error("connect", zap.Error(err))
		return err
	}
	defer infra.Close()

	services, err := app.NewServices(cfg, infra, logger)
	if err != nil {
		logger.Error("build services", zap.Error(err))
		return err
	}

	res, err := services.Digest.Run(ctx)
	if err != nil {
		logger.Error("digest run failed", zap.Error(err))
		return err
	}
	logger.Info("digest run finished",
		zap.String("status", string(res.Status)),
		zap.Int("recipients", res.Recipients),
		zap.Int("items", res.Items),
	)
	return nil
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.Connect(cfg, true)
			if err != nil {
				return err
			}
			logger.Info("schema is up to date")
			return database.Close(db)
		},
	}
}

func newTokenCmd(opts *options) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("jwt_secret is not configured")
			}
			signer, err := jwt.NewSigner(cfg.JWTSecret)
			if err != nil {
				return err
			}
			token, err := signer.Sign(subject, middleware.RoleAdmin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime")
	return cmd
}
