package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/routes"
	"github.com/cppla/blog/store"
	"github.com/cppla/blog/utils"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	port       string
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "blog",
		Short:         "Multi-user blog with admin-approved authors",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the optional JSON config file")
	cmd.PersistentFlags().StringVar(&opts.port, "port", "", "Listen port, overrides PORT")
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newBootstrapCommand(opts))
	return cmd
}

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func newBootstrapCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create or repair the admin account and exit",
		Long: `Ensure exactly one "admin" account exists with both the admin and
approved flags set. A missing account is created from ADMIN_EMAIL and
ADMIN_PASSWORD; an existing one keeps its password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, db, err := setup(opts)
			if err != nil {
				return err
			}
			defer closeAll(logger, db)
			_, err = bootstrapAdmin(cmd.Context(), cfg, store.New(db), logger)
			return err
		},
	}
}

func setup(opts *options) (config.AppConfig, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if opts.port != "" {
		cfg.AppPort = opts.port
	}

	logger, err := utils.NewLogger(cfg)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	if cfg.UsesDevSecret() {
		logger.Warn("SECRET_KEY is the development default; set it before exposing the server")
	}

	db, err := config.OpenDatabase(cfg, models.All()...)
	if err != nil {
		_ = logger.Sync()
		return cfg, nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, logger, db, nil
}

func bootstrapAdmin(ctx context.Context, cfg config.AppConfig, s *store.Store, logger *zap.Logger) (*models.User, error) {
	admin, created, err := s.EnsureAdmin(ctx, store.AdminSeed{Email: cfg.AdminEmail, Password: cfg.AdminPassword})
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logger.Info("admin account created", zap.Uint("user_id", admin.ID), zap.String("email", admin.Email))
	} else {
		logger.Info("admin account present", zap.Uint("user_id", admin.ID))
	}
	return admin, nil
}

func runServe(ctx context.Context, opts *options) error {
	cfg, logger, db, err := setup(opts)
	if err != nil {
		return err
	}
	defer closeAll(logger, db)

	s := store.New(db)
	if _, err := bootstrapAdmin(ctx, cfg, s, logger); err != nil {
		return err
	}

	rc, err := utils.NewRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
		logger.Info("session revocation list backed by redis", zap.String("host", cfg.RedisHost))
	}

	r := routes.SetupRouter(routes.Deps{
		Config:    cfg,
		Store:     s,
		Codec:     utils.NewSessionCodec(cfg.SecretKey, cfg.SessionCookieName, time.Duration(cfg.SessionMaxAgeHours)*time.Hour, cfg.SessionSecure),
		Blacklist: utils.NewTokenBlacklist(rc),
		Logger:    logger,
	})

	logger.Info("starting server (graceful)", zap.String("port", cfg.AppPort))
	if err := utils.GraceServer(ctx, ":"+cfg.AppPort, r, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	return nil
}

func closeAll(logger *zap.Logger, db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Sync()
}
