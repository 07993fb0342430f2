package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tasteline/tasteline/internal/analytics"
	"github.com/tasteline/tasteline/internal/config"
	"github.com/tasteline/tasteline/internal/logging"
	"github.com/tasteline/tasteline/internal/store"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tasteline",
	Short: "Analyzes how a listener's music taste evolves over time",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is ./tasteline.yaml)")

	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL")
	viper.BindPFlag("database_url", rootCmd.PersistentFlags().Lookup("database-url"))

	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// loadConfig merges the config file, environment and any flag
// overrides bound through viper.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("database_url"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := viper.GetString("log_level"); v != "" {
		cfg.LogLevel = v
	}
	if v := viper.GetString("addr"); v != "" {
		cfg.Addr = v
	}
	return cfg, nil
}

// appEnv bundles the shared dependencies of the data commands.
type appEnv struct {
	cfg    *config.Config
	db     *store.DB
	engine *analytics.Engine
	log    zerolog.Logger
}

// newAppEnv connects to the database and assembles the engine.
func newAppEnv(ctx context.Context) (*appEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	engine := analytics.New(
		db.Feedback(),
		db.Listening(),
		db.Snapshots(),
		log,
		analytics.WithCacheTTL(cfg.CacheTTL),
	)

	return &appEnv{cfg: cfg, db: db, engine: engine, log: log}, nil
}

func (env *appEnv) close() {
	env.db.Close()
}
