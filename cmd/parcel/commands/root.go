package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/marshallshelly/parcel-orm/pkg/catalog"
	"github.com/marshallshelly/parcel-orm/pkg/logger"
	"github.com/marshallshelly/parcel-orm/pkg/model"
	"github.com/marshallshelly/parcel-orm/pkg/registry"
	"github.com/marshallshelly/parcel-orm/pkg/runtime"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	dbURL      string
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "parcel",
	Short: "Parcel - relation-aware PostgreSQL mapper for the cadastral backend",
	Long: `Parcel reads the cadastral catalog (shapes, forms, institutions and their
relations) through the relation-aware mapper.

Features:
  - belongsTo, hasMany and belongsToMany includes, loaded concurrently
  - filtering by related entities (--where-relation)
  - GeoJSON geometry for shapes, with status, institution and municipality filters`,
	Version:       "0.4.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (PARCEL_* environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (overrides the config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every statement")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// session is everything a command needs to run queries.
type session struct {
	db      *runtime.DB
	catalog *catalog.Catalog
	tables  *registry.Registry
	log     zerolog.Logger
}

func (s *session) Close() {
	s.db.Close()
}

func loadConfig() (*runtime.Config, error) {
	if dbURL != "" {
		cfg := runtime.DefaultConfig()
		cfg.URL = dbURL
		return cfg, nil
	}
	return runtime.LoadConfig(configPath)
}

// newCatalog builds the registered catalog with the given logger and config.
func newCatalog(log zerolog.Logger, cfg *runtime.Config) (*catalog.Catalog, *registry.Registry, error) {
	c := catalog.New(model.WithLogger(log), model.WithConcurrency(cfg.LoaderConcurrency))
	r := registry.NewRegistry()
	if err := c.Register(r); err != nil {
		return nil, nil, err
	}
	return c, r, nil
}

func newLogger(cfg *runtime.Config) (zerolog.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logger.New().FromWriter(os.Stderr).Level(level).Make()
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	c, r, err := newCatalog(log, cfg)
	if err != nil {
		return nil, err
	}

	db, err := runtime.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &session{db: db, catalog: c, tables: r, log: log}, nil
}
