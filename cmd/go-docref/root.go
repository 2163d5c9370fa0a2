package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-docref/pkg/backend"
	"github.com/adfharrison1/go-docref/pkg/collection"
	"github.com/adfharrison1/go-docref/pkg/config"
	"github.com/adfharrison1/go-docref/pkg/domain"
	"github.com/adfharrison1/go-docref/pkg/logger"
	"github.com/adfharrison1/go-docref/pkg/metrics"
)

var (
	configPath  string
	backendName string
	location    string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:          "go-docref",
	Short:        "Batched document collections",
	Long:         "go-docref stages inserts, updates and removals against a document collection and commits them in one batch.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&backendName, "backend", "b", "", fmt.Sprintf("store backend (%s)", strings.Join(backend.Names(), ", ")))
	rootCmd.PersistentFlags().StringVarP(&location, "location", "l", "", "store location: data directory for godb, database file for sqlite")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(pageCmd)
	rootCmd.AddCommand(dropCmd)
}

// runtime is everything a command needs to reach the store
type runtime struct {
	config config.Config
	opener domain.Opener
	logger *zap.SugaredLogger
}

// loadRuntime reads the config file, applies the flags given on the command
// line and builds the logger and opener
func loadRuntime() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if backendName != "" {
		cfg.Backend = backendName
	}
	if location != "" {
		cfg.Location = location
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(cfg.Log.Level, logger.ParseFormat(cfg.Log.Format)).Sugar()
	opener, err := backend.New(cfg.Backend, backend.Settings{
		MaxCollections: cfg.MaxCollections,
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}

	log.Debugw("Runtime ready", "backend", cfg.Backend, "location", cfg.Location)
	return &runtime{config: cfg, opener: opener, logger: log}, nil
}

// reference opens a document reference on collection
func (rt *runtime) reference(collName string) (*collection.Reference[domain.Document], error) {
	return collection.New[domain.Document](rt.config.Location, collName,
		collection.WithOpener(rt.opener),
		collection.WithLogger(rt.logger),
		collection.WithMetrics(metrics.Default()))
}

// close releases the store and flushes the logger
func (rt *runtime) close() {
	if closer, ok := rt.opener.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			rt.logger.Warnf("Failed to close store: %v", err)
		}
	}
	_ = rt.logger.Sync()
}

// printJSON writes v to the command output as indented JSON
func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
