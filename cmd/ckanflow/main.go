// Package main provides the ckanflow command line and MCP server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/natefinch/lumberjack"
	"github.com/rpggio/ckanflow/internal/ckan"
	"github.com/rpggio/ckanflow/internal/config"
	"github.com/rpggio/ckanflow/internal/domain/quality"
	"github.com/rpggio/ckanflow/internal/domain/workflow"
	"github.com/rpggio/ckanflow/internal/report"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ckanflow",
	Short: "CKAN metadata quality scoring and exploration workflows",
	Long: `ckanflow scores the metadata quality of CKAN datasets and runs small exploration workflows
against a CKAN portal, either from the command line or as an MCP server.

Configuration comes from CKANFLOW_CONFIG_PATH (YAML) and CKANFLOW_* environment variables.`,
	SilenceUsage: true,
}

var (
	outputFormat string
	serverURL    string
	backend      string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json, text or csv")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "CKAN portal URL (overrides ckan.server_url)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Catalog backend: mcp or http (overrides ckan.backend)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig applies command line overrides on top of config.Load.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if serverURL != "" {
		cfg.CKAN.ServerURL = serverURL
	}
	if backend != "" {
		cfg.CKAN.Backend = backend
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func parseFormat() (report.Format, error) {
	return report.ParseFormat(outputFormat)
}

// newLogger writes to w, or to a rotating file when a log path is set.
func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, io.Closer) {
	var closer io.Closer = io.NopCloser(nil)
	if cfg.Log.Path != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.Log.Path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		w, closer = file, file
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return logger, closer
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newScorer(cfg config.Config) *quality.Scorer {
	qc := quality.DefaultConfig()
	qc.Levels = quality.Levels{
		Excellent:  cfg.Quality.Excellent,
		Good:       cfg.Quality.Good,
		Acceptable: cfg.Quality.Acceptable,
	}
	return quality.NewScorer(qc)
}

func workflowOptions(cfg config.Config) workflow.Options {
	opts := workflow.DefaultOptions()
	opts.SearchRows = cfg.CKAN.SearchRows
	opts.Threshold = cfg.Quality.Threshold
	opts.DatastoreLimit = cfg.CKAN.DatastoreLimit
	opts.ExtractLimit = cfg.Workflow.ExtractLimit
	opts.Concurrency = cfg.Workflow.Concurrency
	return opts
}

type catalog interface {
	workflow.Catalog
	io.Closer
}

// openCatalog connects the configured backend.
func openCatalog(ctx context.Context, cfg config.Config, logger *slog.Logger) (catalog, error) {
	switch cfg.CKAN.Backend {
	case "http":
		return ckan.NewHTTPCatalog(ckan.HTTPConfig{
			ServerURL: cfg.CKAN.ServerURL,
			UserAgent: cfg.CKAN.UserAgent,
			Timeout:   cfg.CKAN.Timeout,
		}, &http.Client{Timeout: cfg.CKAN.Timeout}, logger), nil
	default:
		cat, err := ckan.DialMCP(ctx, ckan.MCPConfig{
			ServerURL: cfg.CKAN.ServerURL,
			Command:   cfg.CKAN.MCPCommand,
			Args:      cfg.CKAN.MCPArgs,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open mcp catalog: %w", err)
		}
		return cat, nil
	}
}

// newService wires the catalog, scorer and workflow service.
func newService(ctx context.Context, cfg config.Config, logger *slog.Logger) (*workflow.Service, *quality.Scorer, io.Closer, error) {
	scorer := newScorer(cfg)
	cat, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	svc := workflow.NewService(cat, scorer, workflowOptions(cfg), cfg.Workflow.MaxSteps, logger)
	return svc, scorer, cat, nil
}
