/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Berylsoft/Zeon/pkg/config"
	"github.com/Berylsoft/Zeon/pkg/store"
)

type appKey struct{}

// app is the state shared by every command, built before the command runs
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	registry   *prometheus.Registry
}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

// openStore opens the commit store described by the loaded config
func (a *app) openStore() (*store.CommitStore, error) {
	s, err := store.Open(a.cfg,
		store.WithLogger(a.logger),
		store.WithRegisterer(a.registry))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// NewRootCmd builds the zeon command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zeon",
		Short: "Zeon - append-only commit log",
		Long: `Zeon stores commits of typed revisions in an append-only pair of files:
an index of fixed-size records and the self-describing binary content they
point to. Every record is verified against its hash when read.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if a == nil || a.cfg.Metrics.Textfile == "" {
				return nil
			}
			if err := prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, a.registry); err != nil {
				return fmt.Errorf("failed to write metrics: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", config.GetDefaultConfigPath(), "Path to the config file")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory, overrides the config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(
		newInitCmd(),
		newAppendCmd(),
		newLogCmd(),
		newShowCmd(),
		newVerifyCmd(),
		newRecoverCmd(),
		newHistoryCmd(),
		newStatsCmd(),
	)
	return rootCmd
}

// loadApp reads the config file when there is one and applies flag overrides
func loadApp(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if dataDir, _ := flags.GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if level, _ := flags.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if format, _ := flags.GetString("log-format"); format != "" {
		cfg.Logging.Format = format
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	return &app{
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		registry:   prometheus.NewRegistry(),
	}, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Logging.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
