package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go-snapcatalog/internal/config"
)

var (
	verbose    bool
	configPath string
	backend    string
	target     string
	dedup      bool
	strict     bool
)

var rootCmd = &cobra.Command{
	Use:   "snapcatalog",
	Short: "Catalog places, people and companies from social media screenshots",
	Long: `snapcatalog sends screenshots to a vision model, resolves every subject it
finds with places and web search, and files the result in your catalog or
your maps "want to go" list.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultName, "Config file (a .local variant is merged on top)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Catalog backend override: notion, sqlite or vault")
	rootCmd.PersistentFlags().StringVar(&target, "target", "", "Location target override: maps or catalog")
	rootCmd.PersistentFlags().BoolVar(&dedup, "dedup", false, "Skip names already in the catalog")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Fail the batch on malformed model output")

	rootCmd.AddCommand(runCmd, parseCmd, listCmd, watchCmd)
}

// loadFile reads the config file and applies flag overrides.
func loadFile() (config.File, error) {
	f, found, err := config.Read(configPath)
	if err != nil {
		return f, err
	}
	if !found {
		slog.Debug("snapcatalog: no config file, using defaults", "file", configPath)
	}
	applyFlags(&f)
	return f, nil
}

func applyFlags(f *config.File) {
	if backend != "" {
		f.Catalog.Backend = backend
	}
	if target != "" {
		f.Pipeline.LocationTarget = target
	}
	if dedup {
		f.Pipeline.Dedup = true
	}
	if strict {
		f.Pipeline.StrictParse = true
	}
}

func loadRuntime(ctx context.Context) (*config.Runtime, error) {
	f, err := loadFile()
	if err != nil {
		return nil, err
	}
	return config.Build(ctx, f, os.Getenv)
}
