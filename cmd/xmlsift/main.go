package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dgallion1/xmlsift/internal/chunker"
	"github.com/dgallion1/xmlsift/internal/config"
	"github.com/dgallion1/xmlsift/internal/formats"
	"github.com/dgallion1/xmlsift/internal/handler"
	"github.com/dgallion1/xmlsift/internal/payload"
	"github.com/dgallion1/xmlsift/internal/pipeline"
	"github.com/dgallion1/xmlsift/internal/store"
)

var (
	cfg      config.Config
	log      *slog.Logger
	registry *handler.Registry
	runner   *pipeline.Runner
	cache    store.Cache

	configPath string
	jsonOutput bool
	noCache    bool
)

var rootCmd = &cobra.Command{
	Use:   "xmlsift",
	Short: "Detect, analyze and chunk XML documents",
	Long: `xmlsift identifies the type of an XML document, extracts type-specific
findings and splits it into token-bounded chunks for downstream consumption.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cache != nil {
			cache.Close()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file (default $XMLSIFT_CONFIG)")
	pf.BoolVar(&jsonOutput, "json", false, "write machine-readable JSON to stdout")
	pf.BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	pf.String("strategy", "", "chunking strategy: auto, hierarchical, sliding_window, content_aware")
	pf.Int("max-chunk-size", 0, "maximum chunk size in tokens")
	pf.Int("min-chunk-size", 0, "minimum chunk size in tokens")
	pf.Int("overlap", 0, "sliding window overlap in tokens")
	pf.Bool("preserve-hierarchy", true, "align chunk boundaries with large containers")
	pf.Int("workers", 0, "parallel files in batch mode")
	pf.String("cache", "", "result cache path (empty disables)")
	pf.String("log-level", "", "debug, info, warn or error")
}

// setup loads configuration, applies flag overrides and wires the pipeline.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		log = slog.New(slog.NewJSONHandler(os.Stderr, opts))
	} else {
		log = slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	settings, err := cfg.Handlers()
	if err != nil {
		return err
	}
	registry, err = formats.DefaultRegistry(settings)
	if err != nil {
		return fmt.Errorf("building handler registry: %w", err)
	}

	if cfg.CachePath != "" && !noCache {
		cache, err = store.Open(cfg.CacheBackend, cfg.CachePath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
	}

	det := handler.NewDetector(registry, log)
	det.Concurrency = cfg.ProbeConcurrency
	orch := chunker.NewOrchestrator(log)
	orch.Inspect = payload.Inspect

	runner = pipeline.NewRunner(det, orch, cache, log)
	runner.Workers = cfg.WorkerCount
	return nil
}

func applyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("strategy") {
		cfg.Strategy, _ = f.GetString("strategy")
	}
	if f.Changed("max-chunk-size") {
		cfg.MaxChunkSize, _ = f.GetInt("max-chunk-size")
	}
	if f.Changed("min-chunk-size") {
		cfg.MinChunkSize, _ = f.GetInt("min-chunk-size")
	}
	if f.Changed("overlap") {
		cfg.OverlapSize, _ = f.GetInt("overlap")
	}
	if f.Changed("preserve-hierarchy") {
		cfg.PreserveHierarchy, _ = f.GetBool("preserve-hierarchy")
	}
	if f.Changed("workers") {
		cfg.WorkerCount, _ = f.GetInt("workers")
	}
	if f.Changed("cache") {
		cfg.CachePath, _ = f.GetString("cache")
	}
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
}

// requireChunking rejects invalid chunking settings before a command that
// chunks does any work. Detection and analysis do not depend on them.
func requireChunking(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateChunking(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// runOptions builds pipeline options from the effective configuration.
func runOptions(skipChunking bool) pipeline.Options {
	strategy, _ := cfg.ChunkStrategy()
	return pipeline.Options{
		Strategy:     strategy,
		Chunk:        cfg.Chunk(),
		SkipChunking: skipChunking,
		MaxBytes:     cfg.MaxFileBytes,
		NoCache:      noCache,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		os.Exit(1)
	}
}
