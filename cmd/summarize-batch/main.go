package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/summarizely/pdf-summarizer/internal/common"
	"github.com/summarizely/pdf-summarizer/internal/export"
	"github.com/summarizely/pdf-summarizer/internal/extract"
	"github.com/summarizely/pdf-summarizer/internal/llm"
	"github.com/summarizely/pdf-summarizer/internal/llm/anthropic"
	"github.com/summarizely/pdf-summarizer/internal/llm/openai"
	"github.com/summarizely/pdf-summarizer/internal/pipeline"
	"github.com/summarizely/pdf-summarizer/internal/progress"
	"github.com/summarizely/pdf-summarizer/internal/repository"
	"github.com/summarizely/pdf-summarizer/internal/summarize"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		batchPath = flag.String("batch", "", "batch file: YAML (urls/prompts/workers) or plain URL list (required)")
		out       = flag.String("out", "summary_report.xlsx", "output XLSX file path")
		inmem     = flag.Bool("inmem", false, "use an in-memory SQLite store")
		workers   = flag.Int("workers", 0, "parallel workers (overrides batch file; 0 or 1 is sequential)")
	)
	flag.Parse()

	if *batchPath == "" {
		printError("Error: --batch is required\n")
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	bf, err := common.LoadBatchFile(*batchPath)
	if err != nil {
		logger.Error("failed to load batch file", "error", err)
		os.Exit(1)
	}
	if *workers > 0 {
		bf.Workers = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Wire the store: Postgres when DSN is configured, SQLite otherwise.
	store, err := openStore(ctx, cfg, *inmem, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close store", "error", cerr)
		}
	}()

	// Wire the provider via the registry.
	registry := llm.NewRegistry()
	registry.Register("anthropic", func(c llm.Config) (llm.Provider, error) {
		return anthropic.NewClient(c, logger), nil
	})
	registry.Register("openai", func(c llm.Config) (llm.Provider, error) {
		return openai.NewClient(c, logger), nil
	})
	provider, err := registry.Get(cfg.LLM.Provider, llm.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		logger.Error("failed to build provider", "error", err)
		os.Exit(1)
	}
	logger.Info("llm provider ready", "provider", provider.Name())

	extractor := extract.NewExtractor(extract.Config{
		Timeout:  cfg.Fetch.Timeout,
		MaxPages: cfg.Fetch.MaxPages,
	}, logger)
	summarizer := summarize.New(provider, logger)

	// Observers: batch log always; websocket hub when configured.
	observers := progress.Fanout{progress.NewLogObserver(logger)}
	if cfg.Progress.WSAddr != "" {
		hub := progress.NewHub(logger)
		hub.Start()
		defer hub.Stop()
		observers = append(observers, hub)
		go func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/progress", hub.Handler())
			logger.Info("progress endpoint listening", "addr", cfg.Progress.WSAddr)
			if serr := http.ListenAndServe(cfg.Progress.WSAddr, mux); serr != nil {
				logger.Error("progress server stopped", "error", serr)
			}
		}()
	}

	runner := pipeline.NewRunner(extractor, summarizer, store, observers, logger, pipeline.Options{
		LongPrompt:   bf.LongPrompt,
		ShortPrompt:  bf.ShortPrompt,
		MaxChunkSize: cfg.LLM.MaxChunkSize,
		Workers:      bf.Workers,
	})

	run := pipeline.NewBatchRun(bf.URLs)
	go func() {
		// SIGINT stops between URLs; untouched records stay PENDING.
		<-ctx.Done()
		run.Cancel()
	}()

	logger.Info("starting batch", "run_id", run.ID, "urls", len(bf.URLs), "output", *out)
	records := runner.Run(ctx, run)

	reporter := export.NewService(logger)
	xlsxBytes, err := reporter.BuildReport(records)
	if err != nil {
		logger.Error("failed to build report", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	stats := export.ComputeStats(records)
	logger.Info("batch complete",
		"run_id", run.ID,
		"total", stats.Total,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"output_file", *out)

	fmt.Printf("Batch complete!\n")
	fmt.Printf("- URLs: %d\n", stats.Total)
	fmt.Printf("- Succeeded: %d\n", stats.Succeeded)
	fmt.Printf("- Failed: %d\n", stats.Failed)
	fmt.Printf("- Success rate: %.1f%%\n", stats.SuccessRate)
	fmt.Printf("- Output: %s\n", *out)
}

func openStore(ctx context.Context, cfg *common.Config, inmem bool, logger *slog.Logger) (repository.JobStore, error) {
	if inmem {
		return repository.OpenSQLite(repository.InMemoryDSN, logger)
	}
	if cfg.Database.DSN != "" {
		return repository.OpenPostgres(ctx, cfg.Database, logger)
	}
	return repository.OpenSQLite(cfg.Database.SQLitePath, logger)
}
