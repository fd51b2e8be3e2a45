package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-ai/internal/config"
	"github.com/jonathan/portfolio-ai/internal/db"
	"github.com/jonathan/portfolio-ai/internal/fetch"
	"github.com/jonathan/portfolio-ai/internal/ingestion"
	"github.com/jonathan/portfolio-ai/internal/llm"
	"github.com/jonathan/portfolio-ai/internal/observability"
	"github.com/jonathan/portfolio-ai/internal/pipeline"
	"github.com/jonathan/portfolio-ai/internal/rendering"
	"github.com/jonathan/portfolio-ai/internal/tempfile"
	"github.com/jonathan/portfolio-ai/internal/types"
)

// app holds the collaborators built for one command invocation
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	printer  *observability.Printer
	alloc    *tempfile.Allocator
	fetcher  *fetch.Fetcher
	client   llm.Client
	ledger   db.Ledger
	pipeline *pipeline.Pipeline
}

// loadConfig merges the config file, explicitly set flags, defaults and the environment
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.APIKey = flagAPIKey
	}
	if flags.Changed("provider") {
		cfg.Provider = flagProvider
	}
	if flags.Changed("pdf-engine") {
		cfg.PDFEngine = flagPDFEngine
	}
	if flags.Changed("chrome-path") {
		cfg.ChromePath = flagChrome
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = flagDBURL
	}
	if flags.Changed("temp-dir") {
		cfg.TempDir = flagTempDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = flagTimeout
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries = flagRetries
	}
	if flags.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newApp builds the pipeline for a command. Rendered artifacts of one-shot
// commands stay on disk for the cleanup command; long-running servers
// schedule their removal after the configured delay.
func newApp(cmd *cobra.Command, longRunning bool) (*app, error) {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	logger, err := observability.NewLogger(level, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, printer: observability.NewPrinter(cmd.ErrOrStderr())}
	a.fetcher = fetch.NewFetcher(fetch.Options{
		MaxBytes:   cfg.MaxUploadBytes,
		Browser:    cfg.BrowserFetch,
		ChromePath: cfg.ChromePath,
	}, logger)

	a.alloc, err = tempfile.New(cfg.TempDir, logger)
	if err != nil {
		return nil, err
	}

	opts := rendering.Options{}
	if longRunning {
		opts.CleanupDelay = cfg.CleanupDelay()
	}
	if cfg.PDFEngine == "chrome" {
		opts.PDFEngine = rendering.NewChromePDFEngine(cfg.ChromePath, cfg.OrchestratorConfig().Timeout)
	}
	renderer := rendering.NewRenderer(a.alloc, opts, logger)

	var orch *llm.Orchestrator
	switch {
	case flagNoAI:
		logger.Debug("ai disabled, documents are synthesized locally")
	case cfg.APIKey == "":
		logger.Warn("no API key configured, documents are synthesized locally", "provider", cfg.Provider)
	default:
		client, err := llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create AI client: %w", err)
		}
		a.client = client
		orch = llm.NewOrchestrator(a.client, cfg.OrchestratorConfig(), logger)
	}

	if cfg.DatabaseURL != "" {
		ledger, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open run ledger: %w", err)
		}
		a.ledger = ledger
	}

	popts := pipeline.Options{
		Extractor:    ingestion.NewExtractor(cfg.MaxUploadBytes, logger),
		Orchestrator: orch,
		Renderer:     renderer,
		Ledger:       a.ledger,
		Logger:       logger,
		Concurrency:  cfg.Concurrency,
	}
	if cfg.Verbose {
		out := cmd.ErrOrStderr()
		popts.OnProgress = func(e pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(out, "[%s] %s\n", e.Step, e.Message)
		}
	}
	a.pipeline, err = pipeline.New(popts)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the AI client and ledger, and removes artifacts still scheduled for cleanup
func (a *app) Close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.logger.Warn("failed to close AI client", "error", err)
		}
	}
	if a.ledger != nil {
		a.ledger.Close()
	}
	if a.alloc != nil {
		a.alloc.Close()
	}
}

// readInput reads a file, or stdin when path is "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// sourceDocument names stdin input as plain text
func sourceDocument(path string, data []byte) ingestion.SourceDocument {
	name := filepath.Base(path)
	if path == "-" {
		name = "stdin.txt"
	}
	return ingestion.SourceDocument{Data: data, Filename: name}
}

// resumeText returns the extracted text of a resume document
func (a *app) resumeText(cmd *cobra.Command, path string) (string, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return "", err
	}
	extracted, err := a.pipeline.ExtractResume(cmd.Context(), sourceDocument(path, data))
	if err != nil {
		return "", err
	}
	if a.cfg.Verbose {
		a.printer.PrintExtraction(extracted)
	}
	return extracted.Text, nil
}

// jobText returns a job description read from a file, stdin or a posting URL
func (a *app) jobText(cmd *cobra.Command, ref string) (string, error) {
	if !fetch.IsURL(ref) {
		data, err := readInput(cmd, ref)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	posting, err := a.fetcher.JobPosting(cmd.Context(), ref)
	if err != nil {
		return "", err
	}
	a.logger.Info("fetched job posting", "platform", posting.Platform, "rendered", posting.Rendered, "chars", len(posting.Text))
	return posting.Text, nil
}

// deliver copies a rendered artifact to out when set and reports where it is
func (a *app) deliver(cmd *cobra.Command, artifact *types.RenderedArtifact, out string) error {
	path := artifact.Path
	if out != "" {
		if artifact.FellBack && filepath.Ext(out) != artifact.Format.Extension() {
			out += artifact.Format.Extension()
		}
		if err := os.WriteFile(out, artifact.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		path = out
	}
	if a.cfg.Verbose {
		a.printer.PrintArtifact(artifact)
	}
	if artifact.FellBack {
		a.logger.Warn("requested format could not be rendered, wrote markdown instead", "path", path)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
