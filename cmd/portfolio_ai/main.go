// Package main provides the portfolio_ai command line interface.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portfolio_ai",
	Short: "AI-assisted career document pipeline",
	Long: `portfolio_ai extracts text from resumes (pdf, docx, txt, html, md), generates CVs,
cover letters, ATS optimizations and portfolio copy with an AI service, and renders
the results to DOCX, PDF or Markdown. Without an API key every document is
synthesized locally.

Configuration can be loaded from a JSON or YAML file using --config. Command-line
flags override config file values.`,
	SilenceUsage: true,
}

var (
	configPath    string
	flagAPIKey    string
	flagProvider  string
	flagNoAI      bool
	flagPDFEngine string
	flagChrome    string
	flagDBURL     string
	flagTempDir   string
	flagLogLevel  string
	flagLogFormat string
	flagTimeout   int
	flagRetries   int
	flagVerbose   bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to config file (.json, .yaml or .yml)")
	pf.StringVar(&flagAPIKey, "api-key", "", "AI provider API key (defaults to GEMINI_API_KEY or GROQ_API_KEY)")
	pf.StringVar(&flagProvider, "provider", "", "AI provider: gemini or groq")
	pf.BoolVar(&flagNoAI, "no-ai", false, "Skip the AI service and synthesize documents locally")
	pf.StringVar(&flagPDFEngine, "pdf-engine", "", "PDF engine: native or chrome")
	pf.StringVar(&flagChrome, "chrome-path", "", "Chrome binary for the chrome PDF engine (defaults to CHROME_PATH)")
	pf.StringVar(&flagDBURL, "db-url", "", "Run ledger: postgres:// URL or SQLite path (defaults to PORTFOLIO_AI_DATABASE_URL)")
	pf.StringVar(&flagTempDir, "temp-dir", "", "Directory for rendered artifacts")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	pf.IntVar(&flagTimeout, "timeout", 0, "AI request timeout in seconds")
	pf.IntVar(&flagRetries, "max-retries", 0, "AI retries after the first attempt (-1 disables retries)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Print detailed progress information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
