package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-ai/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Extract structured data from a resume",
	Long:  "Extract contact details, experience, education, skills and certifications from a resume as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize FILE",
	Short: "Score and rewrite a resume for applicant tracking systems",
	Long:  "Score a resume against a job description (optional) and return an ATS-optimized rewrite, suggestions and keyword coverage as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE:  runOptimize,
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio FILE",
	Short: "Write portfolio copy from a resume",
	Long:  "Write portfolio sections from a resume as JSON, or render them as a document with --format.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPortfolio,
}

var (
	analyzeOut string

	optimizeJob string
	optimizeOut string

	portfolioSections []string
	portfolioFormat   string
	portfolioTitle    string
	portfolioOut      string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Write the JSON to a file instead of stdout")

	optimizeCmd.Flags().StringVarP(&optimizeJob, "job", "j", "", "Job description file, or the URL of a job posting")
	optimizeCmd.Flags().StringVarP(&optimizeOut, "out", "o", "", "Write the JSON to a file instead of stdout")

	portfolioCmd.Flags().StringSliceVar(&portfolioSections, "sections", nil, "Sections to write (default about,experience,education,skills,projects,contact)")
	portfolioCmd.Flags().StringVarP(&portfolioFormat, "format", "f", "", "Render the portfolio as docx, pdf or md instead of printing JSON")
	portfolioCmd.Flags().StringVar(&portfolioTitle, "title", "Portfolio", "Document title when rendering")
	portfolioCmd.Flags().StringVarP(&portfolioOut, "out", "o", "", "Output path")

	rootCmd.AddCommand(analyzeCmd, optimizeCmd, portfolioCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	text, err := a.resumeText(cmd, args[0])
	if err != nil {
		return err
	}
	analysis, err := a.pipeline.AnalyzeResume(cmd.Context(), text)
	if err != nil {
		return err
	}
	if a.cfg.Verbose {
		a.printer.PrintAnalysis(analysis)
	}
	return writeJSON(cmd, analyzeOut, analysis)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	text, err := a.resumeText(cmd, args[0])
	if err != nil {
		return err
	}
	job := ""
	if optimizeJob != "" {
		if job, err = a.jobText(cmd, optimizeJob); err != nil {
			return err
		}
	}

	result, err := a.pipeline.OptimizeResume(cmd.Context(), text, job)
	if err != nil {
		return err
	}
	if a.cfg.Verbose {
		a.printer.PrintOptimization(result)
	}
	return writeJSON(cmd, optimizeOut, result)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	var format types.OutputFormat
	if portfolioFormat != "" {
		f, err := types.ParseOutputFormat(portfolioFormat)
		if err != nil {
			return err
		}
		format = f
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	text, err := a.resumeText(cmd, args[0])
	if err != nil {
		return err
	}
	content, err := a.pipeline.GeneratePortfolio(cmd.Context(), text, portfolioSections)
	if err != nil {
		return err
	}
	if a.cfg.Verbose {
		a.printer.PrintPortfolio(content)
	}
	if format == "" {
		return writeJSON(cmd, portfolioOut, content)
	}

	title := strings.TrimSpace(portfolioTitle)
	if title == "" {
		return fmt.Errorf("--title must not be empty")
	}
	artifact, err := a.pipeline.Render(cmd.Context(), content.Markdown(title), format)
	if err != nil {
		return err
	}
	return a.deliver(cmd, artifact, portfolioOut)
}
