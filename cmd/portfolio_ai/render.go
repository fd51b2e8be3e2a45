package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-ai/internal/ingestion"
	"github.com/jonathan/portfolio-ai/internal/pipeline"
	"github.com/jonathan/portfolio-ai/internal/types"
)

var renderCmd = &cobra.Command{
	Use:   "render FILE.md",
	Short: "Render markdown to docx, pdf or md",
	Long: `Render a markdown document using "# ", "## ", "### " headings, "- " bullets and
paragraphs. When docx or pdf rendering fails the document is written as markdown.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var batchCmd = &cobra.Command{
	Use:   "batch FILE...",
	Short: "Generate CVs for several resumes concurrently",
	Long:  "Extract, parse and render a CV for each resume. One failing resume does not stop the others.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old rendered artifacts from the temp directory",
	RunE:  runCleanup,
}

var (
	renderFormat string
	renderOut    string

	batchFormat string
	batchOutDir string

	cleanupMaxAge time.Duration
)

func init() {
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "pdf", "Output format: docx, pdf or md")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output path (default: a file in the temp directory)")

	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "pdf", "Output format: docx, pdf or md")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "Directory to copy the CVs to, named after each resume")

	cleanupCmd.Flags().DurationVar(&cleanupMaxAge, "max-age", time.Hour, "Remove artifacts older than this")

	rootCmd.AddCommand(renderCmd, batchCmd, cleanupCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := types.ParseOutputFormat(renderFormat)
	if err != nil {
		return err
	}
	markdown, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	artifact, err := a.pipeline.Render(cmd.Context(), string(markdown), format)
	if err != nil {
		return err
	}
	return a.deliver(cmd, artifact, renderOut)
}

func runBatch(cmd *cobra.Command, args []string) error {
	format, err := types.ParseOutputFormat(batchFormat)
	if err != nil {
		return err
	}
	if batchOutDir != "" {
		if err := os.MkdirAll(batchOutDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", batchOutDir, err)
		}
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	jobs := make([]pipeline.BatchJob, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		jobs = append(jobs, pipeline.BatchJob{
			Name:   path,
			Doc:    ingestion.SourceDocument{Data: data, Filename: filepath.Base(path)},
			Format: format,
		})
	}

	failed := 0
	for _, res := range a.pipeline.RunBatch(cmd.Context(), jobs) {
		if res.Err != nil {
			failed++
			a.logger.Error("cv generation failed", "resume", res.Name, "error", res.Err)
			continue
		}
		out := ""
		if batchOutDir != "" {
			base := strings.TrimSuffix(filepath.Base(res.Name), filepath.Ext(res.Name))
			out = filepath.Join(batchOutDir, base+"-cv"+res.Document.Artifact.Format.Extension())
		}
		if err := a.deliver(cmd, res.Document.Artifact, out); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d resumes failed", failed, len(jobs))
	}
	return nil
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.alloc.Sweep(cleanupMaxAge)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d file(s) from %s\n", removed, a.alloc.Dir())
	return nil
}
