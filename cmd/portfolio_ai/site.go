package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-ai/internal/ingestion"
	"github.com/jonathan/portfolio-ai/internal/pipeline"
	"github.com/jonathan/portfolio-ai/internal/types"
)

var siteCmd = &cobra.Command{
	Use:   "site [FILE]",
	Short: "Build a single page HTML portfolio",
	Long: `Build an HTML portfolio site from a resume, from a JSON array of guided
interview answers (--answers), or by asking the guided questions on the
terminal (--guided). Sections are suggested when --sections is not set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSite,
}

var suggestSectionsCmd = &cobra.Command{
	Use:   "suggest-sections FILE",
	Short: "Suggest portfolio sections for a resume",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggestSections,
}

var enhanceSectionCmd = &cobra.Command{
	Use:   "enhance-section FILE",
	Short: "Write or refine one portfolio section",
	Long:  "Write one portfolio section from a resume as markdown. With --existing the given copy is refined instead.",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnhanceSection,
}

var (
	siteSections []string
	siteAnswers  string
	siteGuided   bool
	siteEnhance  bool
	siteOut      string

	suggestOut string

	enhanceSection  string
	enhanceExisting string
	enhanceOut      string
)

func init() {
	siteCmd.Flags().StringSliceVar(&siteSections, "sections", nil, "Sections to include (default: suggested)")
	siteCmd.Flags().StringVar(&siteAnswers, "answers", "", "JSON file holding one answer per guided question")
	siteCmd.Flags().BoolVar(&siteGuided, "guided", false, "Ask the guided questions on the terminal")
	siteCmd.Flags().BoolVar(&siteEnhance, "enhance", false, "Write each section with its own AI request")
	siteCmd.Flags().StringVarP(&siteOut, "out", "o", "", "Output path for the HTML page")

	suggestSectionsCmd.Flags().StringVarP(&suggestOut, "out", "o", "", "Write the JSON to a file instead of stdout")

	enhanceSectionCmd.Flags().StringVarP(&enhanceSection, "section", "s", "", "Section name, for example about or projects")
	enhanceSectionCmd.Flags().StringVar(&enhanceExisting, "existing", "", "File with the current section content to refine")
	enhanceSectionCmd.Flags().StringVarP(&enhanceOut, "out", "o", "", "Write the JSON to a file instead of stdout")
	_ = enhanceSectionCmd.MarkFlagRequired("section")

	rootCmd.AddCommand(siteCmd, suggestSectionsCmd, enhanceSectionCmd)
}

func runSite(cmd *cobra.Command, args []string) error {
	inputs := 0
	for _, set := range []bool{len(args) == 1, siteAnswers != "", siteGuided} {
		if set {
			inputs++
		}
	}
	if inputs != 1 {
		return fmt.Errorf("pass exactly one of a resume FILE, --answers or --guided")
	}

	var answers []string
	switch {
	case siteAnswers != "":
		data, err := readInput(cmd, siteAnswers)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &answers); err != nil {
			return fmt.Errorf("--answers must hold a JSON array of strings: %w", err)
		}
	case siteGuided:
		var err error
		if answers, err = askGuided(cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	var site *types.PortfolioSite
	if answers != nil {
		site, err = a.pipeline.BuildPortfolioFromAnswers(cmd.Context(), answers, siteSections)
	} else {
		var text string
		if text, err = a.resumeText(cmd, args[0]); err != nil {
			return err
		}
		site, err = a.pipeline.BuildPortfolioSite(cmd.Context(), pipeline.SiteRequest{
			ResumeText: text,
			Sections:   siteSections,
			Enhance:    siteEnhance,
		})
	}
	if err != nil {
		return err
	}
	if a.cfg.Verbose {
		a.printer.PrintPortfolio(&site.Content)
	}
	return a.deliver(cmd, site.Artifact, siteOut)
}

// askGuided reads one answer per guided question. Multiline answers end at
// two consecutive empty lines or end of input.
func askGuided(in io.Reader, out io.Writer) ([]string, error) {
	scanner := bufio.NewScanner(in)
	answers := make([]string, 0, len(ingestion.GuidedQuestions))
	for _, q := range ingestion.GuidedQuestions {
		_, _ = fmt.Fprintln(out, q.Text)
		if !q.Multiline {
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, fmt.Errorf("failed to read answer: %w", err)
				}
				return nil, fmt.Errorf("input ended before %q was answered", q.Text)
			}
			answers = append(answers, strings.TrimSpace(scanner.Text()))
			continue
		}

		_, _ = fmt.Fprintln(out, "(finish with two empty lines)")
		var lines []string
		blank := 0
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				if blank++; blank == 2 {
					break
				}
			} else {
				blank = 0
			}
			lines = append(lines, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read answer: %w", err)
		}
		answers = append(answers, strings.TrimSpace(strings.Join(lines, "\n")))
	}
	return answers, nil
}

func runSuggestSections(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	text, err := a.resumeText(cmd, args[0])
	if err != nil {
		return err
	}
	suggestion, err := a.pipeline.SuggestPortfolioSections(cmd.Context(), text)
	if err != nil {
		return err
	}
	return writeJSON(cmd, suggestOut, suggestion)
}

func runEnhanceSection(cmd *cobra.Command, args []string) error {
	existing := ""
	if enhanceExisting != "" {
		data, err := readInput(cmd, enhanceExisting)
		if err != nil {
			return err
		}
		existing = string(data)
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
	content, err := a.pipeline.EnhancePortfolioSection(cmd.Context(), pipeline.SectionRequest{
		ResumeText: text,
		Section:    enhanceSection,
		Existing:   existing,
	})
	if err != nil {
		return err
	}
	if a.cfg.Verbose {
		a.printer.PrintPortfolio(content)
	}
	return writeJSON(cmd, enhanceOut, content)
}
