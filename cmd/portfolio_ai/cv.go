package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-ai/internal/types"
)

var cvCmd = &cobra.Command{
	Use:   "cv",
	Short: "Generate a CV",
	Long: `Generate a CV from structured CV data (--data, JSON) or from a resume document (--resume)
and render it as docx, pdf or md. The output path is printed on success.`,
	RunE: runCV,
}

var coverLetterCmd = &cobra.Command{
	Use:   "cover-letter",
	Short: "Generate a cover letter",
	Long:  "Generate a cover letter for a job and render it as docx, pdf or md. The output path is printed on success.",
	RunE:  runCoverLetter,
}

var (
	cvData   string
	cvResume string
	cvFormat string
	cvOut    string

	letterResume  string
	letterJob     string
	letterTitle   string
	letterCompany string
	letterName    string
	letterTone    string
	letterLength  string
	letterFormat  string
	letterOut     string
)

func init() {
	cvCmd.Flags().StringVarP(&cvData, "data", "d", "", "Path to CV data JSON (personal_info, work_experience, education, skills)")
	cvCmd.Flags().StringVarP(&cvResume, "resume", "r", "", "Path to a resume document to build the CV from")
	cvCmd.Flags().StringVarP(&cvFormat, "format", "f", "pdf", "Output format: docx, pdf or md")
	cvCmd.Flags().StringVarP(&cvOut, "out", "o", "", "Output path (default: a file in the temp directory)")

	coverLetterCmd.Flags().StringVarP(&letterResume, "resume", "r", "", "Path to the candidate's resume")
	coverLetterCmd.Flags().StringVarP(&letterJob, "job", "j", "", "Job description file, or the URL of a job posting")
	coverLetterCmd.Flags().StringVar(&letterTitle, "job-title", "", "Job title (required)")
	coverLetterCmd.Flags().StringVar(&letterCompany, "company", "", "Company name (required)")
	coverLetterCmd.Flags().StringVarP(&letterName, "name", "n", "", "Candidate name")
	coverLetterCmd.Flags().StringVar(&letterTone, "tone", "professional", "Tone: professional, enthusiastic, formal or friendly")
	coverLetterCmd.Flags().StringVar(&letterLength, "length", "medium", "Length: short, medium or long")
	coverLetterCmd.Flags().StringVarP(&letterFormat, "format", "f", "pdf", "Output format: docx, pdf or md")
	coverLetterCmd.Flags().StringVarP(&letterOut, "out", "o", "", "Output path (default: a file in the temp directory)")

	_ = coverLetterCmd.MarkFlagRequired("job-title")
	_ = coverLetterCmd.MarkFlagRequired("company")

	rootCmd.AddCommand(cvCmd, coverLetterCmd)
}

func runCV(cmd *cobra.Command, _ []string) error {
	if cvData == "" && cvResume == "" {
		return fmt.Errorf("either --data or --resume must be provided")
	}
	if cvData != "" && cvResume != "" {
		return fmt.Errorf("--data and --resume are mutually exclusive; provide only one")
	}
	format, err := types.ParseOutputFormat(cvFormat)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	var data types.CVData
	if cvData != "" {
		raw, err := readInput(cmd, cvData)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("failed to parse CV data: %w", err)
		}
	} else {
		text, err := a.resumeText(cmd, cvResume)
		if err != nil {
			return err
		}
		parsed, err := a.pipeline.ParseCVData(cmd.Context(), text)
		if err != nil {
			return err
		}
		data = *parsed
	}

	doc, err := a.pipeline.GenerateCV(cmd.Context(), data, format)
	if err != nil {
		return err
	}
	a.logger.Info("cv generated", "source", doc.Canonical.Source, "format", doc.Artifact.Format)
	return a.deliver(cmd, doc.Artifact, cvOut)
}

func runCoverLetter(cmd *cobra.Command, _ []string) error {
	format, err := types.ParseOutputFormat(letterFormat)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	req := types.CoverLetterRequest{
		CandidateName: letterName,
		JobTitle:      letterTitle,
		CompanyName:   letterCompany,
		Tone:          letterTone,
		Length:        letterLength,
	}
	if letterResume != "" {
		if req.ResumeText, err = a.resumeText(cmd, letterResume); err != nil {
			return err
		}
	}
	if letterJob != "" {
		if req.JobDescription, err = a.jobText(cmd, letterJob); err != nil {
			return err
		}
	}

	doc, err := a.pipeline.GenerateCoverLetter(cmd.Context(), req, format)
	if err != nil {
		return err
	}
	a.logger.Info("cover letter generated", "source", doc.Canonical.Source, "format", doc.Artifact.Format)
	return a.deliver(cmd, doc.Artifact, letterOut)
}
