package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Extract normalized text from a resume",
	Long:  "Extract text from a pdf, docx, txt, html or md resume. Use - to read from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var (
	extractOut  string
	extractJSON bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Write the output to a file instead of stdout")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Print text, format and metadata as JSON")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if !extractJSON {
		text, err := a.resumeText(cmd, args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd, extractOut, []byte(text+"\n"))
	}

	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	extracted, err := a.pipeline.ExtractResume(cmd.Context(), sourceDocument(args[0], data))
	if err != nil {
		return err
	}
	return writeJSON(cmd, extractOut, extracted)
}

// writeOutput writes data to path, or to stdout when path is empty
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	return writeOutput(cmd, path, append(data, '\n'))
}
