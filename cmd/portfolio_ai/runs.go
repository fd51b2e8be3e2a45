package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-ai/internal/config"
	"github.com/jonathan/portfolio-ai/internal/db"
	"github.com/jonathan/portfolio-ai/internal/pipeline/steps"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run ledger",
	Long:  "List, show and delete recorded pipeline runs. Requires --db-url or PORTFOLIO_AI_DATABASE_URL.",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show a run and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete RUN_ID",
	Short: "Delete a run and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

var (
	runsOperation string
	runsStatus    string
	runsLimit     int
)

func init() {
	runsListCmd.Flags().StringVar(&runsOperation, "operation", "", "Only runs of this operation (extract, analyze, optimize, cv, cover-letter, portfolio, render)")
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "Only runs with this status (running, completed, failed)")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func openLedger(cmd *cobra.Command) (db.Ledger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("--db-url or %s must be provided", config.EnvDatabaseURL)
	}
	return db.Open(cmd.Context(), cfg.DatabaseURL)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	ledger, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer ledger.Close()

	runs, err := ledger.ListRuns(cmd.Context(), db.RunFilters{Operation: runsOperation, Status: runsStatus, Limit: runsLimit})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tOPERATION\tSTATUS\tSOURCE\tCREATED\tINPUT")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Operation, r.Status, r.Source, r.CreatedAt.Local().Format(time.DateTime), r.Input)
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id: %w", err)
	}
	ledger, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx := cmd.Context()
	run, err := ledger.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", runID)
	}
	artifacts, err := ledger.ListArtifacts(ctx, runID)
	if err != nil {
		return err
	}
	available, err := steps.GetAvailableSteps(ctx, ledger, runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run:       %s\n", run.ID)
	_, _ = fmt.Fprintf(out, "Operation: %s\n", run.Operation)
	_, _ = fmt.Fprintf(out, "Input:     %s\n", run.Input)
	_, _ = fmt.Fprintf(out, "Status:    %s\n", run.Status)
	if run.Source != "" {
		_, _ = fmt.Fprintf(out, "Source:    %s\n", run.Source)
	}
	if run.Error != "" {
		_, _ = fmt.Fprintf(out, "Error:     %s\n", run.Error)
	}
	if run.CompletedAt != nil {
		_, _ = fmt.Fprintf(out, "Duration:  %s\n", run.CompletedAt.Sub(run.CreatedAt).Round(time.Millisecond))
	}

	_, _ = fmt.Fprintln(out, "\nArtifacts:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, a := range artifacts {
		kind := "json"
		if a.HasText {
			kind = "text"
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\n", a.Step, a.Category, kind)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if rendered, err := db.GetRenderedByRunID(ctx, ledger, runID); err == nil && rendered != nil {
		_, _ = fmt.Fprintf(out, "\nRendered:  %s (%s, %d bytes)\n", rendered.Path, rendered.Format, rendered.Size)
	}
	if len(available) > 0 {
		_, _ = fmt.Fprintf(out, "\nNot recorded: %v\n", available)
	}
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id: %w", err)
	}
	ledger, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer ledger.Close()

	if err := ledger.DeleteRun(cmd.Context(), runID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", runID)
	return nil
}
