package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bgmsync/internal/history"
)

type runView struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at,omitempty"`
	Items         int    `json:"items"`
	Errors        int    `json:"errors"`
	Batches       int    `json:"batches"`
	CatalogDigest string `json:"catalog_digest,omitempty"`
	Message       string `json:"message,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sync and publish runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				views := make([]runView, 0, len(runs))
				for _, run := range runs {
					views = append(views, toRunView(run))
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(runs, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderHistoryTable(runs []history.Run, now time.Time) string {
	headers := []string{"Started", "Kind", "Status", "Items", "Errors", "Batches", "Took", "Catalog"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		took := "-"
		if d := run.Duration(); d > 0 {
			took = d.Round(time.Second).String()
		}
		rows = append(rows, []string{
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			string(run.Kind),
			run.Status,
			strconv.Itoa(run.Items),
			strconv.Itoa(run.Errors),
			strconv.Itoa(run.Batches),
			took,
			shortDigest(run.CatalogDigest),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}
	return renderTable(headers, rows, aligns)
}

func toRunView(run history.Run) runView {
	view := runView{
		ID:            run.ID,
		Kind:          string(run.Kind),
		Status:        run.Status,
		StartedAt:     run.StartedAt.UTC().Format(time.RFC3339),
		Items:         run.Items,
		Errors:        run.Errors,
		Batches:       run.Batches,
		CatalogDigest: run.CatalogDigest,
		Message:       run.Message,
	}
	if !run.FinishedAt.IsZero() {
		view.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	return view
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	if d == "" {
		return "-"
	}
	return d
}
