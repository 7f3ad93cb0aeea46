package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"bgmsync/internal/deps"
	"bgmsync/internal/history"
	"bgmsync/internal/logging"
	"bgmsync/internal/pipeline"
	"bgmsync/internal/services"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Download missing assets and rebuild data.json from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := deps.Missing(deps.CheckBinaries(deps.SyncRequirements(cfg))); err != nil {
				return services.Wrap(services.ErrConfiguration, "sync", "preflight", "", err)
			}

			return ctx.recordRun(cmd.Context(), history.KindSync, func(runCtx context.Context, store *history.Store, logger *slog.Logger) (history.Outcome, error) {
				previous, err := store.LastDigest(runCtx)
				if err != nil {
					logger.Warn("could not read previous catalog digest", logging.Error(err))
				}
				run, err := pipeline.NewSyncFromConfig(cfg, previous, logger)
				if err != nil {
					return history.Outcome{}, err
				}
				summary, err := run.Run(runCtx)
				outcome := history.Outcome{
					Items:         summary.Items,
					Errors:        len(summary.Records),
					CatalogDigest: summary.Digest,
				}
				if err != nil {
					return outcome, err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Synced %s\n", summary)
				fmt.Fprintf(out, "Manifest: %s\n", summary.ManifestPath)
				if summary.ErrorLog != "" {
					fmt.Fprintf(out, "Failures logged to %s\n", summary.ErrorLog)
				}
				if !summary.CatalogChanged {
					fmt.Fprintln(out, "Catalog unchanged since last sync")
				}
				return outcome, nil
			})
		},
	}
}
