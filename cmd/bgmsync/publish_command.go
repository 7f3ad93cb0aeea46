package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"bgmsync/internal/deps"
	"bgmsync/internal/history"
	"bgmsync/internal/publish"
	"bgmsync/internal/services"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Commit and force-push changed data files in bounded batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequirePublish(); err != nil {
				return services.Wrap(services.ErrConfiguration, "publish", "config", "", err)
			}
			if err := deps.Missing(deps.CheckBinaries(deps.PublishRequirements(cfg))); err != nil {
				return services.Wrap(services.ErrConfiguration, "publish", "preflight", "", err)
			}

			return ctx.recordRun(cmd.Context(), history.KindPublish, func(runCtx context.Context, _ *history.Store, logger *slog.Logger) (history.Outcome, error) {
				repo := publish.NewGitRepo(publish.GitOptions{
					Dir:         cfg.Paths.DataDir,
					Binary:      cfg.Publish.GitBinary,
					RemoteName:  cfg.Publish.RemoteName,
					RemoteURL:   cfg.Publish.RemoteURL,
					Branch:      cfg.Publish.Branch,
					AuthorName:  cfg.Publish.AuthorName,
					AuthorEmail: cfg.Publish.AuthorEmail,
				})
				publisher := publish.NewPublisher(repo, publish.Options{
					BatchSize:    cfg.Publish.BatchSize,
					CommitPrefix: cfg.Publish.CommitPrefix,
				}, logger)

				result, err := publisher.Run(runCtx)
				outcome := history.Outcome{Items: result.Files, Batches: result.Batches}
				if err != nil {
					return outcome, err
				}
				outcome.Message = string(result.Outcome)

				out := cmd.OutOrStdout()
				if result.Outcome == publish.OutcomeNoop {
					fmt.Fprintln(out, "Nothing to publish")
				} else {
					fmt.Fprintf(out, "Published %d files in %d batches to %s/%s\n",
						result.Files, result.Batches, cfg.Publish.RemoteName, cfg.Publish.Branch)
				}
				return outcome, nil
			})
		},
	}
}
