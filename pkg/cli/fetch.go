package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/runfetch/pkg/cli/config"
	"github.com/m-mizutani/runfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/runfetch/pkg/domain/model"
	"github.com/m-mizutani/runfetch/pkg/infra/actions"
	slackinfra "github.com/m-mizutani/runfetch/pkg/infra/slack"
	"github.com/m-mizutani/runfetch/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdFetch() *cli.Command {
	var (
		fetchCfg  config.Fetch
		githubCfg config.GitHub
		notifyCfg config.Notify
	)

	flags := append(fetchCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "fetch",
		Aliases: []string{"f"},
		Usage:   "Download and extract the artifact of the latest run and the latest release run",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := ctxlog.From(ctx)

			if err := fetchCfg.LoadFile(c.IsSet); err != nil {
				return err
			}
			if err := fetchCfg.Validate(); err != nil {
				return err
			}
			owner, repo, err := githubCfg.OwnerRepo()
			if err != nil {
				return err
			}

			logger.Debug("Loaded configuration",
				"fetch", fetchCfg,
				"github", githubCfg,
				"notify", notifyCfg,
			)

			githubClient, err := githubCfg.NewClient(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to create GitHub client")
			}

			reporter := actions.New()
			notifier := slackinfra.NewNotifier(notifyCfg.SlackWebhookURL, githubCfg.Repository)

			return runFetch(ctx, usecase.NewFetch(githubClient, reporter), reporter, notifier, fetchCfg.Request(owner, repo))
		},
	}
}

// runFetch executes the use case and publishes its report. It returns
// errFailureReported when the report carries a failure.
func runFetch(ctx context.Context, uc interfaces.FetchUseCase, reporter interfaces.Reporter, notifier interfaces.Notifier, req *model.FetchRequest) error {
	logger := ctxlog.From(ctx)

	report, err := uc.Fetch(ctx, req)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch artifacts",
			goerr.V("owner", req.Owner),
			goerr.V("repo", req.Repo),
		)
	}

	if err := reporter.Publish(ctx, report); err != nil {
		return goerr.Wrap(err, "failed to publish report")
	}
	if err := notifier.Notify(ctx, report); err != nil {
		logger.Warn("Failed to send notification", "error", err)
	}

	printSummary(os.Stderr, report)

	if report.Failed() {
		return errFailureReported
	}
	return nil
}
