package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/runfetch/pkg/cli/config"
	"github.com/m-mizutani/runfetch/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// errFailureReported means a failure was already surfaced to the workflow runner
var errFailureReported = errors.New("fetch failed")

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
		logger    *slog.Logger
		useSentry bool
	)

	app := &cli.Command{
		Name:    "runfetch",
		Usage:   "Download workflow artifacts of the latest run and the latest release",
		Version: types.Version,
		Flags:   append(loggerCfg.Flags(), sentryCfg.Flags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			logger = logger.With("invocation_id", uuid.NewString())

			if useSentry, err = sentryCfg.Configure(); err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdFetch(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if errors.Is(err, errFailureReported) {
			return err
		}

		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))

		if useSentry {
			sentry.CaptureException(err)
			sentry.Flush(2 * time.Second)
		}
		return err
	}

	return nil
}
