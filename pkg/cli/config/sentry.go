package config

import (
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/runfetch/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Sentry holds error tracking configuration
type Sentry struct {
	DSN         string `masq:"secret"`
	Environment string
}

// Flags returns CLI flags for Sentry configuration
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN; errors are not reported when empty",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("RUNFETCH_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Value:       "ci",
			Destination: &c.Environment,
			Sources:     cli.EnvVars("RUNFETCH_SENTRY_ENV"),
		},
	}
}

// Configure initializes the Sentry client. It returns false when disabled.
func (c *Sentry) Configure() (bool, error) {
	if c.DSN == "" {
		return false, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Environment,
		Release:     "runfetch@" + types.Version,
	}); err != nil {
		return false, goerr.Wrap(err, "failed to initialize Sentry")
	}
	return true, nil
}
