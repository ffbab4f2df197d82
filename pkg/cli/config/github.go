package config

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/runfetch/pkg/domain/interfaces"
	githubinfra "github.com/m-mizutani/runfetch/pkg/infra/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub API configuration
type GitHub struct {
	Repository     string
	APIURL         string
	Token          string `masq:"secret"`
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository",
			Aliases:     []string{"R"},
			Usage:       "Target repository (owner/repo)",
			Destination: &c.Repository,
			Sources:     cli.EnvVars("GITHUB_REPOSITORY"),
		},
		&cli.StringFlag{
			Name:        "github-api-url",
			Usage:       "GitHub REST API root URL",
			Destination: &c.APIURL,
			Sources:     cli.EnvVars("GITHUB_API_URL"),
		},
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token",
			Destination: &c.Token,
			Sources:     cli.EnvVars("RUNFETCH_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("RUNFETCH_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-app-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("RUNFETCH_GITHUB_APP_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "GitHub App private key (PEM content)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("RUNFETCH_GITHUB_APP_PRIVATE_KEY"),
		},
	}
}

// OwnerRepo splits Repository into owner and name
func (c *GitHub) OwnerRepo() (string, string, error) {
	owner, repo, ok := strings.Cut(c.Repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", goerr.New("repository must be in owner/repo form", goerr.V("repository", c.Repository))
	}
	return owner, repo, nil
}

// NewClient builds a GitHub client. App credentials take precedence over a token.
func (c *GitHub) NewClient(ctx context.Context) (interfaces.GitHubClient, error) {
	var opts []githubinfra.Option
	if c.APIURL != "" {
		opts = append(opts, githubinfra.WithBaseURL(c.APIURL))
	}

	switch {
	case c.AppID != 0:
		if c.InstallationID == 0 || c.PrivateKey == "" {
			return nil, goerr.New("GitHub App requires installation ID and private key", goerr.V("app_id", c.AppID))
		}
		opts = append(opts, githubinfra.WithApp(c.AppID, c.InstallationID, []byte(c.PrivateKey)))
	case c.Token != "":
		opts = append(opts, githubinfra.WithToken(c.Token))
	default:
		return nil, goerr.New("GitHub token or App credentials are required")
	}

	return githubinfra.NewClient(ctx, opts...)
}
