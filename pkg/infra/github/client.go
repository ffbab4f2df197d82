package github

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/runfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/runfetch/pkg/domain/model"
	"golang.org/x/oauth2"
)

const (
	pageSize     = 100
	maxRedirects = 3
)

// config holds internal client configuration
type config struct {
	baseURL        string
	token          string
	appID          int64
	installationID int64
	privateKey     []byte
	httpClient     *http.Client
}

// Option is a functional option for client configuration
type Option func(*config)

// WithBaseURL sets the REST API root, e.g. https://ghes.example.com/api/v3
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithToken authenticates with a personal access token or GITHUB_TOKEN
func WithToken(token string) Option {
	return func(c *config) {
		c.token = token
	}
}

// WithApp authenticates as a GitHub App installation
func WithApp(appID, installationID int64, privateKey []byte) Option {
	return func(c *config) {
		c.appID = appID
		c.installationID = installationID
		c.privateKey = privateKey
	}
}

// WithHTTPClient sets the HTTP client used when no authentication is configured
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

type client struct {
	githubClient *github.Client
	// downloader fetches pre-signed archive URLs, which must not carry API credentials
	downloader *http.Client
}

// NewClient creates a new GitHub client. App authentication takes precedence over a token.
func NewClient(ctx context.Context, opts ...Option) (interfaces.GitHubClient, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := cfg.httpClient
	switch {
	case cfg.appID != 0:
		itr, err := ghinstallation.New(http.DefaultTransport, cfg.appID, cfg.installationID, cfg.privateKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create GitHub App transport",
				goerr.V("app_id", cfg.appID),
				goerr.V("installation_id", cfg.installationID),
			)
		}
		if cfg.baseURL != "" {
			itr.BaseURL = strings.TrimSuffix(cfg.baseURL, "/")
		}
		httpClient = &http.Client{Transport: itr}

	case cfg.token != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.token})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	githubClient := github.NewClient(httpClient)
	if cfg.baseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(cfg.baseURL, "/") + "/")
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub API URL", goerr.V("url", cfg.baseURL))
		}
		githubClient.BaseURL = baseURL
	}

	downloader := cfg.httpClient
	if downloader == nil {
		downloader = &http.Client{}
	}

	return &client{
		githubClient: githubClient,
		downloader:   downloader,
	}, nil
}

// ListWorkflows returns every workflow of the repository, following pagination
func (c *client) ListWorkflows(ctx context.Context, owner, repo string) ([]*model.Workflow, error) {
	var workflows []*model.Workflow
	opts := &github.ListOptions{PerPage: pageSize}

	for {
		page, resp, err := c.githubClient.Actions.ListWorkflows(ctx, owner, repo, opts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list workflows",
				goerr.V("owner", owner),
				goerr.V("repo", repo),
			)
		}

		for _, w := range page.Workflows {
			workflows = append(workflows, &model.Workflow{
				ID:   w.GetID(),
				Name: w.GetName(),
				Path: w.GetPath(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return workflows, nil
}

// ListWorkflowRuns returns a single page of runs of the workflow, newest first
func (c *client) ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64, filter model.RunFilter) ([]*model.WorkflowRun, error) {
	opts := &github.ListWorkflowRunsOptions{
		Status:  filter.Status,
		HeadSHA: filter.HeadSHA,
		ListOptions: github.ListOptions{
			PerPage: filter.PerPage,
		},
	}

	runs, _, err := c.githubClient.Actions.ListWorkflowRunsByID(ctx, owner, repo, workflowID, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list workflow runs",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("workflow_id", workflowID),
			goerr.V("head_sha", filter.HeadSHA),
		)
	}

	result := make([]*model.WorkflowRun, 0, len(runs.WorkflowRuns))
	for _, r := range runs.WorkflowRuns {
		result = append(result, &model.WorkflowRun{
			ID:         r.GetID(),
			Conclusion: model.WorkflowConclusion(r.GetConclusion()),
			HeadSHA:    r.GetHeadSHA(),
			HTMLURL:    r.GetHTMLURL(),
			CreatedAt:  r.GetCreatedAt().Time,
		})
	}

	return result, nil
}

// ListRunArtifacts returns every artifact attached to a workflow run
func (c *client) ListRunArtifacts(ctx context.Context, owner, repo string, runID int64) ([]*model.Artifact, error) {
	var artifacts []*model.Artifact
	opts := &github.ListOptions{PerPage: pageSize}

	for {
		page, resp, err := c.githubClient.Actions.ListWorkflowRunArtifacts(ctx, owner, repo, runID, opts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list run artifacts",
				goerr.V("owner", owner),
				goerr.V("repo", repo),
				goerr.V("run_id", runID),
			)
		}

		for _, a := range page.Artifacts {
			artifacts = append(artifacts, &model.Artifact{
				ID:          a.GetID(),
				Name:        a.GetName(),
				SizeInBytes: a.GetSizeInBytes(),
				Expired:     a.GetExpired(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return artifacts, nil
}

// DownloadArtifact downloads the zip archive of an artifact
func (c *client) DownloadArtifact(ctx context.Context, owner, repo string, artifactID int64) ([]byte, error) {
	// Resolve the short-lived archive URL
	archiveURL, _, err := c.githubClient.Actions.DownloadArtifact(ctx, owner, repo, artifactID, maxRedirects)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get artifact download URL",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("artifact_id", artifactID),
		)
	}

	ctxlog.From(ctx).Debug("Resolved artifact archive URL",
		"artifact_id", artifactID,
		"host", archiveURL.Host,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL.String(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create download request", goerr.V("artifact_id", artifactID))
	}

	resp, err := c.downloader.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download artifact", goerr.V("artifact_id", artifactID))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status code for artifact download",
			goerr.V("status", resp.StatusCode),
			goerr.V("artifact_id", artifactID),
		)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read artifact body", goerr.V("artifact_id", artifactID))
	}

	return data, nil
}

// GetLatestRelease returns the latest release with its tag resolved to a commit SHA
func (c *client) GetLatestRelease(ctx context.Context, owner, repo string) (*model.Release, error) {
	release, resp, err := c.githubClient.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "no release published",
				goerr.V("owner", owner),
				goerr.V("repo", repo),
			)
		}
		return nil, goerr.Wrap(err, "failed to get latest release",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
		)
	}

	sha, err := c.resolveTag(ctx, owner, repo, release.GetTagName())
	if err != nil {
		return nil, err
	}

	return &model.Release{
		TagName:   release.GetTagName(),
		Name:      release.GetName(),
		CommitSHA: sha,
	}, nil
}

// resolveTag maps a tag to the commit it points to, peeling annotated tags
func (c *client) resolveTag(ctx context.Context, owner, repo, tag string) (string, error) {
	ref, _, err := c.githubClient.Git.GetRef(ctx, owner, repo, "tags/"+tag)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get tag ref",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("tag", tag),
		)
	}

	object := ref.GetObject()
	if object.GetType() != "tag" {
		return object.GetSHA(), nil
	}

	annotated, _, err := c.githubClient.Git.GetTag(ctx, owner, repo, object.GetSHA())
	if err != nil {
		return "", goerr.Wrap(err, "failed to get annotated tag",
			goerr.V("tag", tag),
			goerr.V("sha", object.GetSHA()),
		)
	}

	return annotated.GetObject().GetSHA(), nil
}
