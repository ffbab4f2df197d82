package interfaces

import (
	"context"

	"github.com/m-mizutani/runfetch/pkg/domain/model"
)

// GitHubClient defines the GitHub REST operations needed to fetch run artifacts
type GitHubClient interface {
	// ListWorkflows returns every workflow registered in the repository
	ListWorkflows(ctx context.Context, owner, repo string) ([]*model.Workflow, error)

	// ListWorkflowRuns returns runs of a workflow, newest first
	ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64, filter model.RunFilter) ([]*model.WorkflowRun, error)

	// ListRunArtifacts returns artifacts attached to a workflow run
	ListRunArtifacts(ctx context.Context, owner, repo string, runID int64) ([]*model.Artifact, error)

	// DownloadArtifact downloads an artifact as a zip archive
	DownloadArtifact(ctx context.Context, owner, repo string, artifactID int64) ([]byte, error)

	// GetLatestRelease returns the latest release with its tag resolved to a commit.
	// It returns model.ErrNotFound when the repository has no release.
	GetLatestRelease(ctx context.Context, owner, repo string) (*model.Release, error)
}
