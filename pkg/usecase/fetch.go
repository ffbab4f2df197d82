package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/runfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/runfetch/pkg/domain/model"
)

const runStatusSuccess = "success"

type fetchUseCase struct {
	githubClient interfaces.GitHubClient
	reporter     interfaces.Reporter
}

// NewFetch creates a new instance of FetchUseCase
func NewFetch(githubClient interfaces.GitHubClient, reporter interfaces.Reporter) interfaces.FetchUseCase {
	return &fetchUseCase{
		githubClient: githubClient,
		reporter:     reporter,
	}
}

// Fetch resolves the latest successful run and the latest release run of a
// workflow, then downloads and extracts the named artifact of each under
// req.UnzipDir/<tag> and req.UnzipDir/<head sha>.
func (uc *fetchUseCase) Fetch(ctx context.Context, req *model.FetchRequest) (*model.Report, error) {
	logger := ctxlog.From(ctx)
	report := &model.Report{}

	logger.Info("Fetching workflow artifacts",
		"owner", req.Owner,
		"repo", req.Repo,
		"workflow", req.Workflow,
		"artifact", req.ArtifactName,
	)

	workflow, err := uc.findWorkflow(ctx, req)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		uc.stop(ctx, report, model.ReasonNoWorkflow, fmt.Sprintf("no workflow path contains %q", req.Workflow))
		return report, nil
	}
	report.Workflow = workflow

	logger.Info("Found workflow",
		"workflow_id", workflow.ID,
		"name", workflow.Name,
		"path", workflow.Path,
	)

	latestRun, err := uc.latestSuccessfulRun(ctx, req, workflow, "")
	if err != nil {
		return nil, err
	}
	if latestRun == nil {
		uc.stop(ctx, report, model.ReasonNoRuns, fmt.Sprintf("workflow %s has no successful run", workflow.Path))
		return report, nil
	}

	releaseTarget, err := uc.resolveRelease(ctx, req, workflow, report)
	if err != nil {
		return nil, err
	}

	latestTarget := &model.Target{
		Kind:   model.TargetLatest,
		Suffix: latestRun.HeadSHA,
		Run:    latestRun,
	}
	if err := uc.selectArtifact(ctx, req, latestTarget); err != nil {
		return nil, err
	}

	for _, target := range []*model.Target{releaseTarget, latestTarget} {
		result, err := uc.process(ctx, req, target)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

// stop records a failure that ends the procedure before any artifact is processed
func (uc *fetchUseCase) stop(ctx context.Context, report *model.Report, reason, detail string) {
	ctxlog.From(ctx).Warn("Stopping fetch", "reason", reason, "detail", detail)
	report.Failure = reason
	uc.reporter.Fail(ctx, reason+": "+detail)
}

// findWorkflow returns the first workflow whose path contains the configured fragment
func (uc *fetchUseCase) findWorkflow(ctx context.Context, req *model.FetchRequest) (*model.Workflow, error) {
	workflows, err := uc.githubClient.ListWorkflows(ctx, req.Owner, req.Repo)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find workflow", goerr.V("workflow", req.Workflow))
	}

	for _, w := range workflows {
		if strings.Contains(w.Path, req.Workflow) {
			return w, nil
		}
	}
	return nil, nil
}

// latestSuccessfulRun returns the newest successful run, optionally at headSHA.
// The API is trusted to order runs newest first.
func (uc *fetchUseCase) latestSuccessfulRun(ctx context.Context, req *model.FetchRequest, workflow *model.Workflow, headSHA string) (*model.WorkflowRun, error) {
	runs, err := uc.githubClient.ListWorkflowRuns(ctx, req.Owner, req.Repo, workflow.ID, model.RunFilter{
		Status:  runStatusSuccess,
		HeadSHA: headSHA,
		PerPage: 1,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find successful run",
			goerr.V("workflow_id", workflow.ID),
			goerr.V("head_sha", headSHA),
		)
	}

	if len(runs) == 0 || !runs[0].Succeeded() {
		return nil, nil
	}
	return runs[0], nil
}

// resolveRelease builds the target for the run that built the latest release.
// Missing release or run is recorded on the target, not returned as an error.
func (uc *fetchUseCase) resolveRelease(ctx context.Context, req *model.FetchRequest, workflow *model.Workflow, report *model.Report) (*model.Target, error) {
	logger := ctxlog.From(ctx)
	target := &model.Target{Kind: model.TargetRelease}

	release, err := uc.githubClient.GetLatestRelease(ctx, req.Owner, req.Repo)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			target.Reason = model.ReasonNoRelease
			return target, nil
		}
		return nil, goerr.Wrap(err, "failed to resolve latest release")
	}
	report.Release = release
	target.Suffix = release.TagName

	logger.Info("Resolved latest release",
		"tag", release.TagName,
		"commit_sha", release.CommitSHA,
	)

	run, err := uc.latestSuccessfulRun(ctx, req, workflow, release.CommitSHA)
	if err != nil {
		return nil, err
	}
	if run == nil {
		target.Reason = model.ReasonNoReleaseRun
		return target, nil
	}
	target.Run = run

	if err := uc.selectArtifact(ctx, req, target); err != nil {
		return nil, err
	}
	return target, nil
}

// selectArtifact picks the artifact named req.ArtifactName from the target's run
func (uc *fetchUseCase) selectArtifact(ctx context.Context, req *model.FetchRequest, target *model.Target) error {
	artifacts, err := uc.githubClient.ListRunArtifacts(ctx, req.Owner, req.Repo, target.Run.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to list artifacts",
			goerr.V("kind", target.Kind),
			goerr.V("run_id", target.Run.ID),
		)
	}

	artifact := model.FindArtifact(artifacts, req.ArtifactName)
	switch {
	case artifact == nil:
		target.Reason = model.ReasonNoArtifact
	case artifact.Expired:
		target.Reason = model.ReasonExpired
	default:
		target.Artifact = artifact
	}

	ctxlog.From(ctx).Debug("Selected artifact",
		"kind", target.Kind,
		"run_id", target.Run.ID,
		"candidates", len(artifacts),
		"found", artifact != nil,
	)
	return nil
}

// process downloads, writes and extracts one target. Unresolved targets are
// reported as failed results.
func (uc *fetchUseCase) process(ctx context.Context, req *model.FetchRequest, target *model.Target) (*model.FetchResult, error) {
	logger := ctxlog.From(ctx)

	result := &model.FetchResult{
		Kind:   target.Kind,
		Suffix: target.Suffix,
	}
	if target.Run != nil {
		result.RunID = target.Run.ID
		result.RunURL = target.Run.HTMLURL
	}

	if target.Reason != "" {
		result.Status = model.FetchFailed
		result.Reason = target.Reason
		uc.reporter.Fail(ctx, describeFailure(req, target))
		logger.Warn("Skipping artifact", "kind", target.Kind, "reason", target.Reason)
		return result, nil
	}

	data, err := uc.githubClient.DownloadArtifact(ctx, req.Owner, req.Repo, target.Artifact.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download artifact",
			goerr.V("kind", target.Kind),
			goerr.V("artifact_id", target.Artifact.ID),
		)
	}

	logger.Info("Downloaded artifact",
		"kind", target.Kind,
		"artifact_id", target.Artifact.ID,
		"run_id", target.Run.ID,
		"run_created_at", target.Run.CreatedAt,
		"size_bytes", len(data),
	)

	zipFile, err := writeZip(req.ZipFile, target.Run.ID, data)
	if err != nil {
		return nil, err
	}
	result.ZipPath = zipFile

	destDir := filepath.Join(req.UnzipDir, target.Suffix)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create extraction directory", goerr.V("dir", destDir))
	}

	files, size, err := extractZip(ctx, zipFile, destDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract artifact", goerr.V("kind", target.Kind))
	}

	result.Status = model.FetchSucceeded
	result.Dir = destDir
	result.Files = files
	result.Size = size

	logger.Info("Extracted artifact",
		"kind", target.Kind,
		"dir", destDir,
		"file_count", len(files),
		"total_size_bytes", size,
	)
	uc.reporter.Success(ctx, result)

	return result, nil
}

func describeFailure(req *model.FetchRequest, target *model.Target) string {
	switch target.Reason {
	case model.ReasonNoRelease:
		return fmt.Sprintf("%s: %s/%s has no published release", target.Reason, req.Owner, req.Repo)
	case model.ReasonNoReleaseRun:
		return fmt.Sprintf("%s: no successful run for release %s", target.Reason, target.Suffix)
	default:
		return fmt.Sprintf("%s: %s artifact %q in run %d", target.Reason, target.Kind, req.ArtifactName, target.Run.ID)
	}
}
