package actions

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/runfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/runfetch/pkg/domain/model"
	"github.com/sethvargo/go-githubactions"
)

// Reporter reports fetch outcomes through GitHub Actions workflow commands
type Reporter struct {
	action *githubactions.Action
}

var _ interfaces.Reporter = (*Reporter)(nil)

// New creates a Reporter. Options are passed through to go-githubactions.
func New(opts ...githubactions.Option) *Reporter {
	return &Reporter{
		action: githubactions.New(opts...),
	}
}

// Fail emits an error annotation. The step is marked failed by the non-zero
// exit status the CLI returns once the report is published.
func (r *Reporter) Fail(ctx context.Context, msg string) {
	ctxlog.From(ctx).Error("Fetch failed", "message", msg)
	r.action.Errorf("%s", msg)
}

// Success emits a notice for an extracted artifact
func (r *Reporter) Success(ctx context.Context, result *model.FetchResult) {
	r.action.Noticef("%s artifact extracted to %s (%d files)", result.Kind, result.Dir, len(result.Files))
}

// Publish sets step outputs and appends a summary table to the job summary
func (r *Reporter) Publish(ctx context.Context, report *model.Report) error {
	r.action.SetOutput("failed", strconv.FormatBool(report.Failed()))

	if release := report.Result(model.TargetRelease); release != nil {
		r.action.SetOutput("release-tag", release.Suffix)
		r.action.SetOutput("release-dir", release.Dir)
	}
	if latest := report.Result(model.TargetLatest); latest != nil {
		r.action.SetOutput("latest-sha", latest.Suffix)
		r.action.SetOutput("latest-dir", latest.Dir)
	}

	r.action.AddStepSummary(renderSummary(report))
	return nil
}

func renderSummary(report *model.Report) string {
	var b strings.Builder
	b.WriteString("### Workflow artifacts\n\n")

	if report.Workflow != nil {
		fmt.Fprintf(&b, "Workflow: `%s`\n\n", report.Workflow.Path)
	}
	if report.Release != nil {
		name := report.Release.Name
		if name == "" {
			name = report.Release.TagName
		}
		fmt.Fprintf(&b, "Release: %s (`%s` at `%s`)\n\n", name, report.Release.TagName, report.Release.CommitSHA)
	}
	if report.Failure != "" {
		fmt.Fprintf(&b, ":x: %s\n", report.Failure)
		return b.String()
	}

	b.WriteString("| Target | Directory | Run | Files | Status |\n")
	b.WriteString("|--------|-----------|-----|-------|--------|\n")
	for _, res := range report.Results {
		status := ":white_check_mark:"
		if !res.Succeeded() {
			status = ":x: " + res.Reason
		}
		fmt.Fprintf(&b, "| %s | `%s` | %s | %d | %s |\n", res.Kind, res.Suffix, runLink(res), len(res.Files), status)
	}
	return b.String()
}

func runLink(res *model.FetchResult) string {
	switch {
	case res.RunID == 0:
		return "-"
	case res.RunURL == "":
		return strconv.FormatInt(res.RunID, 10)
	default:
		return fmt.Sprintf("[%d](%s)", res.RunID, res.RunURL)
	}
}
