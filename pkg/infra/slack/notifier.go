package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/runfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/runfetch/pkg/domain/model"
	"github.com/slack-go/slack"
)

type notifier struct {
	webhookURL string
	repository string
}

// NewNotifier returns a Notifier posting failed reports to a Slack incoming
// webhook. An empty URL returns a notifier that does nothing.
func NewNotifier(webhookURL, repository string) interfaces.Notifier {
	if webhookURL == "" {
		return &nopNotifier{}
	}
	return &notifier{
		webhookURL: webhookURL,
		repository: repository,
	}
}

// Notify posts the failures of report. Successful reports are not posted.
func (n *notifier) Notify(ctx context.Context, report *model.Report) error {
	if !report.Failed() {
		return nil
	}

	msg := &slack.WebhookMessage{
		Text: formatMessage(n.repository, report),
	}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack notification", goerr.V("repository", n.repository))
	}

	ctxlog.From(ctx).Debug("Posted Slack notification", "repository", n.repository)
	return nil
}

func formatMessage(repository string, report *model.Report) string {
	var lines []string
	lines = append(lines, fmt.Sprintf(":x: runfetch failed for *%s*", repository))

	if report.Failure != "" {
		lines = append(lines, "• "+report.Failure)
	}
	for _, res := range report.Results {
		if !res.Succeeded() {
			lines = append(lines, fmt.Sprintf("• %s: %s", res.Kind, res.Reason))
		}
	}
	return strings.Join(lines, "\n")
}

type nopNotifier struct{}

func (n *nopNotifier) Notify(ctx context.Context, report *model.Report) error {
	return nil
}
