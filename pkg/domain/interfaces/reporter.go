package interfaces

import (
	"context"

	"github.com/m-mizutani/runfetch/pkg/domain/model"
)

// Reporter surfaces the outcome of a fetch to the calling workflow runner
type Reporter interface {
	// Fail marks the step as failed with a message. It does not stop the process.
	Fail(ctx context.Context, msg string)

	// Success records a completed branch
	Success(ctx context.Context, result *model.FetchResult)

	// Publish exposes the final report (step outputs, summary)
	Publish(ctx context.Context, report *model.Report) error
}

// Notifier delivers failure notifications outside of the workflow runner
type Notifier interface {
	Notify(ctx context.Context, report *model.Report) error
}
