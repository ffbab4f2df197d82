package interfaces

import (
	"context"

	"github.com/m-mizutani/runfetch/pkg/domain/model"
)

// FetchUseCase resolves the release and latest runs of a workflow and
// downloads a named artifact from each
type FetchUseCase interface {
	// Fetch runs the whole procedure. Not-found conditions are recorded in
	// the report; API and filesystem errors are returned.
	Fetch(ctx context.Context, req *model.FetchRequest) (*model.Report, error)
}
