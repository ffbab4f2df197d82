package model

import "time"

// Workflow is a CI pipeline definition registered in a repository
type Workflow struct {
	ID   int64
	Name string
	Path string // e.g. .github/workflows/build.yml
}

// WorkflowConclusion is the final outcome of a completed workflow run
type WorkflowConclusion string

const (
	WorkflowConclusionSuccess WorkflowConclusion = "success"
	WorkflowConclusionFailure WorkflowConclusion = "failure"
)

// WorkflowRun is one execution of a workflow for a commit
type WorkflowRun struct {
	ID         int64
	Conclusion WorkflowConclusion
	HeadSHA    string
	HTMLURL    string
	CreatedAt  time.Time
}

// Succeeded reports whether the run completed successfully
func (r *WorkflowRun) Succeeded() bool {
	return r != nil && r.Conclusion == WorkflowConclusionSuccess
}

// RunFilter narrows a workflow run listing
type RunFilter struct {
	Status  string // "success" to list only successful runs
	HeadSHA string // empty matches any commit
	PerPage int
}
