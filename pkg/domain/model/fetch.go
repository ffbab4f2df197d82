package model

// TargetKind identifies which side of the comparison an artifact belongs to
type TargetKind string

const (
	TargetRelease TargetKind = "release"
	TargetLatest  TargetKind = "latest"
)

// FetchStatus is the outcome of one branch of the fetch procedure
type FetchStatus string

const (
	FetchSucceeded FetchStatus = "succeeded"
	FetchFailed    FetchStatus = "failed"
)

// Failure reasons reported to the workflow runner
const (
	ReasonNoWorkflow   = "No workflow found"
	ReasonNoRuns       = "No runs found"
	ReasonNoRelease    = "No release found"
	ReasonNoReleaseRun = "No release run found"
	ReasonNoArtifact   = "No artifact found"
	ReasonExpired      = "Artifact expired"
)

// FetchRequest holds the inputs of a single fetch invocation
type FetchRequest struct {
	Owner        string
	Repo         string
	Workflow     string // substring matched against the workflow file path
	ArtifactName string
	ZipFile      string // template for the per-artifact zip path; empty uses a temp file
	UnzipDir     string
}

// Target is a resolved artifact to be downloaded and extracted under Suffix
type Target struct {
	Kind     TargetKind
	Suffix   string
	Run      *WorkflowRun
	Artifact *Artifact
	Reason   string // set when the target could not be resolved
}

// FetchResult is the outcome of downloading and extracting one target
type FetchResult struct {
	Kind    TargetKind
	Suffix  string
	Status  FetchStatus
	Reason  string
	RunID   int64
	RunURL  string
	ZipPath string
	Dir     string
	Files   []string
	Size    int64
}

// Succeeded reports whether the branch completed
func (r *FetchResult) Succeeded() bool {
	return r.Status == FetchSucceeded
}

// Report is the overall outcome of a fetch invocation
type Report struct {
	Workflow *Workflow
	Release  *Release
	// Failure is set when the procedure stopped before any artifact was processed
	Failure string
	Results []*FetchResult
}

// Failed reports whether any failure was recorded
func (r *Report) Failed() bool {
	if r.Failure != "" {
		return true
	}
	for _, res := range r.Results {
		if !res.Succeeded() {
			return true
		}
	}
	return false
}

// Result returns the branch result of the given kind, or nil
func (r *Report) Result(kind TargetKind) *FetchResult {
	for _, res := range r.Results {
		if res.Kind == kind {
			return res
		}
	}
	return nil
}
