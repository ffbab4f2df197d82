package model

// Release is the latest published release of a repository, with its tag
// resolved to a commit
type Release struct {
	TagName   string
	Name      string
	CommitSHA string
}
