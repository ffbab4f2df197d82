package model

// Artifact is a named build output attached to a workflow run
type Artifact struct {
	ID          int64
	Name        string
	SizeInBytes int64
	Expired     bool
}

// FindArtifact returns the artifact whose name equals name exactly, or nil
func FindArtifact(artifacts []*Artifact, name string) *Artifact {
	for _, a := range artifacts {
		if a != nil && a.Name == name {
			return a
		}
	}
	return nil
}
