package domain

// PRContext identifies a pull request and the two commits it compares.
type PRContext struct {
	Owner    string
	Repo     string
	PRNumber int
	BaseSHA  string
	HeadSHA  string
}

// FileStatus is how a pull request touched a diagram file.
type FileStatus int

const (
	FileModified FileStatus = iota
	FileAdded
	FileRemoved
	FileRenamed
)

// ChangedDiagram is a diagram file touched by a pull request. PreviousPath
// differs from Path only for renames.
type ChangedDiagram struct {
	Path         string
	PreviousPath string
	Status       FileStatus
}

// CompareRequest builds the request comparing the head of pr against its
// base for this diagram.
func (d ChangedDiagram) CompareRequest(pr PRContext) CompareRequest {
	previous := d.PreviousPath
	if previous == "" {
		previous = d.Path
	}
	return CompareRequest{
		Latest:   SnapshotRef{Owner: pr.Owner, Repo: pr.Repo, Path: d.Path, Ref: pr.HeadSHA},
		Previous: SnapshotRef{Owner: pr.Owner, Repo: pr.Repo, Path: previous, Ref: pr.BaseSHA},
	}
}
