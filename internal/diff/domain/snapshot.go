package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRef is returned for refs a snapshot source could mistake for a
// command-line option.
var ErrInvalidRef = errors.New("ref must not start with '-'")

// SnapshotRef locates one revision of a diagram in a snapshot source.
// Owner and Repo name the repository holding it; sources serving a single
// repository use their own when both are empty.
type SnapshotRef struct {
	Owner string
	Repo  string
	Path  string
	Ref   string
}

// Label returns the display label for the ref.
func (r SnapshotRef) Label() string {
	return DiffLabel(r.Path, r.Ref)
}

// Validate rejects refs starting with '-'.
func (r SnapshotRef) Validate() error {
	if strings.HasPrefix(r.Ref, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidRef, r.Ref)
	}
	return nil
}

// CompareRequest asks for two revisions of a diagram to be compared.
type CompareRequest struct {
	Name     string // Defaults to Latest.Path
	Latest   SnapshotRef
	Previous SnapshotRef
}

// Validate checks both refs.
func (r CompareRequest) Validate() error {
	return errors.Join(r.Latest.Validate(), r.Previous.Validate())
}

// DisplayName returns Name, falling back to the latest path.
func (r CompareRequest) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Latest.Path
}

// NotFoundError reports a snapshot missing at the given ref.
type NotFoundError struct {
	Path string
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snapshot %s not found at ref %q", e.Path, e.Ref)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(path, ref string) error {
	return &NotFoundError{Path: path, Ref: ref}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
