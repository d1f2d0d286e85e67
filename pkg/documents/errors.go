package documents

import (
	"errors"
	"fmt"
)

// Operation names carried by MutationError.
const (
	OpUpload = "upload"
	OpDelete = "delete"
)

var (
	ErrNoFiles   = errors.New("no files to upload")
	ErrNotPDF    = errors.New("file is not a readable PDF")
	ErrEmptyID   = errors.New("document id is empty")
	ErrNotListed = errors.New("document is not in the collection")
)

// MutationError is a failed upload or delete. Unlike retrieval failures it is
// returned to the caller, since the user has to decide whether to retry.
type MutationError struct {
	Op     string
	Target string
	Err    error
}

func (e *MutationError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Target, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
