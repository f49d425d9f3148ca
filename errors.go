package jsonedit

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPath     = errors.New("jsonedit: invalid path")
	ErrPathNotFound    = errors.New("jsonedit: path does not resolve in document")
	ErrInvalidDocument = errors.New("jsonedit: invalid document")
	ErrNotEditing      = errors.New("jsonedit: session is not editing")
	ErrNotViewing      = errors.New("jsonedit: session is already editing")
)

// SaveError is what a failed Session.Save reports. Op names the step that
// failed: "parse" for the document text, "apply" for the path.
type SaveError struct {
	Op   string
	Path Path
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("jsonedit: save %s at %s: %v", e.Op, e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
