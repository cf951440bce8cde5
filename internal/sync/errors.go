package sync

import (
	"errors"
	"fmt"
)

// errMissingSource guards against directives whose source note vanished
// between planning and execution.
var errMissingSource = errors.New("source note not loaded")

// FileError wraps a per-file failure during a sync run. File errors are
// recoverable: the run reports them and continues with the next note.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
