package index

import (
	"errors"
	"io/fs"
	"time"
)

// maxFileErrors caps the per-file errors kept in a Summary.
const maxFileErrors = 100

// Outcome is what happened to one file during a refresh.
type Outcome int

const (
	OutcomeIndexed Outcome = iota
	// OutcomeSkippedPermission covers unreadable files and files that vanished
	// between enumeration and stat. These are routine and not reported.
	OutcomeSkippedPermission
	// OutcomeSkippedError is any other per-file failure; it is reported.
	OutcomeSkippedError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIndexed:
		return "indexed"
	case OutcomeSkippedPermission:
		return "skipped-permission"
	case OutcomeSkippedError:
		return "skipped-error"
	}
	return "unknown"
}

// Classify maps a per-file walk error to its Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeIndexed
	case errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrNotExist):
		return OutcomeSkippedPermission
	default:
		return OutcomeSkippedError
	}
}

// FileError is a reported per-file failure.
type FileError struct {
	Path string
	Err  error
}

// Summary reports the result of one refresh pass.
type Summary struct {
	RunID             string
	Roots             []string
	MissingRoots      []string
	Indexed           int
	SkippedPermission int
	SkippedError      int
	// Errors holds the first reported failures, up to maxFileErrors.
	Errors    []FileError
	IndexedAt time.Time
	Elapsed   time.Duration
}

// Skipped returns the number of files that were found but not indexed.
func (s *Summary) Skipped() int {
	return s.SkippedPermission + s.SkippedError
}

func (s *Summary) addError(path string, err error) {
	s.SkippedError++
	if len(s.Errors) < maxFileErrors {
		s.Errors = append(s.Errors, FileError{Path: path, Err: err})
	}
}

// EventKind identifies a progress event.
type EventKind int

const (
	EventRootStarted EventKind = iota
	EventRootMissing
	EventBatch
	EventDone
)

// Event is a progress notification. Indexed is the running total.
type Event struct {
	Kind    EventKind
	Root    string
	Err     error
	Indexed int
	Elapsed time.Duration
}

// ProgressFunc receives progress events. It is called from a single goroutine.
type ProgressFunc func(Event)
