package shell

import (
	"errors"
	"fmt"
)

// UsageError reports malformed command arguments.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// StateError reports a command that needs state the session does not have yet.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// RemoteError wraps a failure of the feed, note store or subprocess collaborator.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *RemoteError) Unwrap() error { return e.Err }

// IndexError reports a numeric reference outside the listing.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	if e.Len == 0 {
		return fmt.Sprintf("There is no item %d, the list is empty.", e.Index)
	}
	return fmt.Sprintf("There is no item %d, use a number between 1 and %d.", e.Index, e.Len)
}

var (
	ErrNoListing          = &StateError{Msg: "Use the notifications or home command first."}
	ErrStaleReference     = &StateError{Msg: "That number refers to a list that is no longer shown."}
	ErrAmbiguousReference = &StateError{Msg: "Internal error: the shown list is missing, reload it."}
	ErrNotConnected       = &StateError{Msg: "Use the login command, first."}
	ErrNoCurrentPost      = &StateError{Msg: "Use the show command to select a post, first."}
)

func usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

func remote(op string, err error) error {
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}
