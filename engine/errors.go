package engine

import (
	"errors"
	"fmt"
)

// Kinds of invariant violation. An InvariantError wraps exactly one of
// these, so they can be matched with errors.Is.
var (
	ErrDoubleAssignment = errors.New("halo already has a central galaxy")
	ErrMissingHalo      = errors.New("non-ghost galaxy has no halo")
	ErrNullChainHead    = errors.New("merged satellite chain has a null head")
	ErrUnresolvedMerger = errors.New("galaxy is still pending a merger")
	ErrBrokenChain      = errors.New("satellite chain does not match halo assignment")
	ErrCountMismatch    = errors.New("galaxy counts do not match")
)

// InvariantError reports corrupted bookkeeping state. None of these are
// recoverable: the run must be abandoned.
type InvariantError struct {
	Kind     error
	Pass     string
	Snapshot int
	Galaxy   int64 // ID of the offending galaxy, or -1.
	Halo     int   // Index of the offending halo, or -1.
	Detail   string
}

func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("%s pass of snapshot %d: %s", e.Pass, e.Snapshot, e.Kind)
	if e.Galaxy >= 0 {
		msg += fmt.Sprintf(" (galaxy %d)", e.Galaxy)
	}
	if e.Halo >= 0 {
		msg += fmt.Sprintf(" (halo %d)", e.Halo)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *InvariantError) Unwrap() error { return e.Kind }
