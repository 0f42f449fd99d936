// Package snapshot turns the toolhelp first/next enumeration protocol into
// single-pass iterators that always release their snapshot handle.
package snapshot

import (
	"iter"

	"procwalk/winapi"
)

// StepFunc fetches the first or the next row of a snapshot into row.
// It returns ERROR_NO_MORE_FILES once the snapshot is exhausted.
type StepFunc[Row any] func(h winapi.Handle, row *Row) error

// ReleaseFunc closes a snapshot handle.
type ReleaseFunc func(h winapi.Handle) error

// Iterator drives one snapshot handle through its rows. It owns the handle
// and releases it exactly once, on Close. It is not safe for concurrent use.
type Iterator[Row any] struct {
	handle  winapi.Handle
	row     Row
	count   int
	done    bool
	closed  bool
	err     error
	first   StepFunc[Row]
	next    StepFunc[Row]
	release ReleaseFunc
}

// New takes ownership of h. row is the buffer every step overwrites and
// must carry any header fields the protocol expects (dwSize). Passing
// winapi.InvalidHandle is a caller bug and panics.
func New[Row any](h winapi.Handle, row Row, first, next StepFunc[Row], release ReleaseFunc) *Iterator[Row] {
	if h == winapi.InvalidHandle {
		panic("snapshot: New called with an invalid snapshot handle")
	}
	return &Iterator[Row]{
		handle:  h,
		row:     row,
		first:   first,
		next:    next,
		release: release,
	}
}

// Advance fetches the next row and reports whether one is available. Once
// it has returned false it keeps returning false.
func (it *Iterator[Row]) Advance() bool {
	if it.done || it.closed {
		return false
	}

	step := it.next
	if it.count == 0 {
		step = it.first
	}
	err := step(it.handle, &it.row)
	it.count++

	if err != nil {
		it.done = true
		if !winapi.IsNoMoreFiles(err) {
			it.err = err
		}
		return false
	}
	return true
}

// Row returns a copy of the current row.
func (it *Iterator[Row]) Row() Row {
	return it.row
}

// Steps reports how many fetch calls have been made.
func (it *Iterator[Row]) Steps() int {
	return it.count
}

// Err returns the error that ended the enumeration, or nil if the snapshot
// was exhausted normally or is still being read.
func (it *Iterator[Row]) Err() error {
	return it.err
}

// FailedAtFirst reports whether Err came from the first fetch rather than
// from a later one.
func (it *Iterator[Row]) FailedAtFirst() bool {
	return it.err != nil && it.count == 1
}

// Close releases the snapshot handle. Calling it again is a no-op.
func (it *Iterator[Row]) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.release(it.handle)
}

// All returns the remaining rows as a sequence. The handle is released when
// the loop ends, whether by exhaustion, break or panic.
func (it *Iterator[Row]) All() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		defer it.Close()
		for it.Advance() {
			if !yield(it.row) {
				return
			}
		}
	}
}
