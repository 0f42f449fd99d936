package snapshot

import (
	"iter"

	"procwalk/process"
	"procwalk/winapi"
)

// View maps the rows of an Iterator to domain records, dropping the rows
// decode rejects.
type View[Row, T any] struct {
	it     *Iterator[Row]
	decode func(*Row) (T, bool)
	value  T
	ops    [2]string // first, next
	format process.MessageFormatter
}

// Next advances to the next accepted record.
func (v *View[Row, T]) Next() bool {
	for v.it.Advance() {
		if val, ok := v.decode(&v.it.row); ok {
			v.value = val
			return true
		}
	}
	return false
}

// Value returns the current record.
func (v *View[Row, T]) Value() T {
	return v.value
}

// Err reports an OS failure that cut the enumeration short. A nil Err after
// Next returned false means every row was seen.
func (v *View[Row, T]) Err() error {
	if err := v.it.Err(); err != nil {
		op := v.ops[1]
		if v.it.FailedAtFirst() {
			op = v.ops[0]
		}
		return process.NewOSError(op, err, v.format)
	}
	return nil
}

// Close releases the snapshot handle.
func (v *View[Row, T]) Close() error {
	if err := v.it.Close(); err != nil {
		return process.NewOSError("CloseHandle", err, v.format)
	}
	return nil
}

// All returns the remaining records as a sequence; see Iterator.All.
func (v *View[Row, T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		defer v.Close()
		for v.Next() {
			if !yield(v.value) {
				return
			}
		}
	}
}

// Collect drains the view and closes it.
func (v *View[Row, T]) Collect() ([]T, error) {
	defer v.Close()
	var out []T
	for v.Next() {
		out = append(out, v.value)
	}
	return out, v.Err()
}

func formatterOf(tl winapi.Toolhelp) process.MessageFormatter {
	if f, ok := tl.(process.MessageFormatter); ok {
		return f
	}
	return nil
}
