// Package rangemap implements a run-length-compressed associative
// container over [0, N): an ordered list of half-open entries sharing a
// value, supporting O(log K) lookup and split by offset. Callers that need
// O(log K) insertion too should keep K small (the RangeMap shrinks back to
// one entry only by construction, never by merging neighbors back
// together, since merging is never required by the searchers that use
// this type).
package rangemap

import (
	"sort"

	"github.com/adamcrume/robust-binary-search/pkg/fault"
)

// Entry is one contiguous run [Offset, Offset+Len) sharing Value.
type Entry[T any] struct {
	Offset int
	Len    int
	Value  T
}

// RangeMap represents a function f: [0, N) -> T as a sorted list of
// entries. entries[0].Offset == 0, and consecutive entries are adjacent:
// entries[i].Offset+entries[i].Len == entries[i+1].Offset.
type RangeMap[T any] struct {
	size    int
	entries []Entry[T]
}

// New creates a RangeMap of the given size with a single entry covering
// the whole domain.
func New[T any](size int, value T) *RangeMap[T] {
	if size <= 0 {
		fault.Raise(fault.OutOfRange, "rangemap: size must be positive, got %d", size)
	}
	return &RangeMap[T]{
		size:    size,
		entries: []Entry[T]{{Offset: 0, Len: size, Value: value}},
	}
}

// Len returns the domain size N.
func (m *RangeMap[T]) Len() int {
	return m.size
}

// NumEntries returns the current entry count K, mostly useful for tests
// and telemetry.
func (m *RangeMap[T]) NumEntries() int {
	return len(m.entries)
}

// entryIndexForOffset returns the index of the entry whose Offset is the
// largest one <= offset, i.e. the entry that contains offset; at an exact
// boundary that is the entry starting at offset.
func (m *RangeMap[T]) entryIndexForOffset(offset int) int {
	// sort.Search finds the first index whose Offset > offset; the entry
	// we want is one before that.
	idx := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].Offset > offset
	})
	return idx - 1
}

// RangeForIndex returns (a copy of) the unique entry covering i.
func (m *RangeMap[T]) RangeForIndex(i int) Entry[T] {
	if i < 0 || i >= m.size {
		fault.Raise(fault.OutOfRange, "rangemap: index %d out of range [0, %d)", i, m.size)
	}
	idx := m.entryIndexForOffset(i)
	return m.entries[idx]
}

// Split ensures index i is an entry boundary. Precondition: 0 <= i <= N.
// If i is 0, N, or already a boundary, this is a no-op.
func (m *RangeMap[T]) Split(i int) {
	if i < 0 || i > m.size {
		fault.Raise(fault.OutOfRange, "rangemap: split index %d out of range [0, %d]", i, m.size)
	}
	if i == 0 || i == m.size {
		return
	}
	idx := m.entryIndexForOffset(i)
	e := m.entries[idx]
	if e.Offset == i {
		return
	}
	left := Entry[T]{Offset: e.Offset, Len: i - e.Offset, Value: e.Value}
	right := Entry[T]{Offset: i, Len: e.Offset + e.Len - i, Value: e.Value}
	m.entries[idx] = left
	m.entries = append(m.entries, Entry[T]{})
	copy(m.entries[idx+2:], m.entries[idx+1:])
	m.entries[idx+1] = right
}

// Ranges calls fn for every entry, left to right.
func (m *RangeMap[T]) Ranges(fn func(Entry[T])) {
	for _, e := range m.entries {
		fn(e)
	}
}

// RangesMut calls fn for every entry, left to right, and writes back
// whatever value fn returns as the entry's new value. Offset and Len are
// never exposed for mutation.
func (m *RangeMap[T]) RangesMut(fn func(Entry[T]) T) {
	for i, e := range m.entries {
		m.entries[i].Value = fn(e)
	}
}

// RangesIn restricts RangesMut's callback to entries fully inside
// [from, to). Callers must have already called Split(from) and Split(to)
// so the restriction lands on entry boundaries.
func (m *RangeMap[T]) RangesIn(from, to int, fn func(Entry[T]) T) {
	for i, e := range m.entries {
		if e.Offset >= from && e.Offset+e.Len <= to {
			m.entries[i].Value = fn(e)
		}
	}
}
