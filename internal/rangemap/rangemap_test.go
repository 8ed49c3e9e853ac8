package rangemap

import "testing"

func TestNewSingleEntry(t *testing.T) {
	m := New(10, 1.0)
	if m.Len() != 10 {
		t.Errorf("Expected Len 10, got %d", m.Len())
	}
	if m.NumEntries() != 1 {
		t.Errorf("Expected 1 entry, got %d", m.NumEntries())
	}
	e := m.RangeForIndex(5)
	if e.Offset != 0 || e.Len != 10 || e.Value != 1.0 {
		t.Errorf("Unexpected entry: %+v", e)
	}
}

func TestSplitNoOpAtBoundaries(t *testing.T) {
	m := New(10, 1.0)
	m.Split(0)
	m.Split(10)
	if m.NumEntries() != 1 {
		t.Errorf("Expected split at boundary to be a no-op, got %d entries", m.NumEntries())
	}
}

func TestSplitCreatesTwoEntries(t *testing.T) {
	m := New(10, 1.0)
	m.Split(4)
	if m.NumEntries() != 2 {
		t.Fatalf("Expected 2 entries after split, got %d", m.NumEntries())
	}
	left := m.RangeForIndex(0)
	right := m.RangeForIndex(4)
	if left.Offset != 0 || left.Len != 4 {
		t.Errorf("Unexpected left entry: %+v", left)
	}
	if right.Offset != 4 || right.Len != 6 {
		t.Errorf("Unexpected right entry: %+v", right)
	}
}

func TestSplitIdempotent(t *testing.T) {
	m := New(10, 1.0)
	m.Split(4)
	m.Split(4)
	if m.NumEntries() != 2 {
		t.Errorf("Expected repeated split at same index to be a no-op, got %d entries", m.NumEntries())
	}
}

func TestRoundtripLengthsSumToSize(t *testing.T) {
	m := New(100, 1.0)
	for _, i := range []int{10, 37, 38, 91, 1, 99} {
		m.Split(i)
	}
	total := 0
	m.Ranges(func(e Entry[float64]) {
		total += e.Len
	})
	if total != 100 {
		t.Errorf("Expected total length 100, got %d", total)
	}
	for i := 0; i < 100; i++ {
		e := m.RangeForIndex(i)
		if i < e.Offset || i >= e.Offset+e.Len {
			t.Errorf("RangeForIndex(%d) = %+v does not cover %d", i, e, i)
		}
	}
}

func TestRangeForIndexOutOfRangePanics(t *testing.T) {
	m := New(10, 1.0)
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for out-of-range index")
		}
	}()
	m.RangeForIndex(10)
}

func TestSplitOutOfRangePanics(t *testing.T) {
	m := New(10, 1.0)
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for out-of-range split index")
		}
	}()
	m.Split(11)
}

func TestRangesMutInPlace(t *testing.T) {
	m := New(10, 1.0)
	m.Split(4)
	m.RangesMut(func(e Entry[float64]) float64 {
		return e.Value * 2
	})
	if m.RangeForIndex(0).Value != 2.0 || m.RangeForIndex(4).Value != 2.0 {
		t.Errorf("Expected all values doubled")
	}
}

func TestRangesInRestrictsToBounds(t *testing.T) {
	m := New(10, 1.0)
	m.Split(4)
	m.Split(7)
	m.RangesIn(4, 7, func(e Entry[float64]) float64 {
		return e.Value * 10
	})
	if m.RangeForIndex(0).Value != 1.0 {
		t.Errorf("Expected entry before range to be untouched")
	}
	if m.RangeForIndex(4).Value != 10.0 {
		t.Errorf("Expected entry inside range to be scaled")
	}
	if m.RangeForIndex(7).Value != 1.0 {
		t.Errorf("Expected entry after range to be untouched")
	}
}
