package flakiness

import (
	"math"
	"testing"
)

func assertFlakiness(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) >= 1e-4 {
		t.Errorf("flakiness = %v, want ~%v", got, want)
	}
}

func assertInversions(t *testing.T, trk *Tracker, wantI, wantR int) {
	t.Helper()
	i, r := trk.Inversions()
	if i != wantI || r != wantR {
		t.Errorf("inversions = (%d, %d), want (%d, %d)", i, r, wantI, wantR)
	}
}

func TestEmptyTracker(t *testing.T) {
	trk := NewTracker()
	assertInversions(t, trk, 0, 0)
	assertFlakiness(t, trk.Flakiness(), 0.5)
}

func TestOneHead(t *testing.T) {
	trk := NewTracker()
	trk.Report(0, true)
	assertInversions(t, trk, 0, 1)
	assertFlakiness(t, trk.Flakiness(), 0.4416)
}

func TestTwoHeadsSameBucket(t *testing.T) {
	trk := NewTracker()
	trk.Report(0, true)
	trk.Report(0, true)
	assertInversions(t, trk, 0, 4)
	assertFlakiness(t, trk.Flakiness(), 0.3271)
}

func TestTwoHeadsDifferentBuckets(t *testing.T) {
	trk := NewTracker()
	trk.Report(0, true)
	trk.Report(1, true)
	assertInversions(t, trk, 0, 3)
	assertFlakiness(t, trk.Flakiness(), 0.3581)
}

func TestOneHeadOneTailSameBucket(t *testing.T) {
	trk := NewTracker()
	trk.Report(0, false)
	trk.Report(0, true)
	assertInversions(t, trk, 1, 4)
	assertFlakiness(t, trk.Flakiness(), 0.6567)
}

func TestOneHeadOneTailInverted(t *testing.T) {
	trk := NewTracker()
	trk.Report(0, true)
	trk.Report(1, false)
	assertInversions(t, trk, 1, 3)
	assertFlakiness(t, trk.Flakiness(), 0.7191)
}

func TestOneHeadOneTailNotInverted(t *testing.T) {
	trk := NewTracker()
	trk.Report(0, false)
	trk.Report(1, true)
	assertInversions(t, trk, 0, 3)
	assertFlakiness(t, trk.Flakiness(), 0.3580)
}

func TestHundredHeadsSameBucket(t *testing.T) {
	trk := NewTracker()
	for i := 0; i < 100; i++ {
		trk.Report(0, true)
	}
	assertInversions(t, trk, 0, 10000)
	assertFlakiness(t, trk.Flakiness(), 0.0004)
}

func TestHundredHeadsOneTailSameBucket(t *testing.T) {
	trk := NewTracker()
	for i := 0; i < 100; i++ {
		trk.Report(0, true)
	}
	trk.Report(0, false)
	assertInversions(t, trk, 100, 10201)
	assertFlakiness(t, trk.Flakiness(), 0.0375)
}

func TestHundredHeadsHundredTailsSameBucket(t *testing.T) {
	trk := NewTracker()
	for i := 0; i < 100; i++ {
		trk.Report(0, false)
		trk.Report(0, true)
	}
	assertInversions(t, trk, 10000, 40000)
	assertFlakiness(t, trk.Flakiness(), 0.9566)
}

func TestHundredHeadsHundredTailsInverted(t *testing.T) {
	trk := NewTracker()
	for i := 0; i < 100; i++ {
		trk.Report(0, true)
		trk.Report(1, false)
	}
	assertInversions(t, trk, 10000, 30000)
	assertFlakiness(t, trk.Flakiness(), 0.9999)
}

func TestHundredHeadsHundredTailsNotInverted(t *testing.T) {
	trk := NewTracker()
	for i := 0; i < 100; i++ {
		trk.Report(0, false)
		trk.Report(1, true)
	}
	assertInversions(t, trk, 0, 30000)
	assertFlakiness(t, trk.Flakiness(), 0.0001)
}

func TestHalfNotFlakySplitInversions(t *testing.T) {
	trk := NewTracker()
	for i := 0; i < 500; i++ {
		trk.Report(i, false)
	}
	for i := 500; i < 1000; i += 2 {
		trk.Report(i, false)
		trk.Report(i+1, true)
	}
	i, r := trk.InversionsBefore(500)
	if i != 0 || r != 125250 {
		t.Errorf("InversionsBefore(500) = (%d, %d), want (0, 125250)", i, r)
	}
	i, r = trk.InversionsOnOrAfter(500)
	if i != 31125 || r != 125250 {
		t.Errorf("InversionsOnOrAfter(500) = (%d, %d), want (31125, 125250)", i, r)
	}
	assertFlakiness(t, trk.Flakiness(), 0.236)
}

func TestOptimalStiffnessMonotonicallyDecreasing(t *testing.T) {
	prev := OptimalStiffness(0.01)
	for _, f := range []float64{0.05, 0.1, 0.3, 0.5, 0.9} {
		cur := OptimalStiffness(f)
		if cur > prev {
			t.Errorf("Expected stiffness to decrease as flakiness increases: f=%v got %v > prev %v", f, cur, prev)
		}
		prev = cur
	}
}
