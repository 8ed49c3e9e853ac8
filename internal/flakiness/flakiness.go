// Package flakiness estimates how often an oracle's yes/no answer
// contradicts the monotone-boundary assumption bisection relies on, from
// the pattern of vote inversions observed so far, and converts that
// estimate into the Bayesian update strength ("stiffness") a searcher
// should apply per probe.
package flakiness

import (
	"math"
	"sort"

	"github.com/adamcrume/robust-binary-search/internal/config"
)

type voteCounts struct {
	tails int
	heads int
}

// Tracker accumulates (index, heads/tails) votes over a linear range and
// estimates flakiness from the pattern of inversions.
type Tracker struct {
	votes      map[int]voteCounts
	totalHeads int
	totalTails int
	profile    config.Profile
}

// NewTracker creates an empty tracker using the default constant profile.
func NewTracker() *Tracker {
	return NewTrackerWithProfile(config.DefaultProfile())
}

// NewTrackerWithProfile creates an empty tracker using a caller-supplied
// constant profile (for offline experimentation; production callers
// should use NewTracker).
func NewTrackerWithProfile(profile config.Profile) *Tracker {
	return &Tracker{votes: make(map[int]voteCounts), profile: profile}
}

// Report records one vote at index, incrementing exactly one counter.
func (t *Tracker) Report(index int, heads bool) {
	v := t.votes[index]
	if heads {
		v.heads++
		t.totalHeads++
	} else {
		v.tails++
		t.totalTails++
	}
	t.votes[index] = v
}

func (t *Tracker) sortedIndices() []int {
	indices := make([]int, 0, len(t.votes))
	for i := range t.votes {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// Inversions returns (I, R): the exact inversion count and four times the
// expected inversion count under a random-labeling null hypothesis.
func (t *Tracker) Inversions() (int, int) {
	return t.inversionsBetween(func(int) bool { return true })
}

// InversionsBefore restricts the scan to indices < splitIx.
func (t *Tracker) InversionsBefore(splitIx int) (int, int) {
	return t.inversionsBetween(func(i int) bool { return i < splitIx })
}

// InversionsOnOrAfter restricts the scan to indices >= splitIx.
func (t *Tracker) InversionsOnOrAfter(splitIx int) (int, int) {
	return t.inversionsBetween(func(i int) bool { return i >= splitIx })
}

func (t *Tracker) inversionsBetween(include func(int) bool) (int, int) {
	headstotal := 0
	inverted := 0
	randomInversions := 0
	totalVotes := 0
	for _, idx := range t.sortedIndices() {
		if !include(idx) {
			continue
		}
		v := t.votes[idx]
		votes := v.heads + v.tails
		randomInversions += votes*votes + votes*totalVotes
		inverted += v.tails*headstotal + v.tails*v.heads
		headstotal += v.heads
		totalVotes += votes
	}
	return inverted, randomInversions
}

// TotalHeads returns the number of heads votes reported so far.
func (t *Tracker) TotalHeads() int {
	return t.totalHeads
}

// TotalTails returns the number of tails votes reported so far.
func (t *Tracker) TotalTails() int {
	return t.totalTails
}

// TotalVotes returns the total number of votes reported so far.
func (t *Tracker) TotalVotes() int {
	return t.totalHeads + t.totalTails
}

// Flakiness returns the estimated probability in [0, 1] that an oracle
// answer is random noise rather than signal. An empty tracker returns
// about 0.5 (0.49994 with the default profile).
func (t *Tracker) Flakiness() float64 {
	inv, randInv := t.Inversions()
	return flakinessFromInversions(inv, randInv, t.profile)
}

func flakinessFromInversions(inv, randInv int, profile config.Profile) float64 {
	r := (float64(inv) + profile.FlakinessPriorI) / (float64(randInv) + profile.FlakinessPriorR)
	f := profile.FlakinessA*r*r + profile.FlakinessB*r
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// SplitFlakiness2 partitions votes at splitIx and returns
// (flakinessBefore, flakinessAfter), estimating flakiness independently
// on each side from the proportion of votes that disagree with the
// expected label on that side (heads before the split, tails after it).
func (t *Tracker) SplitFlakiness2(splitIx int, prior float64) (before, after float64) {
	var tailsBefore, headsBefore, tailsAfter, headsAfter int
	for _, idx := range t.sortedIndices() {
		v := t.votes[idx]
		if idx < splitIx {
			tailsBefore += v.tails
			headsBefore += v.heads
		} else {
			tailsAfter += v.tails
			headsAfter += v.heads
		}
	}
	totalBefore := headsBefore + tailsBefore
	totalAfter := headsAfter + tailsAfter

	pHeadsBefore := (float64(headsBefore) + prior) / (float64(totalBefore) + 2*prior)
	pTailsAfter := (float64(tailsAfter) + prior) / (float64(totalAfter) + 2*prior)

	flakinessBefore := 2 * pHeadsBefore
	if flakinessBefore > 1 {
		flakinessBefore = 1
	}
	flakinessAfter := 2 * pTailsAfter
	if flakinessAfter > 1 {
		flakinessAfter = 1
	}
	return flakinessBefore, flakinessAfter
}

// OptimalStiffness maps an estimated flakiness to the multiplicative
// update strength a searcher should apply per probe. Pure, total
// function; callers are expected to supply f > 0 (f == 0 yields +Inf,
// which would make a single report absorbing; correctness at f == 0 is
// the caller's responsibility when bypassing Auto* wrappers).
func OptimalStiffness(f float64) float64 {
	return OptimalStiffnessWithProfile(f, config.DefaultProfile())
}

// OptimalStiffnessWithProfile is OptimalStiffness parameterized by a
// caller-supplied constant profile.
func OptimalStiffnessWithProfile(f float64, profile config.Profile) float64 {
	a := profile.StiffnessC1 * math.Pow(f, profile.StiffnessP1)
	b := profile.StiffnessC2 * math.Pow(f, profile.StiffnessP2)
	c := profile.StiffnessC3 * math.Pow(f, profile.StiffnessP3)
	return min3(a, b, c)
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
