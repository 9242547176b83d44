// Package tier defines the Tetra League rank tiers and their percentile table.
package tier

import (
	"errors"
	"fmt"
)

// Tier is a rank label as reported by the leaderboard, e.g. "x" or "s+".
type Tier string

// Ranked tiers, best first. Unranked players ("z") are never aggregated.
const (
	X      Tier = "x"
	U      Tier = "u"
	SS     Tier = "ss"
	SPlus  Tier = "s+"
	S      Tier = "s"
	SMinus Tier = "s-"
	APlus  Tier = "a+"
	A      Tier = "a"
	AMinus Tier = "a-"
	BPlus  Tier = "b+"
	B      Tier = "b"
	BMinus Tier = "b-"
	CPlus  Tier = "c+"
	C      Tier = "c"
	CMinus Tier = "c-"
	DPlus  Tier = "d+"
	D      Tier = "d"
)

// ErrUnknownTier is returned when a label is not one of the ranked tiers.
var ErrUnknownTier = errors.New("unknown tier")

// ErrInvalidPercentile is returned for percentiles outside (0, 100].
var ErrInvalidPercentile = errors.New("invalid percentile")

// ordered lists the ranked tiers best first.
var ordered = []Tier{X, U, SS, SPlus, S, SMinus, APlus, A, AMinus, BPlus, B, BMinus, CPlus, C, CMinus, DPlus, D}

// defaultPercentiles holds the cumulative share of the ladder at or above each tier.
var defaultPercentiles = map[Tier]float64{
	X:      1,
	U:      5,
	SS:     11,
	SPlus:  17,
	S:      23,
	SMinus: 30,
	APlus:  38,
	A:      46,
	AMinus: 54,
	BPlus:  62,
	B:      70,
	BMinus: 78,
	CPlus:  84,
	C:      90,
	CMinus: 95,
	DPlus:  97.5,
	D:      100,
}

// All returns the ranked tiers, best first.
func All() []Tier {
	out := make([]Tier, len(ordered))
	copy(out, ordered)
	return out
}

// Parse validates a rank label.
func Parse(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := defaultPercentiles[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

func (t Tier) String() string { return string(t) }

// Entry pairs a tier with its target percentile.
type Entry struct {
	Tier       Tier
	Percentile float64
}

// Table is an ordered percentile table, best tier first.
type Table []Entry

// DefaultTable returns the stock percentile table.
func DefaultTable() Table {
	t := make(Table, 0, len(ordered))
	for _, tr := range ordered {
		t = append(t, Entry{Tier: tr, Percentile: defaultPercentiles[tr]})
	}
	return t
}

// WithOverrides returns a copy of the default table with the given
// percentiles replaced. Keys must be known tiers.
func WithOverrides(overrides map[string]float64) (Table, error) {
	t := DefaultTable()
	for label, p := range overrides {
		tr, err := Parse(label)
		if err != nil {
			return nil, err
		}
		if p <= 0 || p > 100 {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidPercentile, label, p)
		}
		for i := range t {
			if t[i].Tier == tr {
				t[i].Percentile = p
			}
		}
	}
	return t, nil
}

// Percentile looks up a tier's percentile in the table.
func (t Table) Percentile(tr Tier) (float64, bool) {
	for _, e := range t {
		if e.Tier == tr {
			return e.Percentile, true
		}
	}
	return 0, false
}
