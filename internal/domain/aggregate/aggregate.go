// Package aggregate folds a leaderboard into per-tier statistical snapshots.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/okian/leaguestats/internal/domain/model"
	"github.com/okian/leaguestats/internal/domain/tier"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithTable sets the tier percentile table.
func WithTable(t tier.Table) Option {
	return func(a *Aggregator) {
		if len(t) > 0 {
			a.table = t
		}
	}
}

// WithClock sets the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// Aggregator computes one snapshot per tier from a full leaderboard.
type Aggregator struct {
	table tier.Table
	now   func() time.Time
}

// New creates an Aggregator using the default percentile table.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		table: tier.DefaultTable(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Table returns the percentile table in use.
func (a *Aggregator) Table() tier.Table { return a.table }

// Order returns the tiers of the table, best first.
func (a *Aggregator) Order() []tier.Tier {
	out := make([]tier.Tier, len(a.table))
	for i, e := range a.table {
		out[i] = e.Tier
	}
	return out
}

// Aggregate returns exactly one snapshot for every tier in the table.
// Tiers without players are still reported, with a zero count and nil stats.
// players is not modified and need not be sorted.
func (a *Aggregator) Aggregate(players []model.Player) map[tier.Tier]model.Snapshot {
	ts := a.now().UTC().Round(0)
	ranked := byRatingDesc(players)

	members := make(map[tier.Tier][]model.Player, len(a.table))
	for _, p := range players {
		t := tier.Tier(p.League.Rank)
		members[t] = append(members[t], p)
	}

	out := make(map[tier.Tier]model.Snapshot, len(a.table))
	for _, e := range a.table {
		group := members[e.Tier]
		s := model.Snapshot{
			Name:        e.Tier,
			PlayerCount: len(group),
			RequireTR:   RequiredRating(ranked, e.Percentile),
			UpdatedAt:   ts,
		}
		for _, m := range model.Metrics {
			avg, lo, hi := MetricStats(group, m)
			s.SetMetric(m, avg, lo, hi)
		}
		out[e.Tier] = s
	}
	return out
}

// byRatingDesc returns a copy of players ordered by rating, highest first.
func byRatingDesc(players []model.Player) []model.Player {
	out := make([]model.Player, len(players))
	copy(out, players)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].League.Rating > out[j].League.Rating
	})
	return out
}

// RequiredRating returns the rating at the percentile boundary of ranked,
// which must be ordered highest rating first. The boundary index is
// floor(percentile / 100 * n) - 1 evaluated in that order, so a fraction that
// rounds just below an integer (0.7 * 90) lands on the lower index, matching
// files written by earlier runs. nil when the index is out of range.
func RequiredRating(ranked []model.Player, percentile float64) *float64 {
	idx := int(math.Floor(percentile/100*float64(len(ranked)))) - 1
	if idx < 0 || idx >= len(ranked) {
		return nil
	}
	r := ranked[idx].League.Rating
	return &r
}

// MetricStats returns the mean of the defined values of m across group and
// the players holding the lowest and highest value. Players without a value
// are ignored; all results are nil when no player has one.
func MetricStats(group []model.Player, m model.Metric) (*float64, *model.Holder, *model.Holder) {
	defined := make([]model.Player, 0, len(group))
	var sum float64
	for _, p := range group {
		if v := p.Value(m); v != nil {
			defined = append(defined, p)
			sum += *v
		}
	}
	if len(defined) == 0 {
		return nil, nil, nil
	}

	sort.SliceStable(defined, func(i, j int) bool {
		return *defined[i].Value(m) < *defined[j].Value(m)
	})

	avg := sum / float64(len(defined))
	return &avg, holder(defined[0], m), holder(defined[len(defined)-1], m)
}

func holder(p model.Player, m model.Metric) *model.Holder {
	return &model.Holder{ID: p.ID, Name: p.Username, Value: *p.Value(m)}
}
