package model

import (
	"time"

	"github.com/okian/leaguestats/internal/domain/tier"
)

// Holder records the player holding a metric extreme.
type Holder struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Snapshot is the statistical summary of one tier at one point in time.
// Pointer fields are nil (JSON null) when the tier has no data for them.
type Snapshot struct {
	Name        tier.Tier `json:"name"`
	PlayerCount int       `json:"player_count"`
	RequireTR   *float64  `json:"require_tr"`

	AveragePPS *float64 `json:"average_pps"`
	AverageAPM *float64 `json:"average_apm"`
	AverageVS  *float64 `json:"average_vs"`

	MinimumAPMPlayer *Holder `json:"minimum_apm_player"`
	MinimumPPSPlayer *Holder `json:"minimum_pps_player"`
	MinimumVSPlayer  *Holder `json:"minimum_vs_player"`

	MaximumAPMPlayer *Holder `json:"maximum_apm_player"`
	MaximumPPSPlayer *Holder `json:"maximum_pps_player"`
	MaximumVSPlayer  *Holder `json:"maximum_vs_player"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Average returns the average for m.
func (s Snapshot) Average(m Metric) *float64 {
	switch m {
	case APM:
		return s.AverageAPM
	case PPS:
		return s.AveragePPS
	case VS:
		return s.AverageVS
	default:
		return nil
	}
}

// Minimum returns the minimum holder for m.
func (s Snapshot) Minimum(m Metric) *Holder {
	switch m {
	case APM:
		return s.MinimumAPMPlayer
	case PPS:
		return s.MinimumPPSPlayer
	case VS:
		return s.MinimumVSPlayer
	default:
		return nil
	}
}

// Maximum returns the maximum holder for m.
func (s Snapshot) Maximum(m Metric) *Holder {
	switch m {
	case APM:
		return s.MaximumAPMPlayer
	case PPS:
		return s.MaximumPPSPlayer
	case VS:
		return s.MaximumVSPlayer
	default:
		return nil
	}
}

// SetMetric stores the average and extremes for m.
func (s *Snapshot) SetMetric(m Metric, avg *float64, lo, hi *Holder) {
	switch m {
	case APM:
		s.AverageAPM, s.MinimumAPMPlayer, s.MaximumAPMPlayer = avg, lo, hi
	case PPS:
		s.AveragePPS, s.MinimumPPSPlayer, s.MaximumPPSPlayer = avg, lo, hi
	case VS:
		s.AverageVS, s.MinimumVSPlayer, s.MaximumVSPlayer = avg, lo, hi
	}
}

// Collection is the persisted, ordered list of snapshots. It may hold more
// than one snapshot per tier, one for each run inside the retention window.
type Collection []Snapshot

// Append returns c followed by fresh, ordered by the given tiers. Tiers
// missing from fresh are skipped. Existing entries are never replaced.
func (c Collection) Append(fresh map[tier.Tier]Snapshot, order []tier.Tier) Collection {
	out := make(Collection, 0, len(c)+len(fresh))
	out = append(out, c...)
	for _, t := range order {
		if s, ok := fresh[t]; ok {
			out = append(out, s)
		}
	}
	return out
}

// ByTier returns the snapshots recorded for t, oldest first.
func (c Collection) ByTier(t tier.Tier) Collection {
	var out Collection
	for _, s := range c {
		if s.Name == t {
			out = append(out, s)
		}
	}
	return out
}

// RunResult summarises one pipeline run.
type RunResult struct {
	RunID          string        `json:"run_id"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`
	PlayersFetched int           `json:"players_fetched"`
	TiersComputed  int           `json:"tiers_computed"`
	Stored         int           `json:"stored"`
	Pruned         int           `json:"pruned"`
}
