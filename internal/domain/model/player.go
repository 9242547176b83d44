// Package model contains domain models passed between layers.
package model

// Metric names one of the per-player skill metrics that get aggregated.
type Metric int

const (
	// APM is attacks per minute.
	APM Metric = iota
	// PPS is pieces per second.
	PPS
	// VS is the versus score.
	VS
)

// Metrics lists every aggregated metric in output order.
var Metrics = []Metric{APM, PPS, VS}

func (m Metric) String() string {
	switch m {
	case APM:
		return "apm"
	case PPS:
		return "pps"
	case VS:
		return "vs"
	default:
		return "unknown"
	}
}

// League holds a player's Tetra League standing. Skill metrics are nil when
// the leaderboard does not report them.
type League struct {
	Rank   string
	Rating float64
	APM    *float64
	PPS    *float64
	VS     *float64
}

// Player is a read-only leaderboard record.
type Player struct {
	ID       string
	Username string
	League   League
}

// Value returns the player's value for m, or nil when undefined.
func (p Player) Value(m Metric) *float64 {
	switch m {
	case APM:
		return p.League.APM
	case PPS:
		return p.League.PPS
	case VS:
		return p.League.VS
	default:
		return nil
	}
}
