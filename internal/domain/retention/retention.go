// Package retention prunes stored snapshots by age.
package retention

import (
	"time"

	"github.com/okian/leaguestats/internal/domain/model"
)

const (
	defaultWindowDays = 7
	day               = 24 * time.Hour
)

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithWindowDays sets how many whole days a snapshot is kept.
func WithWindowDays(days int) Option {
	return func(f *Filter) {
		if days >= 0 {
			f.windowDays = days
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Filter) {
		if now != nil {
			f.now = now
		}
	}
}

// Filter keeps snapshots whose UpdatedAt is within a window of whole days.
//
// The distance is absolute: snapshots dated in the future are treated the
// same as ones in the past. Snapshots are never deduplicated by tier.
type Filter struct {
	windowDays int
	now        func() time.Time
}

// New creates a Filter with a 7 day window.
func New(opts ...Option) *Filter {
	f := &Filter{
		windowDays: defaultWindowDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WindowDays returns the configured window.
func (f *Filter) WindowDays() int { return f.windowDays }

// Apply returns the snapshots of c inside the window, in their original order,
// and the number that were dropped.
func (f *Filter) Apply(c model.Collection) (model.Collection, int) {
	now := f.now()
	out := make(model.Collection, 0, len(c))
	for _, s := range c {
		if f.keep(now, s.UpdatedAt) {
			out = append(out, s)
		}
	}
	return out, len(c) - len(out)
}

func (f *Filter) keep(now, ts time.Time) bool {
	d := DaysBetween(now, ts)
	if d < 0 {
		d = -d
	}
	return d <= f.windowDays
}

// DaysBetween returns the number of whole days from b to a, truncated toward
// zero. It is negative when b is after a.
func DaysBetween(a, b time.Time) int {
	return int(a.Sub(b) / day)
}
