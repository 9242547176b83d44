package leaderboard

import "errors"

// Sentinel kinds for leaderboard fetch errors.
var (
	ErrFetch    = errors.New("leaderboard fetch failed")
	ErrUpstream = errors.New("leaderboard rejected request")
	ErrDecode   = errors.New("leaderboard response malformed")
)
