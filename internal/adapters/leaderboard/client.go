// Package leaderboard fetches the full Tetra League leaderboard from the
// TETR.IO public API.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/okian/leaguestats/internal/domain/model"
	"github.com/okian/leaguestats/pkg/logger"
	"github.com/okian/leaguestats/pkg/metrics"
)

const (
	defaultBaseURL        = "https://ch.tetr.io/api"
	defaultUserAgent      = "leaguestats/1.0"
	defaultTimeout        = 60 * time.Second
	defaultMaxTries       = 4
	defaultInitialBackoff = 2 * time.Second
	defaultMaxBackoff     = 30 * time.Second

	allPlayersPath = "/users/lists/league/all"
	maxErrorBody   = 512
)

// Fetcher returns every ranked player in one call.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]model.Player, error)
}

// Client implements Fetcher over HTTP with exponential backoff.
type Client struct {
	baseURL        string
	userAgent      string
	http           *http.Client
	maxTries       uint
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         logger.Logger
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:        defaultBaseURL,
		userAgent:      defaultUserAgent,
		http:           &http.Client{Timeout: defaultTimeout},
		maxTries:       defaultMaxTries,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type leagueDTO struct {
	Rank   string   `json:"rank"`
	Rating float64  `json:"rating"`
	APM    *float64 `json:"apm"`
	PPS    *float64 `json:"pps"`
	VS     *float64 `json:"vs"`
}

type userDTO struct {
	ID       string    `json:"_id"`
	Username string    `json:"username"`
	League   leagueDTO `json:"league"`
}

type response struct {
	Success bool            `json:"success"`
	Error   json.RawMessage `json:"error"`
	Data    struct {
		Users []userDTO `json:"users"`
	} `json:"data"`
}

// FetchAll downloads the full leaderboard. Transport failures, 429 and 5xx
// responses are retried; other failures abort immediately.
func (c *Client) FetchAll(ctx context.Context) ([]model.Player, error) {
	log := c.logger
	if log == nil {
		log = logger.Get()
	}
	session := uuid.NewString()
	log = log.Named("leaderboard").With(logger.String("session_id", session))

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = c.maxBackoff

	attempt := 0
	op := func() ([]model.Player, error) {
		attempt++
		players, err := c.fetchOnce(ctx, session)
		if err != nil {
			metrics.RecordFetchAttempt(metrics.OutcomeFailure)
			return nil, err
		}
		metrics.RecordFetchAttempt(metrics.OutcomeSuccess)
		return players, nil
	}
	notify := func(err error, wait time.Duration) {
		log.Warn(ctx, "leaderboard fetch failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("wait", wait),
			logger.Error(err))
	}

	start := time.Now()
	players, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(notify),
	)
	if err != nil {
		return nil, fmt.Errorf("%w after %d attempt(s): %w", ErrFetch, attempt, err)
	}

	log.Info(ctx, "leaderboard fetched",
		logger.Int("players", len(players)),
		logger.Int("attempts", attempt),
		logger.Duration("elapsed", time.Since(start)))
	return players, nil
}

func (c *Client) fetchOnce(ctx context.Context, session string) ([]model.Player, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+allPlayersPath, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Session-ID", session)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrDecode, err))
	}
	if !body.Success {
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrUpstream, describe(body.Error)))
	}

	players := make([]model.Player, len(body.Data.Users))
	for i, u := range body.Data.Users {
		players[i] = model.Player{
			ID:       u.ID,
			Username: u.Username,
			League: model.League{
				Rank:   u.League.Rank,
				Rating: u.League.Rating,
				APM:    u.League.APM,
				PPS:    u.League.PPS,
				VS:     u.League.VS,
			},
		}
	}
	return players, nil
}

// statusError classifies a non-200 response for the retry loop.
func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	err := fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, snippet)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
			return fmt.Errorf("%w: %w", err, backoff.RetryAfter(secs))
		}
		return err
	case resp.StatusCode >= http.StatusInternalServerError:
		return err
	default:
		return backoff.Permanent(err)
	}
}

func describe(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "success=false"
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Msg != "" {
		return obj.Msg
	}
	return string(raw)
}
