package leaderboard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/leaguestats/internal/adapters/leaderboard"
	"github.com/okian/leaguestats/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const okBody = `{
  "success": true,
  "data": {
    "users": [
      {"_id": "5e32fc85ab319c2ab1beb07c", "username": "czsmall0402", "role": "user",
       "league": {"gamesplayed": 120, "rating": 24900.5, "rank": "x", "apm": 180.2, "pps": 3.1, "vs": 390.4}},
      {"_id": "5e4979d4fad3ca55f6512458", "username": "newbie", "role": "user",
       "league": {"rating": 1200, "rank": "d"}}
    ]
  },
  "cache": {"status": "hit"}
}`

func newClient(url string, tries uint) *leaderboard.Client {
	return leaderboard.New(
		leaderboard.WithBaseURL(url+"/"),
		leaderboard.WithRetry(tries, time.Millisecond, 2*time.Millisecond),
		leaderboard.WithTimeout(2*time.Second),
	)
}

func TestClient_FetchAll(t *testing.T) {
	Convey("Given a healthy leaderboard API", t, func() {
		var gotPath, gotUA, gotSession string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotUA = r.Header.Get("User-Agent")
			gotSession = r.Header.Get("X-Session-ID")
			_, _ = w.Write([]byte(okBody))
		}))
		defer srv.Close()

		client := leaderboard.New(
			leaderboard.WithBaseURL(srv.URL),
			leaderboard.WithUserAgent("leaguestats-test"),
		)

		Convey("When fetching all players", func() {
			players, err := client.FetchAll(context.Background())

			Convey("Then players are decoded with their league metrics", func() {
				So(err, ShouldBeNil)
				So(len(players), ShouldEqual, 2)
				So(players[0].ID, ShouldEqual, "5e32fc85ab319c2ab1beb07c")
				So(players[0].Username, ShouldEqual, "czsmall0402")
				So(players[0].League.Rank, ShouldEqual, "x")
				So(players[0].League.Rating, ShouldEqual, 24900.5)
				So(*players[0].League.APM, ShouldEqual, 180.2)
				So(*players[0].League.PPS, ShouldEqual, 3.1)
				So(*players[0].League.VS, ShouldEqual, 390.4)
			})

			Convey("Then missing metrics stay undefined", func() {
				So(players[1].League.APM, ShouldBeNil)
				So(players[1].League.PPS, ShouldBeNil)
				So(players[1].League.VS, ShouldBeNil)
			})

			Convey("Then the request targets the full league list with session headers", func() {
				So(gotPath, ShouldEqual, "/users/lists/league/all")
				So(gotUA, ShouldEqual, "leaguestats-test")
				So(len(gotSession), ShouldEqual, 36)
			})
		})
	})
}

func TestClient_Retry(t *testing.T) {
	Convey("Given an API that fails twice with 503", t, func() {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if atomic.AddInt32(&calls, 1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(okBody))
		}))
		defer srv.Close()

		Convey("When fetching with four tries", func() {
			players, err := newClient(srv.URL, 4).FetchAll(context.Background())

			Convey("Then the third attempt succeeds", func() {
				So(err, ShouldBeNil)
				So(len(players), ShouldEqual, 2)
				So(atomic.LoadInt32(&calls), ShouldEqual, 3)
			})
		})

		Convey("When fetching with two tries", func() {
			_, err := newClient(srv.URL, 2).FetchAll(context.Background())

			Convey("Then it gives up with a fetch error", func() {
				So(errors.Is(err, leaderboard.ErrFetch), ShouldBeTrue)
				So(errors.Is(err, leaderboard.ErrUpstream), ShouldBeTrue)
				So(atomic.LoadInt32(&calls), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an API that rate limits once", t, func() {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(okBody))
		}))
		defer srv.Close()

		_, err := newClient(srv.URL, 3).FetchAll(context.Background())
		So(err, ShouldBeNil)
		So(atomic.LoadInt32(&calls), ShouldEqual, 2)
	})
}

func TestClient_PermanentErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"success false", http.StatusOK, `{"success":false,"error":"No such user"}`, leaderboard.ErrUpstream},
		{"success false with object error", http.StatusOK, `{"success":false,"error":{"msg":"slow down"}}`, leaderboard.ErrUpstream},
		{"not found", http.StatusNotFound, `not found`, leaderboard.ErrUpstream},
		{"malformed body", http.StatusOK, `<html>`, leaderboard.ErrDecode},
	}

	for _, tc := range cases {
		Convey("Given an API answering "+tc.name, t, func() {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newClient(srv.URL, 5).FetchAll(context.Background())

			Convey("Then it fails fast without retrying", func() {
				So(errors.Is(err, leaderboard.ErrFetch), ShouldBeTrue)
				So(errors.Is(err, tc.wantErr), ShouldBeTrue)
				So(atomic.LoadInt32(&calls), ShouldEqual, 1)
			})
		})
	}

	Convey("Given an upstream error message", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"error":"No such user"}`))
		}))
		defer srv.Close()

		_, err := newClient(srv.URL, 1).FetchAll(context.Background())
		So(err.Error(), ShouldContainSubstring, "No such user")
	})
}

func TestClient_Cancelled(t *testing.T) {
	Convey("Given a cancelled context", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(okBody))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newClient(srv.URL, 5).FetchAll(ctx)
		So(err, ShouldNotBeNil)
		So(errors.Is(err, leaderboard.ErrFetch), ShouldBeTrue)
	})
}
