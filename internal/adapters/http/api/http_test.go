package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/laneup/internal/adapters/http/api"
	service "github.com/okian/laneup/internal/app"
	"github.com/okian/laneup/internal/domain/model"
	"github.com/okian/laneup/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, nil).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// seedPlayers creates ten players over HTTP; support is positive only when
// withSupport is set or for the first player.
func seedPlayers(mux http.Handler, withSupport bool) []string {
	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		support := 0
		if withSupport || i == 0 {
			support = 5
		}
		body := fmt.Sprintf(`{"name":"Player %d","top":5,"jungle":5,"mid":5,"adc":5,"support":%d}`, i, support)
		w := do(mux, http.MethodPost, "/api/players", body)
		So(w.Code, ShouldEqual, http.StatusCreated)
		ids = append(ids, decode[model.Player](w).ID)
	}
	return ids
}

func drawBody(ids []string, balance bool) string {
	raw, _ := json.Marshal(map[string]any{"player_ids": ids, "balance": balance})
	return string(raw)
}

func newService(opts ...service.Option) *service.Service {
	return service.New(append([]service.Option{service.WithRand(rand.New(rand.NewSource(3)))}, opts...)...)
}

func TestPlayersRoutes(t *testing.T) {
	Convey("Given an API over an empty roster", t, func() {
		mux := newMux(newService())

		Convey("When listing players", func() {
			w := do(mux, http.MethodGet, "/api/players", "")

			Convey("Then an empty JSON array is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When creating a player", func() {
			w := do(mux, http.MethodPost, "/api/players", `{"name":"Faker","mid":10,"top":3}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			created := decode[model.Player](w)

			Convey("Then it can be fetched", func() {
				So(created.ID, ShouldNotBeEmpty)
				got := do(mux, http.MethodGet, "/api/players/"+created.ID, "")
				So(got.Code, ShouldEqual, http.StatusOK)
				So(decode[model.Player](got).Mid, ShouldEqual, 10)
			})

			Convey("Then a partial update keeps the other fields", func() {
				w := do(mux, http.MethodPut, "/api/players/"+created.ID, `{"top":7}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				p := decode[model.Player](w)
				So(p.Top, ShouldEqual, 7)
				So(p.Mid, ShouldEqual, 10)
				So(p.Name, ShouldEqual, "Faker")
			})

			Convey("Then an out-of-range update is rejected", func() {
				w := do(mux, http.MethodPut, "/api/players/"+created.ID, `{"adc":101}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](w).Code, ShouldEqual, "invalid_player")
			})

			Convey("Then it can be deleted", func() {
				w := do(mux, http.MethodDelete, "/api/players/"+created.ID, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"success":true}`)
				So(do(mux, http.MethodGet, "/api/players/"+created.ID, "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the request is malformed", func() {
			cases := map[string]string{
				"missing name":  `{"top":5}`,
				"bad score":     `{"name":"x","top":-1}`,
				"unknown field": `{"name":"x","rank":3}`,
				"not json":      `{`,
				"empty body":    ``,
			}
			for name, body := range cases {
				w := do(mux, http.MethodPost, "/api/players", body)
				Convey("Then "+name+" is a bad request", func() {
					So(w.Code, ShouldEqual, http.StatusBadRequest)
				})
			}
		})

		Convey("When updating an unknown player", func() {
			w := do(mux, http.MethodPut, "/api/players/ghost", `{"top":1}`)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode[errorBody](w).Code, ShouldEqual, "not_found")
			})
		})
	})
}

func TestDrawRoutes(t *testing.T) {
	Convey("Given an API with ten all-round players", t, func() {
		svc := newService()
		mux := newMux(svc)
		ids := seedPlayers(mux, true)

		Convey("When drawing balanced teams", func() {
			w := do(mux, http.MethodPost, "/api/draws", drawBody(ids, true))
			So(w.Code, ShouldEqual, http.StatusCreated)
			d := decode[model.Draw](w)

			Convey("Then a complete balanced draw is returned", func() {
				So(d.MatchID, ShouldNotBeEmpty)
				So(d.Mode, ShouldEqual, model.ModeBalanced)
				So(len(d.Team1), ShouldEqual, 5)
				So(len(d.Team2), ShouldEqual, 5)
				So(d.Diff, ShouldEqual, 0)
			})

			Convey("Then it is pending until reported", func() {
				So(do(mux, http.MethodGet, "/api/draws/"+d.MatchID, "").Code, ShouldEqual, http.StatusOK)

				first := do(mux, http.MethodPost, "/api/draws/"+d.MatchID+"/result", `{"winner":"team2"}`)
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(strings.TrimSpace(first.Body.String()), ShouldContainSubstring, `"status":"accepted"`)

				again := do(mux, http.MethodPost, "/api/draws/"+d.MatchID+"/result", `{"winner":"team2"}`)
				So(again.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(again.Body.String()), ShouldContainSubstring, `"duplicate":true`)

				So(do(mux, http.MethodGet, "/api/draws/"+d.MatchID, "").Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("Then an invalid winner is rejected", func() {
				w := do(mux, http.MethodPost, "/api/draws/"+d.MatchID+"/result", `{"winner":"draw"}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When balance is omitted", func() {
			raw, _ := json.Marshal(map[string]any{"player_ids": ids})
			w := do(mux, http.MethodPost, "/api/draws", string(raw))

			Convey("Then a balanced draw is made", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(decode[model.Draw](w).Mode, ShouldEqual, model.ModeBalanced)
			})
		})

		Convey("When balance is off", func() {
			w := do(mux, http.MethodPost, "/api/draws", drawBody(ids, false))

			Convey("Then an unbalanced draw is made", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(decode[model.Draw](w).Mode, ShouldEqual, model.ModeUnbalanced)
			})
		})

		Convey("When the selection is short", func() {
			w := do(mux, http.MethodPost, "/api/draws", drawBody(ids[:9], true))

			Convey("Then the selection size is reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](w).Code, ShouldEqual, "wrong_selection_size")
			})
		})

		Convey("When no players are given", func() {
			w := do(mux, http.MethodPost, "/api/draws", `{"player_ids":[]}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](w).Code, ShouldEqual, "bad_request")
			})
		})

		Convey("When a selected player is unknown", func() {
			sel := append(append([]string{}, ids[:9]...), "ghost")
			w := do(mux, http.MethodPost, "/api/draws", drawBody(sel, true))

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When reporting an unknown match", func() {
			w := do(mux, http.MethodPost, "/api/draws/nope/result", `{"winner":"team1"}`)

			Convey("Then the draw is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode[errorBody](w).Code, ShouldEqual, "draw_not_found")
			})
		})

		Convey("When the method does not match a route", func() {
			w := do(mux, http.MethodDelete, "/api/draws", "")

			Convey("Then it is not allowed", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})

	Convey("Given a roster lacking support players", t, func() {
		Convey("When fallback is disabled", func() {
			mux := newMux(newService(service.WithFallback(false)))
			ids := seedPlayers(mux, false)
			w := do(mux, http.MethodPost, "/api/draws", drawBody(ids, true))

			Convey("Then the draw is unprocessable", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				body := decode[errorBody](w)
				So(body.Code, ShouldEqual, "insufficient_role_candidates")
				So(body.Message, ShouldContainSubstring, "support")
			})
		})

		Convey("When fallback is enabled", func() {
			mux := newMux(newService())
			ids := seedPlayers(mux, false)
			w := do(mux, http.MethodPost, "/api/draws", drawBody(ids, true))

			Convey("Then a fallback draw is returned", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				d := decode[model.Draw](w)
				So(d.Mode, ShouldEqual, model.ModeFallback)
				So(d.FallbackReason, ShouldEqual, "insufficient_role_candidates")
			})

			Convey("Then the zero-point assignments are reported in the body", func() {
				var raw map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &raw), ShouldBeNil)
				So(raw["zero_score_roles"], ShouldBeGreaterThanOrEqualTo, 1.0)
				So(raw["warning"], ShouldContainSubstring, "role with 0 points")
			})
		})
	})
}

func TestMatchHistoryRoute(t *testing.T) {
	Convey("Given a running service with one reported match", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		mux := newMux(svc)
		ids := seedPlayers(mux, true)

		d := decode[model.Draw](do(mux, http.MethodPost, "/api/draws", drawBody(ids, true)))
		So(do(mux, http.MethodPost, "/api/draws/"+d.MatchID+"/result", `{"winner":"team1"}`).Code, ShouldEqual, http.StatusAccepted)

		Convey("When the history is listed", func() {
			var page struct {
				Records []model.MatchRecord `json:"records"`
				Total   int                 `json:"total"`
				Page    int                 `json:"page"`
			}
			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				w := do(mux, http.MethodGet, "/api/match-history?page=1&page_size=5", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(json.Unmarshal(w.Body.Bytes(), &page), ShouldBeNil)
				if page.Total == 1 {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}

			Convey("Then the match appears", func() {
				So(page.Total, ShouldEqual, 1)
				So(page.Page, ShouldEqual, 1)
				So(page.Records[0].ID, ShouldEqual, d.MatchID)
				So(page.Records[0].Winner, ShouldEqual, model.SideTeam1)
			})
		})

		Convey("When paging parameters are invalid", func() {
			w := do(mux, http.MethodGet, "/api/match-history?page=abc", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

// stubDeps overrides selected operations of a real service.
type stubDeps struct {
	*service.Service
	reportErr error
	panicList bool
}

func (s *stubDeps) ReportResult(ctx context.Context, matchID string, winner model.Side) (bool, error) {
	if s.reportErr != nil {
		return false, s.reportErr
	}
	return s.Service.ReportResult(ctx, matchID, winner)
}

func (s *stubDeps) ListPlayers(ctx context.Context) ([]model.Player, error) {
	if s.panicList {
		panic("boom")
	}
	return s.Service.ListPlayers(ctx)
}

func TestErrorMapping(t *testing.T) {
	Convey("Given dependencies that fail", t, func() {
		Convey("When the result queue is full", func() {
			mux := newMux(&stubDeps{Service: newService(), reportErr: service.ErrBackpressure})
			w := do(mux, http.MethodPost, "/api/draws/m1/result", `{"winner":"team1"}`)

			Convey("Then 429 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode[errorBody](w).Code, ShouldEqual, "backpressure")
			})
		})

		Convey("When the service is stopped", func() {
			mux := newMux(&stubDeps{Service: newService(), reportErr: service.ErrStopped})
			w := do(mux, http.MethodPost, "/api/draws/m1/result", `{"winner":"team1"}`)

			Convey("Then 503 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When a handler panics", func() {
			mux := newMux(&stubDeps{Service: newService(), panicList: true})
			w := do(mux, http.MethodGet, "/api/players", "")

			Convey("Then 500 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode[errorBody](w).Code, ShouldEqual, "internal_error")
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux := newMux(newService())

		Convey("When scraping /healthz", func() {
			_ = do(mux, http.MethodGet, "/stats", "")
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then the metrics exposition is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "laneup_")
			})
		})

		Convey("When requesting /stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then service stats are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				stats := decode[map[string]any](w)
				So(stats["started"], ShouldEqual, false)
				So(stats["rosterSize"], ShouldEqual, float64(0))
			})
		})
	})

	Convey("Given a nil mux", t, func() {
		Convey("Then registering panics", func() {
			So(func() { api.NewServer(newService(), nil).Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}
