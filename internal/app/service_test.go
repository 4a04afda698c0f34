package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/laneup/internal/adapters/repository"
	service "github.com/okian/laneup/internal/app"
	"github.com/okian/laneup/internal/domain/model"
	"github.com/okian/laneup/internal/domain/teamsplit"
	"github.com/okian/laneup/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func seeded(opts ...service.Option) *service.Service {
	return service.New(append([]service.Option{service.WithRand(rand.New(rand.NewSource(7)))}, opts...)...)
}

// addPlayers creates n players; score(i) gives player i's score in every role.
func addPlayers(ctx context.Context, svc *service.Service, n int, score func(i int) int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v := score(i)
		p, err := svc.CreatePlayer(ctx, model.Player{
			Name: fmt.Sprintf("Player %d", i),
			Top:  v, Jungle: v, Mid: v, ADC: v, Support: v,
		})
		So(err, ShouldBeNil)
		ids = append(ids, p.ID)
	}
	return ids
}

func flat(int) int { return 5 }

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["pendingCapacity"], ShouldEqual, 1024)
			So(stats["fallback"], ShouldEqual, true)
			So(stats["balanceThresholds"], ShouldResemble, []int{3, 5, 7})
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(50),
			service.WithDedupeSize(25),
			service.WithPendingDraws(8),
			service.WithThresholds([]int{2, 4}),
			service.WithFallback(false),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 4)
			So(stats["pendingCapacity"], ShouldEqual, 8)
			So(stats["balanceThresholds"], ShouldResemble, []int{2, 4})
			So(stats["fallback"], ShouldEqual, false)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.GetStats()["started"], ShouldEqual, true)

		Convey("When stopping the service", func() {
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("Then stopping again is harmless", func() {
				So(svc.Stop(ctx), ShouldBeNil)
			})

			Convey("Then it cannot be restarted", func() {
				So(svc.Start(ctx), ShouldEqual, service.ErrStopped)
			})
		})
	})
}

func TestService_Players(t *testing.T) {
	Convey("Given an empty roster", t, func() {
		ctx := context.Background()
		svc := service.New()

		Convey("When creating a player", func() {
			p, err := svc.CreatePlayer(ctx, model.Player{Name: "Faker", Mid: 10})
			So(err, ShouldBeNil)

			Convey("Then it gets an id and can be read back", func() {
				So(p.ID, ShouldNotBeEmpty)
				got, err := svc.GetPlayer(ctx, p.ID)
				So(err, ShouldBeNil)
				So(got.Mid, ShouldEqual, 10)
			})

			Convey("Then it can be updated and deleted", func() {
				name := "Lee Sang-hyeok"
				updated, err := svc.UpdatePlayer(ctx, p.ID, repository.Patch{Name: &name})
				So(err, ShouldBeNil)
				So(updated.Name, ShouldEqual, name)
				So(updated.Mid, ShouldEqual, 10)

				So(svc.DeletePlayer(ctx, p.ID), ShouldBeNil)
				_, err = svc.GetPlayer(ctx, p.ID)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

				players, err := svc.ListPlayers(ctx)
				So(err, ShouldBeNil)
				So(players, ShouldBeEmpty)
			})
		})

		Convey("When creating an invalid player", func() {
			_, err := svc.CreatePlayer(ctx, model.Player{Top: 5})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrInvalidPlayer), ShouldBeTrue)
			})
		})
	})
}

func TestService_Draw(t *testing.T) {
	Convey("Given a roster of ten all-round players", t, func() {
		ctx := context.Background()
		svc := seeded()
		ids := addPlayers(ctx, svc, 10, flat)

		Convey("When drawing balanced teams", func() {
			d, err := svc.Draw(ctx, ids, true)
			So(err, ShouldBeNil)

			Convey("Then both teams are role complete and even", func() {
				So(d.MatchID, ShouldNotBeEmpty)
				So(d.Mode, ShouldEqual, model.ModeBalanced)
				So(d.Diff, ShouldEqual, 0)
				So(d.Sum1, ShouldEqual, 25)
				So(d.Warning, ShouldBeEmpty)
				So(d.ZeroScoreRoles, ShouldEqual, 0)

				players, _ := svc.ListPlayers(ctx)
				So(teamsplit.Validate(d.Team1, d.Team2, players), ShouldBeNil)
			})

			Convey("Then the draw is pending", func() {
				pending, err := svc.PendingDraw(ctx, d.MatchID)
				So(err, ShouldBeNil)
				So(pending.MatchID, ShouldEqual, d.MatchID)
				So(svc.GetStats()["pendingDraws"], ShouldEqual, 1)
			})
		})

		Convey("When drawing unbalanced teams", func() {
			d, err := svc.Draw(ctx, ids, false)
			So(err, ShouldBeNil)

			Convey("Then the players are split in halves", func() {
				So(d.Mode, ShouldEqual, model.ModeUnbalanced)
				So(len(d.Team1), ShouldEqual, 5)
				So(len(d.Team2), ShouldEqual, 5)
				So(d.Swaps, ShouldEqual, 0)
			})
		})

		Convey("When the selection is short", func() {
			_, err := svc.Draw(ctx, ids[:9], true)

			Convey("Then the selection is rejected", func() {
				So(errors.Is(err, teamsplit.ErrWrongSelectionSize), ShouldBeTrue)
			})
		})

		Convey("When the selection repeats a player", func() {
			dup := append(append([]string{}, ids[:9]...), ids[0])
			_, err := svc.Draw(ctx, dup, true)

			Convey("Then the selection is rejected", func() {
				So(errors.Is(err, teamsplit.ErrWrongSelectionSize), ShouldBeTrue)
			})
		})

		Convey("When the selection names an unknown player", func() {
			sel := append(append([]string{}, ids[:9]...), "ghost")
			_, err := svc.Draw(ctx, sel, true)

			Convey("Then the lookup fails", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a roster with a single support player", t, func() {
		ctx := context.Background()
		zero := 0

		build := func(opts ...service.Option) (*service.Service, []string) {
			svc := seeded(opts...)
			ids := addPlayers(ctx, svc, 10, flat)
			for _, id := range ids[1:] {
				_, err := svc.UpdatePlayer(ctx, id, repository.Patch{Support: &zero})
				So(err, ShouldBeNil)
			}
			return svc, ids
		}

		Convey("When fallback is enabled", func() {
			svc, ids := build()
			d, err := svc.Draw(ctx, ids, true)

			Convey("Then a random role-aware split is returned", func() {
				So(err, ShouldBeNil)
				So(d.Mode, ShouldEqual, model.ModeFallback)
				So(d.FallbackReason, ShouldEqual, teamsplit.ReasonInsufficientRoleCandidates)
				So(len(d.Team1), ShouldEqual, 5)
				So(len(d.Team2), ShouldEqual, 5)
			})

			Convey("Then the zero-point support slot is flagged", func() {
				So(d.ZeroScoreRoles, ShouldBeGreaterThanOrEqualTo, 1)
				So(d.ZeroScoreRoles, ShouldEqual, d.Team1.ZeroScoreRoles()+d.Team2.ZeroScoreRoles())
				So(d.Warning, ShouldContainSubstring, "role with 0 points")
			})
		})

		Convey("When fallback is disabled", func() {
			svc, ids := build(service.WithFallback(false))
			_, err := svc.Draw(ctx, ids, true)

			Convey("Then the role shortage is reported", func() {
				So(errors.Is(err, teamsplit.ErrInsufficientRoleCandidates), ShouldBeTrue)
				var rce *teamsplit.RoleCandidatesError
				So(errors.As(err, &rce), ShouldBeTrue)
				So(rce.Role, ShouldEqual, model.RoleSupport)
			})
		})
	})

	Convey("Given a roster where nobody plays support", t, func() {
		ctx := context.Background()
		svc := seeded(service.WithMaxAcceptableDiff(100))
		zero := 0
		ids := addPlayers(ctx, svc, 10, flat)
		for _, id := range ids {
			_, err := svc.UpdatePlayer(ctx, id, repository.Patch{Support: &zero})
			So(err, ShouldBeNil)
		}

		Convey("When the fallback fills both support slots", func() {
			d, err := svc.Draw(ctx, ids, true)
			So(err, ShouldBeNil)

			Convey("Then both zero-point assignments are reported", func() {
				So(d.Mode, ShouldEqual, model.ModeFallback)
				So(d.ZeroScoreRoles, ShouldEqual, 2)
				So(d.Diff, ShouldEqual, 0)
				So(d.Warning, ShouldEqual, "2 player(s) assigned to a role with 0 points")
			})
		})
	})

	Convey("Given a strict acceptable difference", t, func() {
		ctx := context.Background()
		svc := seeded(service.WithMaxAcceptableDiff(0))
		// Scores 1..10 sum to an odd total, so no split can be even.
		ids := addPlayers(ctx, svc, 10, func(i int) int { return i + 1 })

		Convey("When drawing", func() {
			d, err := svc.Draw(ctx, ids, false)
			So(err, ShouldBeNil)

			Convey("Then the draw carries a warning", func() {
				So(d.Diff, ShouldBeGreaterThan, 0)
				So(d.Warning, ShouldNotBeEmpty)
			})
		})
	})

	Convey("Given a book with room for one draw", t, func() {
		ctx := context.Background()
		svc := seeded(service.WithPendingDraws(1))
		ids := addPlayers(ctx, svc, 10, flat)

		Convey("When a second draw is made", func() {
			first, _ := svc.Draw(ctx, ids, true)
			second, _ := svc.Draw(ctx, ids, true)

			Convey("Then the older draw expires", func() {
				_, err := svc.PendingDraw(ctx, first.MatchID)
				So(err, ShouldEqual, service.ErrDrawNotFound)
				_, err = svc.PendingDraw(ctx, second.MatchID)
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestService_ReportResult(t *testing.T) {
	Convey("Given a service with a pending draw that is not consuming results", t, func() {
		ctx := context.Background()
		svc := seeded(service.WithQueueSize(1))
		ids := addPlayers(ctx, svc, 10, flat)
		d, err := svc.Draw(ctx, ids, true)
		So(err, ShouldBeNil)

		Convey("When the winner is not a side", func() {
			_, err := svc.ReportResult(ctx, d.MatchID, "draw")

			Convey("Then it is rejected", func() {
				So(err, ShouldEqual, service.ErrInvalidWinner)
			})
		})

		Convey("When the match id is unknown", func() {
			_, err := svc.ReportResult(ctx, "nope", model.SideTeam1)

			Convey("Then the draw is not found", func() {
				So(err, ShouldEqual, service.ErrDrawNotFound)
			})
		})

		Convey("When the result is reported twice", func() {
			dup1, err1 := svc.ReportResult(ctx, d.MatchID, model.SideTeam1)
			dup2, err2 := svc.ReportResult(ctx, d.MatchID, model.SideTeam2)

			Convey("Then the second report is a duplicate", func() {
				So(err1, ShouldBeNil)
				So(dup1, ShouldBeFalse)
				So(err2, ShouldBeNil)
				So(dup2, ShouldBeTrue)
				_, err := svc.PendingDraw(ctx, d.MatchID)
				So(err, ShouldEqual, service.ErrDrawNotFound)
			})
		})

		Convey("When the queue is full", func() {
			other, err := svc.Draw(ctx, ids, true)
			So(err, ShouldBeNil)
			_, err = svc.ReportResult(ctx, d.MatchID, model.SideTeam1)
			So(err, ShouldBeNil)
			dup, err := svc.ReportResult(ctx, other.MatchID, model.SideTeam1)

			Convey("Then the report is refused and can be retried", func() {
				So(err, ShouldEqual, service.ErrBackpressure)
				So(dup, ShouldBeFalse)
				_, err := svc.PendingDraw(ctx, other.MatchID)
				So(err, ShouldBeNil)
				_, err = svc.ReportResult(ctx, other.MatchID, model.SideTeam1)
				So(err, ShouldEqual, service.ErrBackpressure)
			})
		})

		Convey("When the service has been stopped", func() {
			So(svc.Stop(ctx), ShouldBeNil)
			_, err := svc.ReportResult(ctx, d.MatchID, model.SideTeam1)

			Convey("Then the report is refused", func() {
				So(err, ShouldEqual, service.ErrStopped)
			})
		})
	})
}
