package randomsplit_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/okian/laneup/internal/domain/model"
	"github.com/okian/laneup/internal/domain/randomsplit"
	. "github.com/smartystreets/goconvey/convey"
)

func roster() []model.Player {
	out := make([]model.Player, 10)
	for i := range out {
		out[i] = model.Player{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("P%d", i), Mid: 5}
	}
	out[3].Mid = 0 // no playable role at all
	out[4].ADC = 8
	return out
}

func TestUnbalanced(t *testing.T) {
	Convey("Given ten players and a seeded source", t, func() {
		players := roster()
		rng := rand.New(rand.NewSource(1))

		Convey("When splitting without balance", func() {
			t1, t2 := randomsplit.Unbalanced(players, rng)

			Convey("Then every player lands on exactly one team of five", func() {
				So(t1, ShouldHaveLength, 5)
				So(t2, ShouldHaveLength, 5)
				seen := map[string]int{}
				for _, a := range append(t1.Clone(), t2...) {
					seen[a.PlayerID]++
				}
				So(seen, ShouldHaveLength, 10)
			})

			Convey("And roles come from each player's playable roles", func() {
				for _, a := range append(t1.Clone(), t2...) {
					if a.PlayerID == "p3" {
						So(a.Role, ShouldEqual, model.Role(""))
						So(a.Score, ShouldEqual, 0)
						continue
					}
					So(a.Score, ShouldBeGreaterThan, 0)
				}
			})

			Convey("And the input order is untouched", func() {
				So(players[0].ID, ShouldEqual, "p0")
				So(players[9].ID, ShouldEqual, "p9")
			})
		})
	})
}

func TestRoleAware(t *testing.T) {
	Convey("Given ten mid-only players", t, func() {
		players := roster()
		rng := rand.New(rand.NewSource(2))

		Convey("When splitting role-aware", func() {
			t1, t2 := randomsplit.RoleAware(players, rng)

			Convey("Then roles never repeat inside a team", func() {
				for _, team := range []model.Team{t1, t2} {
					So(team, ShouldHaveLength, 5)
					roles := map[model.Role]bool{}
					for _, a := range team {
						So(roles[a.Role], ShouldBeFalse)
						roles[a.Role] = true
					}
				}
			})

			Convey("And at most one player per team gets mid", func() {
				for _, team := range []model.Team{t1, t2} {
					mids := 0
					for _, a := range team {
						if a.Role == model.RoleMid {
							mids++
							So(a.Score, ShouldEqual, 5)
						}
					}
					So(mids, ShouldBeLessThanOrEqualTo, 1)
				}
			})
		})
	})
}
