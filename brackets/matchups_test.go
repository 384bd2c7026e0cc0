package brackets_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/Dosada05/tournament-matchups/brackets"
	"github.com/Dosada05/tournament-matchups/models"
	. "github.com/smartystreets/goconvey/convey"
)

// zeroSource always draws the lowest value, which turns the Fisher-Yates
// shuffle into a left rotation by one.
type zeroSource struct{}

func (zeroSource) Intn(int) int     { return 0 }
func (zeroSource) Float64() float64 { return 0 }

func field(n int) []models.Participant {
	ps := make([]models.Participant, n)
	for i := range ps {
		ps[i] = models.Participant{Name: fmt.Sprintf("P%02d", i)}
	}
	return ps
}

func named(names ...string) []models.Participant {
	ps := make([]models.Participant, len(names))
	for i, n := range names {
		ps[i] = models.Participant{Name: n}
	}
	return ps
}

func opponents(m models.Matchup) []string {
	out := make([]string, len(m.Matches))
	for i, match := range m.Matches {
		out[i] = match.Opponent.Name
	}
	return out
}

// checkWellFormed asserts the structural invariants every assignment keeps:
// symmetry, no self pairing, no repeated pairing.
func checkWellFormed(ms models.Matchups) {
	for _, m := range ms {
		seen := map[string]bool{}
		for _, match := range m.Matches {
			So(match.Opponent.Name, ShouldNotEqual, m.Participant.Name)
			So(seen[match.Opponent.Name], ShouldBeFalse)
			seen[match.Opponent.Name] = true

			other := ms.Find(match.Opponent.Name)
			So(other, ShouldBeGreaterThanOrEqualTo, 0)
			mirror := ms[other].MatchWith(m.Participant.Name)
			So(mirror, ShouldBeGreaterThanOrEqualTo, 0)
			back := ms[other].Matches[mirror]
			So(back.Completed, ShouldEqual, match.Completed)
			So(back.Score, ShouldEqual, match.Score)
			So(back.Result, ShouldEqual, match.Result.Opposite())
		}
	}
}

func TestEngine_Generate(t *testing.T) {
	Convey("Given an engine with the circulant strategy", t, func() {
		engine := brackets.NewEngine(brackets.WithRandomSource(rand.New(rand.NewSource(7))))
		So(engine.Strategy(), ShouldEqual, brackets.StrategyCirculant)

		Convey("When fewer than four participants are given", func() {
			_, err := engine.Generate(field(3))

			Convey("Then generation is refused", func() {
				So(errors.Is(err, brackets.ErrInsufficientParticipants), ShouldBeTrue)
			})
		})

		Convey("When the field has an even size", func() {
			for n := 4; n <= 40; n += 2 {
				a, err := engine.Generate(field(n))
				So(err, ShouldBeNil)

				Convey(fmt.Sprintf("Then all %d participants get exactly three opponents", n), func() {
					So(a.Complete(), ShouldBeTrue)
					So(a.Matchups, ShouldHaveLength, n)
					for _, m := range a.Matchups {
						So(m.Matches, ShouldHaveLength, brackets.MatchesPerParticipant)
					}
					checkWellFormed(a.Matchups)
				})
			}
		})

		Convey("When the field has an odd size", func() {
			for n := 5; n <= 41; n += 2 {
				a, err := engine.Generate(field(n))
				So(err, ShouldBeNil)

				Convey(fmt.Sprintf("Then exactly one of %d participants is reported with two opponents", n), func() {
					So(a.Shortfall, ShouldHaveLength, 1)
					So(a.Shortfall[0].Matches, ShouldEqual, 2)
					short := a.Matchups.Find(a.Shortfall[0].Name)
					So(a.Matchups[short].Matches, ShouldHaveLength, 2)
					checkWellFormed(a.Matchups)
				})
			}
		})

		Convey("When four participants are paired", func() {
			a, err := engine.Generate(named("A", "B", "C", "D"))
			So(err, ShouldBeNil)

			Convey("Then the result is the complete graph", func() {
				for _, m := range a.Matchups {
					So(opponents(m), ShouldHaveLength, 3)
					for _, other := range []string{"A", "B", "C", "D"} {
						if other != m.Participant.Name {
							So(opponents(m), ShouldContain, other)
						}
					}
				}
			})

			Convey("And every match starts pending", func() {
				for _, m := range a.Matchups {
					for _, match := range m.Matches {
						So(match.Completed, ShouldBeFalse)
						So(match.Result, ShouldEqual, models.MatchResult(""))
						So(match.Score, ShouldBeEmpty)
					}
				}
			})
		})

		Convey("When the input order is kept", func() {
			ps := field(8)
			a, _ := engine.Generate(ps)

			Convey("Then matchups follow the participant order", func() {
				for i, p := range ps {
					So(a.Matchups[i].Participant, ShouldResemble, p)
				}
			})
		})
	})

	Convey("Given a scripted random source", t, func() {
		engine := brackets.NewEngine(brackets.WithRandomSource(zeroSource{}))

		Convey("When six participants are paired", func() {
			a, err := engine.Generate(named("A", "B", "C", "D", "E", "F"))
			So(err, ShouldBeNil)

			Convey("Then the exact pairings and their creation order are reproducible", func() {
				So(opponents(a.Matchups[0]), ShouldResemble, []string{"F", "B", "D"})
				So(opponents(a.Matchups[1]), ShouldResemble, []string{"C", "A", "E"})
				So(opponents(a.Matchups[2]), ShouldResemble, []string{"B", "D", "F"})
				So(opponents(a.Matchups[3]), ShouldResemble, []string{"C", "E", "A"})
				So(opponents(a.Matchups[4]), ShouldResemble, []string{"D", "F", "B"})
				So(opponents(a.Matchups[5]), ShouldResemble, []string{"E", "A", "C"})
			})
		})
	})
}

func TestEngine_GenerateGreedy(t *testing.T) {
	Convey("Given an engine with the greedy strategy", t, func() {
		engine := brackets.NewEngine(
			brackets.WithStrategy(brackets.StrategyGreedy),
			brackets.WithRandomSource(rand.New(rand.NewSource(11))),
		)
		So(engine.Strategy(), ShouldEqual, brackets.StrategyGreedy)

		Convey("When four participants are paired with a scripted source", func() {
			scripted := brackets.NewEngine(brackets.WithStrategy(brackets.StrategyGreedy), brackets.WithRandomSource(zeroSource{}))
			a, err := scripted.Generate(named("A", "B", "C", "D"))
			So(err, ShouldBeNil)

			Convey("Then the retries complete the graph", func() {
				So(a.Complete(), ShouldBeTrue)
				checkWellFormed(a.Matchups)
			})
		})

		Convey("When many field sizes are paired", func() {
			for n := 4; n <= 30; n++ {
				a, err := engine.Generate(field(n))
				So(err, ShouldBeNil)

				Convey(fmt.Sprintf("Then the %d-participant assignment stays well formed and reports every shortfall", n), func() {
					checkWellFormed(a.Matchups)
					short := 0
					for _, m := range a.Matchups {
						So(len(m.Matches), ShouldBeLessThanOrEqualTo, brackets.MatchesPerParticipant)
						if len(m.Matches) < brackets.MatchesPerParticipant {
							short++
						}
					}
					So(a.Shortfall, ShouldHaveLength, short)
				})
			}
		})
	})
}

func TestEngine_AddParticipant(t *testing.T) {
	Convey("Given generated matchups for six participants", t, func() {
		engine := brackets.NewEngine(brackets.WithRandomSource(rand.New(rand.NewSource(3))))
		a, err := engine.Generate(field(6))
		So(err, ShouldBeNil)
		before := a.Matchups.Clone()

		Convey("When a seventh participant joins", func() {
			added, err := engine.AddParticipant(a.Matchups, models.Participant{Name: "Late"})
			So(err, ShouldBeNil)

			Convey("Then the newcomer gets three distinct opponents", func() {
				late := added.Matchups[added.Matchups.Find("Late")]
				So(late.Matches, ShouldHaveLength, 3)
				checkWellFormed(added.Matchups)
			})

			Convey("And the existing matches are untouched", func() {
				for i, m := range before {
					So(added.Matchups[i].Matches[:len(m.Matches)], ShouldResemble, m.Matches)
				}
			})

			Convey("And the input snapshot is not modified", func() {
				So(a.Matchups, ShouldResemble, before)
			})
		})

		Convey("When a participant with the same name in another case joins", func() {
			_, err := engine.AddParticipant(a.Matchups, models.Participant{Name: " p01 "})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, brackets.ErrDuplicateParticipant), ShouldBeTrue)
			})
		})
	})

	Convey("Given odd matchups with one participant short", t, func() {
		engine := brackets.NewEngine(brackets.WithRandomSource(rand.New(rand.NewSource(5))))
		a, err := engine.Generate(field(5))
		So(err, ShouldBeNil)
		So(a.Shortfall, ShouldHaveLength, 1)
		short := a.Shortfall[0].Name

		Convey("When a sixth participant joins", func() {
			added, err := engine.AddParticipant(a.Matchups, models.Participant{Name: "Late"})
			So(err, ShouldBeNil)

			Convey("Then the short participant is picked first and reaches its quota", func() {
				So(added.Matchups[added.Matchups.Find(short)].Matches, ShouldHaveLength, 3)
				So(opponents(added.Matchups[added.Matchups.Find("Late")]), ShouldContain, short)
			})

			Convey("And no opponent is picked twice", func() {
				checkWellFormed(added.Matchups)
			})
		})
	})

	Convey("Given no existing matchups", t, func() {
		engine := brackets.NewEngine()

		Convey("When someone is added", func() {
			added, err := engine.AddParticipant(nil, models.Participant{Name: "Solo"})
			So(err, ShouldBeNil)

			Convey("Then they are reported without opponents", func() {
				So(added.Shortfall, ShouldResemble, []brackets.Shortfall{{Name: "Solo", Matches: 0}})
			})
		})
	})
}

func TestParseStrategy(t *testing.T) {
	Convey("Strategy names parse case-insensitively", t, func() {
		s, err := brackets.ParseStrategy(" Greedy ")
		So(err, ShouldBeNil)
		So(s, ShouldEqual, brackets.StrategyGreedy)

		_, err = brackets.ParseStrategy("swiss")
		So(errors.Is(err, brackets.ErrUnknownStrategy), ShouldBeTrue)
	})
}
