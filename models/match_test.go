package models

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMatchupsJSONShape(t *testing.T) {
	Convey("Given a matchup with a completed and a pending match", t, func() {
		ms := Matchups{{
			Participant: Participant{Name: "Ann", Email: "ann@example.com"},
			Matches: []Match{
				{Opponent: Participant{Name: "Bob"}, Completed: true, Score: "3-1", Result: ResultWin},
				{Opponent: Participant{Name: "Cy", Image: "https://cdn.example.com/cy.png"}},
			},
		}}

		b, err := json.Marshal(ms)
		So(err, ShouldBeNil)

		var raw []map[string]json.RawMessage
		So(json.Unmarshal(b, &raw), ShouldBeNil)
		So(raw, ShouldHaveLength, 1)

		Convey("Then a matchup has exactly participant and matches", func() {
			So(raw[0], ShouldHaveLength, 2)
			So(raw[0], ShouldContainKey, "participant")
			So(raw[0], ShouldContainKey, "matches")
		})

		Convey("Then score and result appear only once a match is completed", func() {
			var matches []map[string]json.RawMessage
			So(json.Unmarshal(raw[0]["matches"], &matches), ShouldBeNil)
			So(matches, ShouldHaveLength, 2)

			done := matches[0]
			So(done, ShouldHaveLength, 4)
			So(string(done["completed"]), ShouldEqual, "true")
			So(string(done["score"]), ShouldEqual, `"3-1"`)
			So(string(done["result"]), ShouldEqual, `"win"`)

			pending := matches[1]
			So(pending, ShouldHaveLength, 2)
			So(string(pending["completed"]), ShouldEqual, "false")
			So(pending, ShouldNotContainKey, "score")
			So(pending, ShouldNotContainKey, "result")
			So(string(pending["opponent"]), ShouldEqual, `{"name":"Cy","image":"https://cdn.example.com/cy.png"}`)
		})
	})
}

func TestMatchupsColumn(t *testing.T) {
	Convey("Given matchups stored in a JSONB column", t, func() {
		ms := Matchups{
			{Participant: Participant{Name: "Ann"}, Matches: []Match{{Opponent: Participant{Name: "Bob"}, Completed: true, Score: "2-2", Result: ResultDraw}}},
			{Participant: Participant{Name: "Bob"}, Matches: []Match{{Opponent: Participant{Name: "Ann"}, Completed: true, Score: "2-2", Result: ResultDraw}}},
		}

		Convey("Then Value and Scan round-trip", func() {
			v, err := ms.Value()
			So(err, ShouldBeNil)

			var back Matchups
			So(back.Scan(v), ShouldBeNil)
			So(back, ShouldResemble, ms)
		})

		Convey("Then a string source scans too", func() {
			v, _ := ms.Value()
			var back Matchups
			So(back.Scan(string(v.([]byte))), ShouldBeNil)
			So(back, ShouldResemble, ms)
		})

		Convey("Then nil matchups are stored as an empty array", func() {
			var none Matchups
			v, err := none.Value()
			So(err, ShouldBeNil)
			So(string(v.([]byte)), ShouldEqual, "[]")
		})

		Convey("Then a NULL column leaves the destination untouched", func() {
			back := Matchups{{Participant: Participant{Name: "Keep"}}}
			So(back.Scan(nil), ShouldBeNil)
			So(back, ShouldHaveLength, 1)
		})

		Convey("Then unsupported sources are refused", func() {
			var back Matchups
			So(back.Scan(42), ShouldNotBeNil)
			So(back.Scan([]byte{}), ShouldNotBeNil)
		})
	})

	Convey("Given participants stored in a JSONB column", t, func() {
		ps := Participants{{Name: "Ann", Email: "ann@example.com"}, {Name: "Bob", Image: "https://cdn.example.com/b.png"}}

		Convey("Then Value and Scan round-trip", func() {
			v, err := ps.Value()
			So(err, ShouldBeNil)
			So(string(v.([]byte)), ShouldEqual, `[{"name":"Ann","email":"ann@example.com"},{"name":"Bob","image":"https://cdn.example.com/b.png"}]`)

			var back Participants
			So(back.Scan(v), ShouldBeNil)
			So(back, ShouldResemble, ps)
		})

		Convey("Then nil participants are stored as an empty array", func() {
			var none Participants
			v, err := none.Value()
			So(err, ShouldBeNil)
			So(string(v.([]byte)), ShouldEqual, "[]")
		})
	})
}
