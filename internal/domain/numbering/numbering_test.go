package numbering_test

import (
	"testing"

	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/internal/domain/numbering"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBucket(t *testing.T) {
	Convey("Given age-group labels", t, func() {
		Convey("Then digit-bearing labels resolve to their leading integer", func() {
			So(numbering.Bucket("12U"), ShouldEqual, 12)
			So(numbering.Bucket("U8"), ShouldEqual, 8)
			So(numbering.Bucket("6-8"), ShouldEqual, 6)
			So(numbering.Bucket(" 10u "), ShouldEqual, 10)
		})

		Convey("Then ages at or below five collapse to bucket five", func() {
			So(numbering.Bucket("5U"), ShouldEqual, 5)
			So(numbering.Bucket("4U"), ShouldEqual, 5)
			So(numbering.Bucket("U3"), ShouldEqual, 5)
			So(numbering.Bucket("kindergarten"), ShouldEqual, 5)
			So(numbering.Bucket("Pre-K"), ShouldEqual, 5)
		})

		Convey("Then unrecognized text maps to bucket 99", func() {
			So(numbering.Bucket("unknown"), ShouldEqual, 99)
			So(numbering.Bucket(""), ShouldEqual, 99)
			So(numbering.Bucket("varsity"), ShouldEqual, 99)
		})
	})
}

func TestNext(t *testing.T) {
	Convey("Given an allocator", t, func() {
		alloc := numbering.New(numbering.WithSeed(42))

		Convey("When numbers in the bucket are taken", func() {
			So(alloc.Next("12U", []int{1201, 1202}, 1), ShouldEqual, 1203)
		})

		Convey("When the bucket is empty", func() {
			n := alloc.Next("6U", nil, 1)

			So(n, ShouldEqual, 601)
			So(n, ShouldBeBetweenOrEqual, 601, 699)
		})

		Convey("When the age group is unrecognized", func() {
			n := alloc.Next("unknown", nil, 1)

			So(n, ShouldBeBetweenOrEqual, 9901, 9999)
		})

		Convey("When start skips already-processed counters", func() {
			So(alloc.Next("12U", nil, 7), ShouldEqual, 1207)
		})

		Convey("When the deterministic range is exhausted", func() {
			taken := make([]int, 0, 999)
			for c := 1; c <= 999; c++ {
				taken = append(taken, 12*100+c)
			}

			n := alloc.Next("12U", taken, 1)

			Convey("Then the fallback lands in the overflow band without colliding", func() {
				So(n, ShouldBeBetweenOrEqual, 9900, 9999)
				for _, t := range taken {
					So(n, ShouldNotEqual, t)
				}
			})
		})
	})
}

func TestAutoAssign(t *testing.T) {
	Convey("Given a roster to auto-number", t, func() {
		alloc := numbering.New(numbering.WithSeed(42))

		Convey("When the list mixes numbered and unnumbered players", func() {
			players := []model.Player{
				{ID: "a", AgeGroup: "12U", Number: 1201},
				{ID: "b", AgeGroup: "12U"},
				{ID: "c", AgeGroup: "12U"},
				{ID: "d", AgeGroup: "10U", Number: 1001},
				{ID: "e", AgeGroup: "10U"},
			}

			out := alloc.AutoAssign(players)

			Convey("Then every player is numbered and no number repeats", func() {
				seen := map[int]bool{}
				for _, p := range out {
					So(p.Numbered(), ShouldBeTrue)
					So(seen[p.Number], ShouldBeFalse)
					seen[p.Number] = true
				}
				So(out[1].Number, ShouldEqual, 1202)
				So(out[2].Number, ShouldEqual, 1203)
				So(out[4].Number, ShouldEqual, 1002)
			})

			Convey("Then the input slice is not mutated", func() {
				So(players[1].Number, ShouldEqual, 0)
				So(players[2].Number, ShouldEqual, 0)
			})
		})

		Convey("When every player is already numbered", func() {
			players := []model.Player{
				{ID: "a", Number: 601},
				{ID: "b", Number: 602},
			}

			out := alloc.AutoAssign(players)

			So(out[0].Number, ShouldEqual, 601)
			So(out[1].Number, ShouldEqual, 602)
		})

		Convey("When numbers are already persisted outside the batch", func() {
			players := []model.Player{
				{ID: "a", AgeGroup: "12U"},
				{ID: "b", AgeGroup: "12U"},
			}

			out := alloc.AutoAssignWith(players, []int{1201, 1202})

			So(out[0].Number, ShouldEqual, 1203)
			So(out[1].Number, ShouldEqual, 1204)
		})

		Convey("When no player is numbered", func() {
			players := []model.Player{
				{ID: "a", AgeGroup: "8U"},
				{ID: "b", AgeGroup: "8U"},
				{ID: "c", AgeGroup: "8U"},
			}

			out := alloc.AutoAssign(players)

			seen := map[int]bool{}
			for _, p := range out {
				So(seen[p.Number], ShouldBeFalse)
				seen[p.Number] = true
				So(p.Number, ShouldBeBetweenOrEqual, 801, 899)
			}
		})
	})
}
