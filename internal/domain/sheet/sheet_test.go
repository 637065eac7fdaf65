package sheet_test

import (
	"testing"

	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/internal/domain/sheet"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseDelimited(t *testing.T) {
	Convey("Given delimited roster text", t, func() {
		Convey("When parsing a well-formed sheet", func() {
			table := sheet.ParseDelimited("First Name,Last Name,Number\nJordan,Avery,1201\nRiley,Chen,1004\n")

			Convey("Then headers and rows come back keyed by header", func() {
				So(table.Headers, ShouldResemble, []string{"First Name", "Last Name", "Number"})
				So(len(table.Rows), ShouldEqual, 2)
				So(table.Rows[0]["First Name"], ShouldEqual, "Jordan")
				So(table.Rows[1]["Number"], ShouldEqual, "1004")
			})
		})

		Convey("When cells are quoted and padded", func() {
			table := sheet.ParseDelimited("\"First Name\" , Last Name\n \"Jordan\" ,Avery")

			Convey("Then quotes and whitespace are stripped", func() {
				So(table.Headers, ShouldResemble, []string{"First Name", "Last Name"})
				So(table.Rows[0]["First Name"], ShouldEqual, "Jordan")
			})
		})

		Convey("When a row is shorter than the header list", func() {
			table := sheet.ParseDelimited("a,b,c\n1,2")

			Convey("Then trailing cells are empty strings, not missing", func() {
				row := table.Rows[0]
				So(row["a"], ShouldEqual, "1")
				So(row["b"], ShouldEqual, "2")
				v, ok := row["c"]
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "")
			})
		})

		Convey("When input uses CRLF line endings and blank lines", func() {
			table := sheet.ParseDelimited("a,b\r\n\r\n1,2\r\n\n")

			Convey("Then they are tolerated", func() {
				So(len(table.Rows), ShouldEqual, 1)
				So(table.Rows[0]["b"], ShouldEqual, "2")
			})
		})

		Convey("When input is empty or header-only", func() {
			So(sheet.ParseDelimited("").Empty(), ShouldBeTrue)
			So(sheet.ParseDelimited("a,b,c").Empty(), ShouldBeTrue)
			So(sheet.ParseDelimited("a,b,c").Headers, ShouldResemble, []string{"a", "b", "c"})
		})
	})
}

func TestExportSample(t *testing.T) {
	Convey("Given event drills", t, func() {
		drills := []model.DrillDefinition{
			{Key: "forty_yard_dash", Label: "40-Yard Dash", Unit: "s", LowerIsBetter: true},
			{Key: "vertical_jump", Label: "Vertical Jump", Unit: "in"},
		}

		Convey("When exporting the sample sheet", func() {
			out := sheet.ExportSample(drills)

			Convey("Then it parses back through ParseDelimited", func() {
				table := sheet.ParseDelimited(out)

				So(table.Headers, ShouldContain, "First Name")
				So(table.Headers, ShouldContain, "40-Yard Dash")
				So(table.Headers, ShouldContain, "Vertical Jump")
				So(len(table.Rows), ShouldEqual, 2)
				So(table.Rows[0]["First Name"], ShouldEqual, "Jordan")
				So(table.Rows[1]["Notes"], ShouldEqual, "left-handed")
			})
		})
	})
}
