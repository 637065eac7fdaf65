package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/smartystreets/goconvey/convey"

	"github.com/fieldday/combine/internal/adapters/http/api"
	"github.com/fieldday/combine/internal/adapters/persistence"
	"github.com/fieldday/combine/internal/adapters/roster"
	"github.com/fieldday/combine/internal/adapters/store"
	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/internal/domain/progress"
	"github.com/fieldday/combine/internal/ingest"
	"github.com/fieldday/combine/internal/session"
	"github.com/fieldday/combine/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

var testDrills = []model.DrillDefinition{
	{Key: "forty_yard_dash", Label: "40 Yard Dash", Unit: "s", LowerIsBetter: true},
	{Key: "vertical_jump", Label: "Vertical Jump", Unit: "in"},
}

// depsStore backs the session runner with a canned roster.
type depsStore struct {
	mu      sync.Mutex
	players []model.Player
	nextID  int
}

func (f *depsStore) Players(_ context.Context, _ string) ([]model.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Player{}, f.players...), nil
}

func (f *depsStore) PostDrillResult(_ context.Context, _, playerID, drillKey string, value float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.players {
		if p.ID == playerID {
			scores := map[string]float64{drillKey: value}
			for k, v := range p.Scores {
				scores[k] = v
			}
			f.players[i].Scores = scores
		}
	}
	f.nextID++
	return fmt.Sprintf("dr-%d", f.nextID), nil
}

func (f *depsStore) DeleteDrillResult(_ context.Context, _, _, _ string) error {
	return nil
}

// fakeDeps satisfies api.Dependencies with canned data plus a live runner.
type fakeDeps struct {
	players []model.Player
	runner  *session.Runner

	preview    ingest.Preview
	previewErr error
	report     ingest.Report
	reportErr  error

	lastSearch string
	lastLimit  int
	lastReq    ingest.Request
}

func newFakeDeps(t *testing.T) *fakeDeps {
	t.Helper()

	players := []model.Player{
		{ID: "p1", Number: 1201, AgeGroup: "12U", Name: "Jordan Avery",
			Scores: map[string]float64{"forty_yard_dash": 5.4}},
		{ID: "p2", Number: 1202, AgeGroup: "12U", Name: "Riley Chen"},
	}

	mr := miniredis.RunT(t)
	sessions := persistence.NewRedisStore(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}), "combine")
	cache := roster.NewTreapCache(roster.WithSeed(11))

	d := &fakeDeps{players: players}
	d.runner = session.NewRunner("ev-1", testDrills, &depsStore{players: players}, cache, sessions)
	d.runner.Start(context.Background())
	return d
}

func (d *fakeDeps) check(eventID string) error {
	if eventID != "ev-1" {
		return api.ErrUnknownEvent
	}
	return nil
}

func (d *fakeDeps) Schema(_ context.Context, eventID string) ([]model.DrillDefinition, error) {
	if err := d.check(eventID); err != nil {
		return nil, err
	}
	return testDrills, nil
}

func (d *fakeDeps) Roster(_ context.Context, eventID string) ([]model.Player, error) {
	if err := d.check(eventID); err != nil {
		return nil, err
	}
	return d.players, nil
}

func (d *fakeDeps) SearchRoster(_ context.Context, eventID, query string, limit int) ([]model.Player, error) {
	if err := d.check(eventID); err != nil {
		return nil, err
	}
	d.lastSearch, d.lastLimit = query, limit
	return d.players[:1], nil
}

func (d *fakeDeps) Progress(_ context.Context, eventID string) ([]progress.Snapshot, error) {
	if err := d.check(eventID); err != nil {
		return nil, err
	}
	tr := progress.New()
	snaps := make([]progress.Snapshot, 0, len(testDrills))
	for _, drill := range testDrills {
		snaps = append(snaps, tr.ForDrill(drill.Key, d.players))
	}
	return snaps, nil
}

func (d *fakeDeps) PreviewRoster(_ context.Context, eventID string, req ingest.Request) (ingest.Preview, error) {
	if err := d.check(eventID); err != nil {
		return ingest.Preview{}, err
	}
	d.lastReq = req
	return d.preview, d.previewErr
}

func (d *fakeDeps) UploadRoster(_ context.Context, eventID string, req ingest.Request) (ingest.Report, error) {
	if err := d.check(eventID); err != nil {
		return ingest.Report{}, err
	}
	d.lastReq = req
	return d.report, d.reportErr
}

func (d *fakeDeps) SampleCSV(_ context.Context, eventID string) (string, error) {
	if err := d.check(eventID); err != nil {
		return "", err
	}
	return "First Name,Last Name\nJordan,Avery\n", nil
}

func (d *fakeDeps) Session(_ context.Context, eventID string) (*session.Runner, error) {
	if err := d.check(eventID); err != nil {
		return nil, err
	}
	return d.runner, nil
}

func doJSON(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestRouterBasics(t *testing.T) {
	convey.Convey("Given the API router", t, func() {
		deps := newFakeDeps(t)
		router := api.NewServer(deps).Router()

		convey.Convey("health check responds ok", func() {
			rec := doJSON(router, http.MethodGet, "/healthz", nil)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(decodeBody(t, rec)["status"], convey.ShouldEqual, "ok")
		})

		convey.Convey("metrics endpoint is exposed", func() {
			rec := doJSON(router, http.MethodGet, "/metrics", nil)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("schema lists the event drills", func() {
			rec := doJSON(router, http.MethodGet, "/api/events/ev-1/schema", nil)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			drills := decodeBody(t, rec)["drills"].([]any)
			convey.So(drills, convey.ShouldHaveLength, 2)
		})

		convey.Convey("unknown events map to 404", func() {
			rec := doJSON(router, http.MethodGet, "/api/events/ev-9/schema", nil)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusNotFound)
			convey.So(decodeBody(t, rec)["code"], convey.ShouldEqual, "not_found")
		})
	})
}

func TestRosterEndpoints(t *testing.T) {
	convey.Convey("Given the API router", t, func() {
		deps := newFakeDeps(t)
		router := api.NewServer(deps).Router()

		convey.Convey("roster returns all players", func() {
			rec := doJSON(router, http.MethodGet, "/api/events/ev-1/roster", nil)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			players := decodeBody(t, rec)["players"].([]any)
			convey.So(players, convey.ShouldHaveLength, 2)
		})

		convey.Convey("roster with q switches to name search", func() {
			rec := doJSON(router, http.MethodGet, "/api/events/ev-1/roster?q=jordan&limit=3", nil)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.lastSearch, convey.ShouldEqual, "jordan")
			convey.So(deps.lastLimit, convey.ShouldEqual, 3)
			players := decodeBody(t, rec)["players"].([]any)
			convey.So(players, convey.ShouldHaveLength, 1)
		})

		convey.Convey("progress reports per-drill completion", func() {
			rec := doJSON(router, http.MethodGet, "/api/events/ev-1/progress", nil)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			drills := decodeBody(t, rec)["drills"].([]any)
			convey.So(drills, convey.ShouldHaveLength, 2)
			first := drills[0].(map[string]any)
			convey.So(first["drill_key"], convey.ShouldEqual, "forty_yard_dash")
			convey.So(first["scored"], convey.ShouldEqual, 1)
		})

		convey.Convey("sample sheet downloads as csv", func() {
			rec := doJSON(router, http.MethodGet, "/api/events/ev-1/roster/sample.csv", nil)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Header().Get("Content-Type"), convey.ShouldStartWith, "text/csv")
			convey.So(rec.Header().Get("Content-Disposition"), convey.ShouldContainSubstring, "sample-roster.csv")
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, "First Name")
		})
	})
}

func TestIngestEndpoints(t *testing.T) {
	convey.Convey("Given the API router", t, func() {
		deps := newFakeDeps(t)
		router := api.NewServer(deps).Router()

		convey.Convey("preview accepts inline csv with overrides", func() {
			deps.preview = ingest.Preview{Summary: ingest.Summary{Total: 2, Clean: 2}}
			rec := doJSON(router, http.MethodPost, "/api/events/ev-1/roster/preview", map[string]any{
				"csv":     "First Name,Last Name\nJordan,Avery\nRiley,Chen\n",
				"mapping": map[string]string{"first_name": "First Name"},
			})
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(deps.lastReq.CSV, convey.ShouldContainSubstring, "Jordan")
			convey.So(deps.lastReq.Overrides["first_name"], convey.ShouldEqual, "First Name")
			summary := decodeBody(t, rec)["summary"].(map[string]any)
			convey.So(summary["total"], convey.ShouldEqual, 2)
		})

		convey.Convey("preview accepts multipart workbooks", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			fw, err := mw.CreateFormFile("file", "roster.xlsx")
			convey.So(err, convey.ShouldBeNil)
			_, _ = fw.Write([]byte("workbook-bytes"))
			convey.So(mw.WriteField("mapping", `{"number":"Jersey"}`), convey.ShouldBeNil)
			convey.So(mw.Close(), convey.ShouldBeNil)

			req := httptest.NewRequest(http.MethodPost, "/api/events/ev-1/roster/preview", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(string(deps.lastReq.Workbook), convey.ShouldEqual, "workbook-bytes")
			convey.So(deps.lastReq.Overrides["number"], convey.ShouldEqual, "Jersey")
		})

		convey.Convey("sheet problems map to 400", func() {
			deps.previewErr = ingest.ErrEmptySheet
			rec := doJSON(router, http.MethodPost, "/api/events/ev-1/roster/preview", map[string]any{"csv": ""})
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("store problems map to 502", func() {
			deps.reportErr = ingest.ErrUploadFailed
			rec := doJSON(router, http.MethodPost, "/api/events/ev-1/roster/upload", map[string]any{"csv": "x"})
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadGateway)
			convey.So(decodeBody(t, rec)["code"], convey.ShouldEqual, "store_error")
		})

		convey.Convey("upload returns the commit report", func() {
			deps.report = ingest.Report{
				Attempted:   2,
				Added:       1,
				SkippedRows: []int{1},
				RowErrors:   []store.RowError{{Row: 0, Message: "duplicate"}},
			}
			rec := doJSON(router, http.MethodPost, "/api/events/ev-1/roster/upload", map[string]any{"csv": "x"})
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			body := decodeBody(t, rec)
			convey.So(body["attempted"], convey.ShouldEqual, 2)
			convey.So(body["added"], convey.ShouldEqual, 1)
		})

		convey.Convey("malformed json bodies map to 400", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/events/ev-1/roster/preview",
				strings.NewReader("{nope"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSessionEndpoints(t *testing.T) {
	convey.Convey("Given the API router", t, func() {
		deps := newFakeDeps(t)
		router := api.NewServer(deps).Router()

		convey.Convey("state starts with no drill selected", func() {
			rec := doJSON(router, http.MethodGet, "/api/events/ev-1/session", nil)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			body := decodeBody(t, rec)
			convey.So(body["phase"], convey.ShouldEqual, "no_drill")
			convey.So(body["event_id"], convey.ShouldEqual, "ev-1")
		})

		convey.Convey("messages drive the entry flow", func() {
			rec := doJSON(router, http.MethodPost, "/api/events/ev-1/session/select-drill",
				map[string]any{"key": "forty_yard_dash"})
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(decodeBody(t, rec)["phase"], convey.ShouldEqual, "drill_selected")

			rec = doJSON(router, http.MethodPost, "/api/events/ev-1/session/confirm", nil)
			convey.So(decodeBody(t, rec)["phase"], convey.ShouldEqual, "entry_active")

			rec = doJSON(router, http.MethodPost, "/api/events/ev-1/session/number",
				map[string]any{"value": "1202"})
			body := decodeBody(t, rec)
			resolved := body["resolved_player"].(map[string]any)
			convey.So(resolved["name"], convey.ShouldEqual, "Riley Chen")

			rec = doJSON(router, http.MethodPost, "/api/events/ev-1/session/score",
				map[string]any{"value": "5.1"})
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

			rec = doJSON(router, http.MethodPost, "/api/events/ev-1/session/submit", nil)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			body = decodeBody(t, rec)
			recent := body["recent_entries"].([]any)
			convey.So(recent, convey.ShouldHaveLength, 1)
			entry := recent[0].(map[string]any)
			convey.So(entry["player_name"], convey.ShouldEqual, "Riley Chen")
			convey.So(entry["value"], convey.ShouldEqual, 5.1)
		})

		convey.Convey("locking a drill is reflected in state", func() {
			rec := doJSON(router, http.MethodPost, "/api/events/ev-1/session/lock",
				map[string]any{"key": "vertical_jump"})
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			locked := decodeBody(t, rec)["locked"].(map[string]any)
			convey.So(locked["vertical_jump"], convey.ShouldEqual, true)
		})

		convey.Convey("unknown messages map to 404", func() {
			rec := doJSON(router, http.MethodPost, "/api/events/ev-1/session/frobnicate", nil)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusNotFound)
			convey.So(decodeBody(t, rec)["code"], convey.ShouldEqual, "unknown_msg")
		})
	})
}
