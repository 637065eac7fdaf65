package service_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/fieldday/combine/internal/adapters/http/api"
	"github.com/fieldday/combine/internal/adapters/persistence"
	"github.com/fieldday/combine/internal/adapters/store"
	service "github.com/fieldday/combine/internal/app"
	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/internal/ingest"
	"github.com/fieldday/combine/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// fakeStore stands in for the external store: schemas are fixed, uploads
// append to the served roster, drill results mutate it.
type fakeStore struct {
	mu          sync.Mutex
	drills      map[string][]model.DrillDefinition
	players     map[string][]model.Player
	schemaCalls int
	uploads     int
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		drills: map[string][]model.DrillDefinition{
			"ev-1": {
				{Key: "forty_yard_dash", Label: "40 Yard Dash", Unit: "s", LowerIsBetter: true},
				{Key: "vertical_jump", Label: "Vertical Jump", Unit: "in"},
			},
		},
		players: map[string][]model.Player{
			"ev-1": {
				{ID: "p1", Number: 1201, AgeGroup: "12U", Name: "Jordan Avery"},
			},
		},
	}
}

func (f *fakeStore) EventSchema(_ context.Context, eventID string) ([]model.DrillDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemaCalls++
	drills, ok := f.drills[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: event_schema 404", store.ErrBadStatus)
	}
	return drills, nil
}

func (f *fakeStore) Players(_ context.Context, eventID string) ([]model.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Player{}, f.players[eventID]...), nil
}

func (f *fakeStore) UploadPlayers(_ context.Context, eventID string, players []store.PlayerUpload) (store.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	for _, up := range players {
		f.nextID++
		f.players[eventID] = append(f.players[eventID], model.Player{
			ID:       fmt.Sprintf("p%d", f.nextID+1),
			Number:   up.Number,
			AgeGroup: up.AgeGroup,
			Name:     up.Name,
			Scores:   up.Scores,
		})
	}
	return store.UploadResult{Added: len(players)}, nil
}

func (f *fakeStore) PostDrillResult(_ context.Context, eventID, playerID, drillKey string, value float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.players[eventID] {
		if p.ID == playerID {
			scores := map[string]float64{drillKey: value}
			for k, v := range p.Scores {
				scores[k] = v
			}
			f.players[eventID][i].Scores = scores
		}
	}
	f.nextID++
	return fmt.Sprintf("dr-%d", f.nextID), nil
}

func (f *fakeStore) DeleteDrillResult(_ context.Context, _, _, _ string) error {
	return nil
}

func newTestService(t *testing.T, fs *fakeStore) *service.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	sessions := persistence.NewRedisStore(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}), "combine")

	svc := service.New(
		service.WithStore(fs),
		service.WithSessionStore(sessions),
		service.WithWorkerCount(2),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceEvents(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		fs := newFakeStore()
		svc := newTestService(t, fs)

		Convey("schema is fetched once per event", func() {
			drills, err := svc.Schema(ctx, "ev-1")
			So(err, ShouldBeNil)
			So(drills, ShouldHaveLength, 2)

			_, err = svc.Schema(ctx, "ev-1")
			So(err, ShouldBeNil)
			So(fs.schemaCalls, ShouldEqual, 1)
		})

		Convey("unknown events surface as not found", func() {
			_, err := svc.Schema(ctx, "ev-9")
			So(err, ShouldWrap, api.ErrUnknownEvent)

			_, err = svc.Roster(ctx, "ev-9")
			So(err, ShouldWrap, api.ErrUnknownEvent)
		})

		Convey("roster serves the store's players", func() {
			players, err := svc.Roster(ctx, "ev-1")
			So(err, ShouldBeNil)
			So(players, ShouldHaveLength, 1)
			So(players[0].Name, ShouldEqual, "Jordan Avery")
		})

		Convey("name search hits the cache", func() {
			_, err := svc.Roster(ctx, "ev-1")
			So(err, ShouldBeNil)

			found, err := svc.SearchRoster(ctx, "ev-1", "jordan", 5)
			So(err, ShouldBeNil)
			So(found, ShouldHaveLength, 1)
		})
	})
}

func TestServiceIngestFlow(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		fs := newFakeStore()
		svc := newTestService(t, fs)

		req := ingest.Request{
			CSV: "First Name,Last Name,Number,Age Group\n" +
				"Riley,Chen,,12U\n" +
				"Sam,Okafor,1210,12U\n",
		}

		Convey("preview validates without touching the store", func() {
			preview, err := svc.PreviewRoster(ctx, "ev-1", req)
			So(err, ShouldBeNil)
			So(preview.NeedsMapping, ShouldBeFalse)
			So(preview.Summary.Total, ShouldEqual, 2)
			So(fs.uploads, ShouldEqual, 0)
		})

		Convey("upload commits and numbers around existing players", func() {
			report, err := svc.UploadRoster(ctx, "ev-1", req)
			So(err, ShouldBeNil)
			So(report.Added, ShouldEqual, 2)
			So(fs.uploads, ShouldEqual, 1)

			players, err := svc.Roster(ctx, "ev-1")
			So(err, ShouldBeNil)
			So(players, ShouldHaveLength, 3)

			numbers := map[int]string{}
			for _, p := range players {
				numbers[p.Number] = p.Name
			}
			// 1201 was taken before the upload; Riley gets the next free slot.
			So(numbers[1202], ShouldEqual, "Riley Chen")
			So(numbers[1210], ShouldEqual, "Sam Okafor")
		})
	})
}

func TestServiceSession(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		fs := newFakeStore()
		svc := newTestService(t, fs)

		Convey("the session runner drives a full entry", func() {
			runner, err := svc.Session(ctx, "ev-1")
			So(err, ShouldBeNil)

			runner.SelectDrill(ctx, "forty_yard_dash")
			runner.ConfirmDrill(ctx)
			st := runner.EnterNumber(ctx, "1201")
			So(st.Resolved, ShouldNotBeNil)
			So(st.Resolved.Name, ShouldEqual, "Jordan Avery")

			runner.EnterScore(ctx, "5.4")
			st = runner.Submit(ctx)
			So(st.Recent, ShouldHaveLength, 1)
			So(st.Recent[0].Value, ShouldEqual, 5.4)

			Convey("and progress reflects the submission", func() {
				snaps, err := svc.Progress(ctx, "ev-1")
				So(err, ShouldBeNil)
				So(snaps, ShouldHaveLength, 2)
				So(snaps[0].Scored, ShouldEqual, 1)
			})
		})
	})
}
