package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"meetcore/internal/blob"
	"meetcore/internal/importer"
	"meetcore/pkg/discipline"
	"meetcore/pkg/domain"
)

func must(t *testing.T, label string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", label, err)
	}
}

func mustAdd(t *testing.T, label string, added bool, err error) {
	t.Helper()
	must(t, label, err)
	if !added {
		t.Fatalf("%s: expected insert", label)
	}
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

// seedBatch is a pool meet with two clubs, three athletes, one referee, an
// individual race and a relay.
func seedBatch(t *testing.T) importer.Batch {
	t.Helper()
	comp, err := domain.NewCompetition(1, "Interclubs Finistère", "Brest", day("2026-03-14"), day("2026-03-15"), discipline.SpecialityPool)
	must(t, "competition", err)
	individual, err := domain.NewRace(100, "100m Combiné", domain.GenderMixed, 3, 1)
	must(t, "race", err)
	relay, err := domain.NewRace(200, "4x50m Obstacles", domain.GenderMixed, 21, 4)
	must(t, "relay", err)
	t1, err := domain.NewIndividualTeam(domain.TeamBase{ID: 1, RaceID: 100, CategoryID: 7, EntryTime: 7450}, "A1")
	must(t, "team 1", err)
	t2, err := domain.NewIndividualTeam(domain.TeamBase{ID: 2, RaceID: 100, CategoryID: 7, EntryTime: 7120}, "A3")
	must(t, "team 2", err)
	t3, err := domain.NewRelayTeam(domain.TeamBase{ID: 3, RaceID: 200, CategoryID: 7, EntryTime: 15800}, []string{"A3", "A1"})
	must(t, "team 3", err)
	return importer.Batch{
		Competition: comp,
		Categories: []domain.Category{
			{ID: 7, Name: "Senior", AgeMin: 19, AgeMax: 99},
			{ID: 3, Name: "Cadet", AgeMin: 15, AgeMax: 16},
		},
		Clubs: []domain.Club{
			{ID: 11, Name: "Quimper Côtier"},
			{ID: 10, Name: "Brest Sauvetage"},
		},
		Licensees: []domain.Licensee{
			&domain.Athlete{Person: domain.Person{ID: "A1", FirstName: "Émile", LastName: "Durand", BirthYear: 2001, Gender: domain.GenderMale, ClubID: 11}, CategoryID: 7},
			&domain.Athlete{Person: domain.Person{ID: "A2", FirstName: "Léa", LastName: "Martin", BirthYear: 2010, Gender: domain.GenderFemale, ClubID: 11}, CategoryID: 3},
			&domain.Athlete{Person: domain.Person{ID: "A3", FirstName: "Noé", LastName: "Abiven", BirthYear: 1999, Gender: domain.GenderMale, ClubID: 10}, CategoryID: 7},
			&domain.Referee{
				Person: domain.Person{ID: "R1", LastName: "Kerjean", Gender: domain.GenderFemale, ClubID: 10},
				Level:  domain.RefereeLevelB,
				Dates:  []domain.RefereeDate{{ID: 1, Date: day("2026-03-14")}},
			},
		},
		Races: []importer.RaceEntry{
			{Race: individual, CategoryIDs: []int{7}},
			{Race: relay, CategoryIDs: []int{7}},
		},
		Teams: []domain.Team{t1, t2, t3},
	}
}

// seedGraph assembles seedBatch and adds one series round with two results.
func seedGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g, err := NewService(blob.NewMemory()).assemble(seedBatch(t))
	must(t, "assemble", err)
	m, err := domain.NewMeetingElement(1, "100m Combiné", domain.GenderMixed, []domain.RaceFormatDetail{
		{Order: 1, Label: "Séries", Level: domain.LevelSeries, NumberOfHeats: 1},
		{Order: 2, Label: "Finale", Level: domain.LevelFinal, NumberOfHeats: 1, QualifiedCount: 8},
	})
	must(t, "meeting", err)
	added, err := g.AddMeetingElement(m)
	mustAdd(t, "meeting", added, err)
	added, err = g.AddMeetingCategory(1, 7)
	mustAdd(t, "meeting category", added, err)
	cat := 7
	round, err := domain.NewRound(1, 1, &cat, "Séries", 1)
	must(t, "round", err)
	added, err = g.AddRound(round)
	mustAdd(t, "round", added, err)
	heat, err := domain.NewHeat(1, 1, 1)
	must(t, "heat", err)
	added, err = g.AddHeat(heat)
	mustAdd(t, "heat", added, err)
	for i, teamID := range []int{1, 2} {
		r, err := domain.NewSwimResult(domain.ResultBase{ID: i + 1, HeatID: 1, TeamID: teamID, Lane: i + 3}, 7000+i*100)
		must(t, "result", err)
		added, err = g.AddHeatResult(r)
		mustAdd(t, "result", added, err)
	}
	return g
}

// storeGraph writes g to a fresh memory store and returns it with the key.
func storeGraph(t *testing.T, g *domain.Graph) (blob.Store, string) {
	t.Helper()
	store := blob.NewMemory()
	svc := NewService(store)
	svc.graph = g
	info, err := svc.Save(context.Background())
	must(t, "save seed", err)
	return store, info.Key
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	entries []logEntry
}

func (c *captureLogger) log(level, msg string, args []any) {
	c.entries = append(c.entries, logEntry{level: level, msg: msg, args: args})
}

func (c *captureLogger) Debug(msg string, args ...any) { c.log("debug", msg, args) }
func (c *captureLogger) Info(msg string, args ...any)  { c.log("info", msg, args) }
func (c *captureLogger) Warn(msg string, args ...any)  { c.log("warn", msg, args) }
func (c *captureLogger) Error(msg string, args ...any) { c.log("error", msg, args) }

func (c *captureLogger) has(level, msg string) bool {
	for _, e := range c.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureTracer struct {
	ended []spanRecord
}

type spanRecord struct {
	op  string
	err error
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	return ctx, &captureSpan{tracer: c, op: op}
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

// stepClock advances by step on every call.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

var errStore = errors.New("disk full")

// failingStore wraps a store and fails the configured operations.
type failingStore struct {
	blob.Store
	failPut  bool
	failGet  bool
	failList bool
}

func (f failingStore) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	if f.failPut {
		return blob.Info{}, errStore
	}
	return f.Store.Put(ctx, key, r, opts)
}

func (f failingStore) Get(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	if f.failGet {
		return blob.Info{}, nil, fmt.Errorf("get %s: %w", key, errStore)
	}
	return f.Store.Get(ctx, key)
}

func (f failingStore) List(ctx context.Context, prefix string) ([]blob.Info, error) {
	if f.failList {
		return nil, errStore
	}
	return f.Store.List(ctx, prefix)
}
