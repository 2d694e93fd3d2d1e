package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"meetcore/internal/blob"
	"meetcore/internal/ffss"
	"meetcore/internal/importer"
	"meetcore/pkg/domain"
)

func TestInitializeAndQueries(t *testing.T) {
	ctx := context.Background()
	svc := NewService(blob.NewMemory())
	res, err := svc.Initialize(ctx, seedBatch(t))
	must(t, "initialize", err)
	if len(res.Violations) != 0 {
		t.Fatalf("expected clean seed, got %+v", res.Violations)
	}
	if !svc.Loaded() || !svc.Dirty() {
		t.Fatalf("expected loaded dirty service")
	}
	if got, want := svc.DocumentKey(), "Interclubs Finistère/Interclubs Finistère.ffss"; got != want {
		t.Fatalf("document key: got %q want %q", got, want)
	}

	counts, err := svc.Counts()
	must(t, "counts", err)
	if counts.Athletes != 3 || counts.Referees != 1 || counts.Teams != 3 || counts.Races != 2 {
		t.Fatalf("unexpected counts %+v", counts)
	}

	cats, err := svc.Categories()
	must(t, "categories", err)
	if cats[0].Name != "Cadet" || cats[1].Name != "Senior" {
		t.Fatalf("categories not ordered by age: %+v", cats)
	}
	clubs, err := svc.Clubs()
	must(t, "clubs", err)
	if clubs[0].Name != "Brest Sauvetage" {
		t.Fatalf("clubs not ordered by name: %+v", clubs)
	}
	athletes, err := svc.Athletes()
	must(t, "athletes", err)
	if athletes[0].ID != "A1" || athletes[1].ID != "A2" || athletes[2].ID != "A3" {
		t.Fatalf("athletes not ordered by folded name: %s %s %s", athletes[0].ID, athletes[1].ID, athletes[2].ID)
	}
	byClub, err := svc.LicenseesByClub()
	must(t, "licensees by club", err)
	if byClub[0].Base().ClubID != 10 || byClub[len(byClub)-1].Base().ClubID != 11 {
		t.Fatalf("licensees not grouped by club name")
	}
	teams, err := svc.TeamsByEntryTime()
	must(t, "teams by entry time", err)
	if teams[0].Base().ID != 2 || teams[2].Base().ID != 3 {
		t.Fatalf("teams not ordered by entry time")
	}
	raceTeams, err := svc.RaceTeams(100)
	must(t, "race teams", err)
	if len(raceTeams) != 2 || raceTeams[0].Base().ID != 2 {
		t.Fatalf("unexpected race teams %+v", raceTeams)
	}
	if _, err := svc.RaceTeams(999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown race, got %v", err)
	}
	byClubTeams, err := svc.Teams()
	must(t, "teams", err)
	if byClubTeams[0].Base().ID != 2 || byClubTeams[1].Base().ID != 3 || byClubTeams[2].Base().ID != 1 {
		t.Fatalf("teams not ordered by club; relay 3 represents its first athlete's club")
	}

	if _, err := svc.Initialize(ctx, seedBatch(t)); !errors.Is(err, ErrAlreadyLoaded) {
		t.Fatalf("expected already loaded, got %v", err)
	}
}

func TestQueriesRequireCompetition(t *testing.T) {
	svc := NewService(blob.NewMemory())
	if _, err := svc.Competition(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("competition: %v", err)
	}
	if _, err := svc.Races(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("races: %v", err)
	}
	if _, err := svc.SetTeamForfeit(1, true); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("forfeit: %v", err)
	}
	if _, err := svc.Save(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Validate(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, key := storeGraph(t, seedGraph(t))

	info, err := store.Head(ctx, key)
	must(t, "head", err)
	if info.ContentType != "application/xml" || info.Metadata["competition-id"] != "1" {
		t.Fatalf("unexpected document info %+v", info)
	}

	svc := NewService(store)
	_, err = svc.Load(ctx, key)
	must(t, "load", err)
	if svc.Dirty() {
		t.Fatalf("fresh load must not be dirty")
	}
	counts, err := svc.Counts()
	must(t, "counts", err)
	if counts.Rounds != 1 || counts.Heats != 1 || counts.HeatResults != 2 || counts.MeetingElements != 1 {
		t.Fatalf("schedule lost across round trip: %+v", counts)
	}

	_, err = svc.SetTeamForfeit(1, true)
	must(t, "forfeit", err)
	if !svc.Dirty() {
		t.Fatalf("mutation must mark the graph dirty")
	}
	_, err = svc.Save(ctx)
	must(t, "save", err)
	if svc.Dirty() {
		t.Fatalf("save must clear dirty")
	}

	svc.Reset()
	if svc.Loaded() || svc.DocumentKey() != "" {
		t.Fatalf("reset must release the graph")
	}
	_, err = svc.Load(ctx, key)
	must(t, "reload", err)
	teams, err := svc.TeamsByEntryTime()
	must(t, "teams", err)
	for _, team := range teams {
		if team.Base().ID == 1 && !team.Base().IsForfeit {
			t.Fatalf("forfeit flag not persisted")
		}
	}
}

func TestFailedLoadLeavesServiceEmpty(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	svc := NewService(store)

	doc := `<?xml version="1.0" encoding="UTF-8"?>
<FFSS Version="1">
  <Competition Id="1" Name="Broken" BeginDate="2026-03-14" EndDate="2026-03-14" Speciality="pool"/>
  <Categories><Category Id="7" Name="Senior" AgeMin="19" AgeMax="99"/></Categories>
  <Clubs>
    <Club Id="1" Name="Brest Sauvetage">
      <Licensee Type="athlete" Id="A1" LastName="Durand" Gender="male" CategoryId="7"/>
    </Club>
  </Clubs>
  <Licensees Ids="A1"/>
  <Races>
    <Race Id="5" Name="100m Combiné" Gender="mixed" Discipline="3" TeamSize="1" CategoryIds="7">
      <Team Type="individual" Id="1" CategoryId="7" AthleteId="A9"/>
    </Race>
  </Races>
  <Teams Ids="1"/>
</FFSS>
`
	key := ffss.DocumentKey("Broken")
	_, err := store.Put(ctx, key, strings.NewReader(doc), blob.PutOptions{})
	must(t, "put", err)

	_, err = svc.Load(ctx, key)
	var unresolved domain.UnresolvedReferenceError
	if !errors.As(err, &unresolved) || unresolved.Kind != domain.KindAthlete || unresolved.ID != "A9" {
		t.Fatalf("expected unresolved Athlete A9, got %v", err)
	}
	if svc.Loaded() {
		t.Fatalf("failed load must leave the service empty")
	}

	_, err = svc.Load(ctx, "missing/missing.ffss")
	if !errors.Is(err, domain.ErrIOFailure) || !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected io failure wrapping not found, got %v", err)
	}
	if svc.Loaded() {
		t.Fatalf("missing document must leave the service empty")
	}
}

func TestSaveReportsStoreFailure(t *testing.T) {
	ctx := context.Background()
	svc := NewService(failingStore{Store: blob.NewMemory(), failPut: true})
	_, err := svc.Initialize(ctx, seedBatch(t))
	must(t, "initialize", err)
	_, err = svc.Save(ctx)
	var ioErr domain.IOFailureError
	if !errors.As(err, &ioErr) || ioErr.Op != OpSave || !errors.Is(err, errStore) {
		t.Fatalf("expected save io failure, got %v", err)
	}
	if !svc.Dirty() {
		t.Fatalf("failed save must keep the graph dirty")
	}
}

func TestLoadReportsStoreFailure(t *testing.T) {
	svc := NewService(failingStore{Store: blob.NewMemory(), failGet: true})
	_, err := svc.Load(context.Background(), "x/x.ffss")
	if !errors.Is(err, domain.ErrIOFailure) || !errors.Is(err, errStore) {
		t.Fatalf("expected io failure, got %v", err)
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	src := importer.NewStatic(seedBatch(t))
	svc := NewService(blob.NewMemory())
	if _, err := svc.Import(ctx, src, 42); !errors.Is(err, importer.ErrCompetitionNotFound) {
		t.Fatalf("expected competition not found, got %v", err)
	}
	_, err := svc.Import(ctx, src, 1)
	must(t, "import", err)
	comp, err := svc.Competition()
	must(t, "competition", err)
	if comp.Name != "Interclubs Finistère" {
		t.Fatalf("unexpected competition %+v", comp)
	}
}

func TestInitializeRejectsUnresolvedTeam(t *testing.T) {
	batch := seedBatch(t)
	ghost, err := domain.NewIndividualTeam(domain.TeamBase{ID: 9, RaceID: 100, CategoryID: 7}, "A9")
	must(t, "team", err)
	batch.Teams = append(batch.Teams, ghost)
	svc := NewService(blob.NewMemory())
	if _, err := svc.Initialize(context.Background(), batch); !errors.Is(err, domain.ErrUnresolvedReference) {
		t.Fatalf("expected unresolved reference, got %v", err)
	}
	if svc.Loaded() {
		t.Fatalf("failed initialize must leave the service empty")
	}
}

func TestDuplicateBatchRecordsAreLogged(t *testing.T) {
	batch := seedBatch(t)
	batch.Clubs = append(batch.Clubs, batch.Clubs[0])
	logger := &captureLogger{}
	svc := NewService(blob.NewMemory(), WithLogger(logger))
	_, err := svc.Initialize(context.Background(), batch)
	must(t, "initialize", err)
	if !logger.has("warn", "duplicate record ignored") {
		t.Fatalf("expected duplicate warning, got %+v", logger.entries)
	}
}

func TestDocuments(t *testing.T) {
	ctx := context.Background()
	store, key := storeGraph(t, seedGraph(t))
	_, err := store.Put(ctx, "notes.txt", strings.NewReader("x"), blob.PutOptions{})
	must(t, "put", err)

	docs, err := NewService(store).Documents(ctx)
	must(t, "documents", err)
	if len(docs) != 1 || docs[0].Key != key {
		t.Fatalf("expected only %s, got %+v", key, docs)
	}

	_, err = NewService(failingStore{Store: store, failList: true}).Documents(ctx)
	if !errors.Is(err, domain.ErrIOFailure) {
		t.Fatalf("expected io failure, got %v", err)
	}
}

func TestMutations(t *testing.T) {
	ctx := context.Background()
	store, key := storeGraph(t, seedGraph(t))
	svc := NewService(store)
	_, err := svc.Load(ctx, key)
	must(t, "load", err)

	team, err := svc.SetTeamForfeitFinal(2, true)
	must(t, "forfeit final", err)
	if !team.Base().IsForfeitFinal {
		t.Fatalf("forfeit final not set")
	}
	if _, err := svc.SetTeamForfeit(99, true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	res, err := svc.SetResultForfeit(1, true)
	must(t, "result forfeit", err)
	if !res.Base().IsForfeit {
		t.Fatalf("result forfeit not set")
	}

	m, err := svc.UpdateRaceFormat(1, []domain.RaceFormatDetail{
		{Order: 2, Label: "Finale A", Level: domain.LevelFinalA, NumberOfHeats: 1, QualifiedCount: 8},
		{Order: 1, Label: "Séries", Level: domain.LevelSeries, NumberOfHeats: 2},
	})
	must(t, "race format", err)
	if len(m.Details) != 2 || m.Details[0].Order != 1 {
		t.Fatalf("details not ordered: %+v", m.Details)
	}
	if _, err := svc.UpdateRaceFormat(1, []domain.RaceFormatDetail{{Order: 1, Level: "semi"}}); !errors.Is(err, domain.ErrMalformedEntity) {
		t.Fatalf("expected malformed level, got %v", err)
	}

	added, err := svc.AddRaceCategory(100, 3)
	must(t, "add race category", err)
	if !added {
		t.Fatalf("expected new link")
	}
	removed, err := svc.RemoveRaceCategory(100, 3)
	must(t, "remove race category", err)
	if !removed {
		t.Fatalf("expected link removal")
	}
	if _, err := svc.AddRaceCategory(100, 99); !errors.Is(err, domain.ErrUnresolvedReference) {
		t.Fatalf("expected unresolved category, got %v", err)
	}
}

func TestServiceObservability(t *testing.T) {
	ctx := context.Background()
	logger := &captureLogger{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	clock := &stepClock{now: time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC), step: 5 * time.Millisecond}
	svc := NewService(blob.NewMemory(),
		WithLogger(logger), WithMetricsRecorder(metrics), WithTracer(tracer), WithClock(clock))

	_, err := svc.Initialize(ctx, seedBatch(t))
	must(t, "initialize", err)
	_, err = svc.Save(ctx)
	must(t, "save", err)
	_, _ = svc.Load(ctx, "missing/missing.ffss")

	if !metrics.has(OpInitialize, true) || !metrics.has(OpSave, true) || !metrics.has(OpLoad, false) {
		t.Fatalf("unexpected metrics %+v", metrics.calls)
	}
	for _, call := range metrics.calls {
		if call.duration != 5*time.Millisecond {
			t.Fatalf("expected clock-derived duration, got %v", call.duration)
		}
	}
	if len(tracer.ended) != 3 || tracer.ended[2].err == nil {
		t.Fatalf("unexpected spans %+v", tracer.ended)
	}
	if !logger.has("info", "competition loaded") || !logger.has("error", "core operation failed") {
		t.Fatalf("unexpected log entries %+v", logger.entries)
	}
}
