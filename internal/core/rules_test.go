package core

import (
	"context"
	"errors"
	"testing"

	"meetcore/internal/blob"
	"meetcore/pkg/domain"
)

func violationsOf(res domain.Result, rule string) []domain.Violation {
	var out []domain.Violation
	for _, v := range res.Violations {
		if v.Rule == rule {
			out = append(out, v)
		}
	}
	return out
}

func TestDefaultRulesEngineRegistration(t *testing.T) {
	want := []string{"club_name_unique", "duplicate_lane", "team_category_membership", "athlete_category_age", "referee_availability", "heat_capacity", "discipline_consistency"}
	got := NewDefaultRulesEngine().Rules()
	if len(got) != len(want) {
		t.Fatalf("expected %d rules, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rule %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestRulesOnSeedGraph(t *testing.T) {
	res, err := NewDefaultRulesEngine().Evaluate(context.Background(), seedGraph(t))
	must(t, "evaluate", err)
	if len(res.Violations) != 0 {
		t.Fatalf("expected no violations, got %+v", res.Violations)
	}
}

func TestRuleViolations(t *testing.T) {
	tests := []struct {
		name     string
		rule     domain.Rule
		mutate   func(t *testing.T, g *domain.Graph)
		severity domain.Severity
		entityID string
	}{
		{
			name: "club name differs only by case",
			rule: NewClubNameUniqueRule(),
			mutate: func(t *testing.T, g *domain.Graph) {
				added, err := g.AddClub(domain.Club{ID: 12, Name: "BREST sauvetage"})
				mustAdd(t, "club", added, err)
			},
			severity: domain.SeverityBlock,
			entityID: "12",
		},
		{
			name: "two results share a lane",
			rule: NewDuplicateLaneRule(),
			mutate: func(t *testing.T, g *domain.Graph) {
				_, err := g.UpdateHeatResult(2, func(b *domain.ResultBase) error {
					b.Lane = 3
					return nil
				})
				must(t, "lane", err)
			},
			severity: domain.SeverityBlock,
			entityID: "2",
		},
		{
			name: "team entered in a category the race is closed to",
			rule: NewTeamCategoryMembershipRule(),
			mutate: func(t *testing.T, g *domain.Graph) {
				team, err := domain.NewIndividualTeam(domain.TeamBase{ID: 4, RaceID: 100, CategoryID: 3}, "A2")
				must(t, "team", err)
				added, err := g.AddTeam(team)
				mustAdd(t, "team", added, err)
			},
			severity: domain.SeverityWarn,
			entityID: "4",
		},
		{
			name: "athlete too young for category",
			rule: NewAthleteCategoryAgeRule(),
			mutate: func(t *testing.T, g *domain.Graph) {
				_, err := g.SetAthleteCategory("A2", 7)
				must(t, "category", err)
			},
			severity: domain.SeverityWarn,
			entityID: "A2",
		},
		{
			name: "referee available after the competition",
			rule: NewRefereeAvailabilityRule(),
			mutate: func(t *testing.T, g *domain.Graph) {
				added, err := g.AddRefereeDate("R1", domain.RefereeDate{ID: 2, Date: day("2026-04-01")})
				mustAdd(t, "date", added, err)
			},
			severity: domain.SeverityWarn,
			entityID: "R1",
		},
		{
			name: "heat over discipline capacity",
			rule: NewHeatCapacityRule(),
			mutate: func(t *testing.T, g *domain.Graph) {
				for id := 10; id < 17; id++ {
					r, err := domain.NewSwimResult(domain.ResultBase{ID: id, HeatID: 1, TeamID: 1}, 0)
					must(t, "result", err)
					added, err := g.AddHeatResult(r)
					mustAdd(t, "result", added, err)
				}
			},
			severity: domain.SeverityWarn,
			entityID: "1",
		},
		{
			name: "beach discipline in a pool competition",
			rule: NewDisciplineConsistencyRule(),
			mutate: func(t *testing.T, g *domain.Graph) {
				race, err := domain.NewRace(300, "Beach Flags", domain.GenderMale, 10, 1)
				must(t, "race", err)
				added, err := g.AddRace(race)
				mustAdd(t, "race", added, err)
			},
			severity: domain.SeverityWarn,
			entityID: "300",
		},
		{
			name: "relay discipline run with single-athlete teams",
			rule: NewDisciplineConsistencyRule(),
			mutate: func(t *testing.T, g *domain.Graph) {
				race, err := domain.NewRace(301, "4x25m Mannequin", domain.GenderMixed, 20, 1)
				must(t, "race", err)
				added, err := g.AddRace(race)
				mustAdd(t, "race", added, err)
			},
			severity: domain.SeverityWarn,
			entityID: "301",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := seedGraph(t)
			before, err := tt.rule.Evaluate(context.Background(), g)
			must(t, "evaluate seed", err)
			if len(before.Violations) != 0 {
				t.Fatalf("seed already violates %s: %+v", tt.rule.Name(), before.Violations)
			}
			tt.mutate(t, g)
			res, err := tt.rule.Evaluate(context.Background(), g)
			must(t, "evaluate", err)
			got := violationsOf(res, tt.rule.Name())
			if len(got) != 1 {
				t.Fatalf("expected one violation, got %+v", res.Violations)
			}
			if got[0].Severity != tt.severity || got[0].EntityID != tt.entityID {
				t.Fatalf("unexpected violation %+v", got[0])
			}
		})
	}
}

func TestLaneZeroIsUnassigned(t *testing.T) {
	g := seedGraph(t)
	for _, id := range []int{1, 2} {
		_, err := g.UpdateHeatResult(id, func(b *domain.ResultBase) error {
			b.Lane = 0
			return nil
		})
		must(t, "lane", err)
	}
	res, err := NewDuplicateLaneRule().Evaluate(context.Background(), g)
	must(t, "evaluate", err)
	if len(res.Violations) != 0 {
		t.Fatalf("unassigned lanes must not collide: %+v", res.Violations)
	}
}

func TestBlockingViolationAbortsLoad(t *testing.T) {
	g := seedGraph(t)
	added, err := g.AddClub(domain.Club{ID: 12, Name: "quimper CÔTIER"})
	mustAdd(t, "club", added, err)
	store, key := storeGraph(t, g)

	svc := NewService(store)
	_, err = svc.Load(context.Background(), key)
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if violation.Result.Violations[0].Rule != "club_name_unique" {
		t.Fatalf("unexpected violations %+v", violation.Result.Violations)
	}
	if svc.Loaded() {
		t.Fatalf("rejected graph must not be held")
	}
}

func TestFailOnWarnings(t *testing.T) {
	batch := seedBatch(t)
	for _, l := range batch.Licensees {
		if a, ok := l.(*domain.Athlete); ok && a.ID == "A2" {
			a.CategoryID = 7
		}
	}

	lenient := NewService(blob.NewMemory())
	res, err := lenient.Initialize(context.Background(), batch)
	must(t, "lenient initialize", err)
	if len(violationsOf(res, "athlete_category_age")) != 1 {
		t.Fatalf("expected age warning, got %+v", res.Violations)
	}
	if len(lenient.LastResult().Violations) != 1 {
		t.Fatalf("last result not retained")
	}

	strict := NewService(blob.NewMemory(), WithFailOnWarnings(true))
	_, err = strict.Initialize(context.Background(), batch)
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) || violation.Result.Violations[0].Severity != domain.SeverityBlock {
		t.Fatalf("expected promoted warning, got %v", err)
	}
	if strict.Loaded() {
		t.Fatalf("strict service must stay empty")
	}
}

func TestValidateReportsWithoutError(t *testing.T) {
	ctx := context.Background()
	svc := NewService(blob.NewMemory())
	_, err := svc.Initialize(ctx, seedBatch(t))
	must(t, "initialize", err)
	_, err = svc.SetTeamForfeit(1, true)
	must(t, "forfeit", err)
	res, err := svc.Validate(ctx)
	must(t, "validate", err)
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations %+v", res.Violations)
	}
}

func TestCustomRulesEngine(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(NewClubNameUniqueRule())
	svc := NewService(blob.NewMemory(), WithRulesEngine(engine))
	if got := svc.RulesEngine().Rules(); len(got) != 1 || got[0] != "club_name_unique" {
		t.Fatalf("custom engine not used: %v", got)
	}
}

func TestEvaluateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewDefaultRulesEngine().Evaluate(ctx, seedGraph(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
