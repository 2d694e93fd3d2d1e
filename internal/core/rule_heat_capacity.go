package core

import (
	"context"
	"fmt"
	"strconv"

	"meetcore/pkg/domain"
)

// NewHeatCapacityRule warns when a heat holds more results than its race's
// discipline allows and the discipline cannot exceed that cap.
func NewHeatCapacityRule() domain.Rule {
	return heatCapacityRule{}
}

type heatCapacityRule struct{}

func (heatCapacityRule) Name() string { return "heat_capacity" }

func (heatCapacityRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	raceOf := make(map[int]int)
	for _, t := range view.Teams() {
		raceOf[t.Base().ID] = t.Base().RaceID
	}
	res := domain.Result{}
	for _, heat := range view.Heats() {
		results := view.HeatResultsOf(heat.ID)
		if len(results) == 0 {
			continue
		}
		race, ok := view.Race(raceOf[results[0].Base().TeamID])
		if !ok || race.CanExceedMaxAthleteAllowed() || race.MaxAthleteAllowed() <= 0 {
			continue
		}
		if len(results) <= race.MaxAthleteAllowed() {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "heat_capacity",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("heat %d of race %s holds %d entries, limit %d", heat.ID, race.Name, len(results), race.MaxAthleteAllowed()),
			Entity:   domain.KindHeat,
			EntityID: strconv.Itoa(heat.ID),
		})
	}
	return res, nil
}
