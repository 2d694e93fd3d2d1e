package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"meetcore/pkg/discipline"
	"meetcore/pkg/domain"
)

// NewDisciplineConsistencyRule warns when a race's team size or the
// competition's speciality disagrees with the race's discipline.
func NewDisciplineConsistencyRule() domain.Rule {
	return disciplineConsistencyRule{}
}

type disciplineConsistencyRule struct{}

func (disciplineConsistencyRule) Name() string { return "discipline_consistency" }

func (disciplineConsistencyRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	comp, hasComp := view.Competition()
	res := domain.Result{}
	for _, race := range view.Races() {
		d, err := discipline.Describe(race.Discipline)
		if err != nil {
			return domain.Result{}, err
		}
		var problems []string
		if d.Relay != race.IsRelay() {
			kind := "an individual"
			if d.Relay {
				kind = "a relay"
			}
			problems = append(problems, fmt.Sprintf("team size %d for %s discipline", race.TeamSize, kind))
		}
		if hasComp && comp.Speciality != "" && d.Speciality != comp.Speciality {
			problems = append(problems, fmt.Sprintf("%s discipline in a %s competition", d.Speciality, comp.Speciality))
		}
		if len(problems) == 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "discipline_consistency",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("race %s (%s): %s", race.Name, d.Name, strings.Join(problems, "; ")),
			Entity:   domain.KindRace,
			EntityID: strconv.Itoa(race.ID),
		})
	}
	return res, nil
}
