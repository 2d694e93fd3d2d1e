package core

import (
	"context"
	"fmt"

	"meetcore/pkg/domain"
)

// NewAthleteCategoryAgeRule warns when an athlete's age in the competition
// year falls outside the bounds of their category.
func NewAthleteCategoryAgeRule() domain.Rule {
	return athleteCategoryAgeRule{}
}

type athleteCategoryAgeRule struct{}

func (athleteCategoryAgeRule) Name() string { return "athlete_category_age" }

func (athleteCategoryAgeRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	comp, ok := view.Competition()
	if !ok {
		return res, nil
	}
	year := comp.BeginDate.Year()
	for _, a := range view.Athletes() {
		if a.BirthYear == 0 {
			continue
		}
		cat, ok := view.Category(a.CategoryID)
		if !ok {
			continue
		}
		age := year - a.BirthYear
		if cat.Accepts(age) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "athlete_category_age",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("athlete %s is %d in %d, outside category %s [%d-%d]", a.FullName(), age, year, cat.Name, cat.AgeMin, cat.AgeMax),
			Entity:   domain.KindAthlete,
			EntityID: a.ID,
		})
	}
	return res, nil
}
