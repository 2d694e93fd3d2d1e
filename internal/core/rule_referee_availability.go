package core

import (
	"context"
	"fmt"
	"time"

	"meetcore/pkg/domain"
)

// NewRefereeAvailabilityRule warns about availability dates outside the
// competition date range.
func NewRefereeAvailabilityRule() domain.Rule {
	return refereeAvailabilityRule{}
}

type refereeAvailabilityRule struct{}

func (refereeAvailabilityRule) Name() string { return "referee_availability" }

func (refereeAvailabilityRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	comp, ok := view.Competition()
	if !ok {
		return res, nil
	}
	for _, ref := range view.Referees() {
		for _, d := range ref.Dates {
			if !d.Date.Before(comp.BeginDate) && !d.Date.After(comp.EndDate) {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "referee_availability",
				Severity: domain.SeverityWarn,
				Message: fmt.Sprintf("referee %s is available on %s, outside %s to %s", ref.FullName(),
					d.Date.Format(time.DateOnly), comp.BeginDate.Format(time.DateOnly), comp.EndDate.Format(time.DateOnly)),
				Entity:   domain.KindReferee,
				EntityID: ref.ID,
			})
		}
	}
	return res, nil
}
