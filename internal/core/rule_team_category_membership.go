package core

import (
	"context"
	"fmt"
	"strconv"

	"meetcore/pkg/domain"
)

// NewTeamCategoryMembershipRule warns about teams entered under a category
// their race is not open to.
func NewTeamCategoryMembershipRule() domain.Rule {
	return teamCategoryMembershipRule{}
}

type teamCategoryMembershipRule struct{}

func (teamCategoryMembershipRule) Name() string { return "team_category_membership" }

func (teamCategoryMembershipRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	open := make(map[int]map[int]bool)
	for _, team := range view.Teams() {
		b := team.Base()
		cats, ok := open[b.RaceID]
		if !ok {
			cats = make(map[int]bool)
			for _, c := range view.RaceCategories(b.RaceID) {
				cats[c.ID] = true
			}
			open[b.RaceID] = cats
		}
		if cats[b.CategoryID] {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "team_category_membership",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("team %d is entered in category %d which race %d is not open to", b.ID, b.CategoryID, b.RaceID),
			Entity:   domain.KindTeam,
			EntityID: strconv.Itoa(b.ID),
		})
	}
	return res, nil
}
