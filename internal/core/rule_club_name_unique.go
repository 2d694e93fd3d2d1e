package core

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/text/cases"

	"meetcore/pkg/domain"
)

// NewClubNameUniqueRule rejects graphs holding two clubs whose names differ
// only by letter case.
func NewClubNameUniqueRule() domain.Rule {
	return clubNameUniqueRule{fold: cases.Fold()}
}

type clubNameUniqueRule struct {
	fold cases.Caser
}

func (clubNameUniqueRule) Name() string { return "club_name_unique" }

func (r clubNameUniqueRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	seen := make(map[string]domain.Club)
	res := domain.Result{}
	for _, club := range view.Clubs() {
		key := r.fold.String(club.Name)
		if first, ok := seen[key]; ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "club_name_unique",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("club %d %q duplicates the name of club %d", club.ID, club.Name, first.ID),
				Entity:   domain.KindClub,
				EntityID: strconv.Itoa(club.ID),
			})
			continue
		}
		seen[key] = club
	}
	return res, nil
}
