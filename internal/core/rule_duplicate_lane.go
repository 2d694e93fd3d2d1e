package core

import (
	"context"
	"fmt"
	"strconv"

	"meetcore/pkg/domain"
)

// NewDuplicateLaneRule rejects heats assigning the same lane twice. Lane 0
// means unassigned and is ignored.
func NewDuplicateLaneRule() domain.Rule {
	return duplicateLaneRule{}
}

type duplicateLaneRule struct{}

func (duplicateLaneRule) Name() string { return "duplicate_lane" }

func (duplicateLaneRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for _, heat := range view.Heats() {
		lanes := make(map[int]int)
		for _, r := range view.HeatResultsOf(heat.ID) {
			b := r.Base()
			if b.Lane == 0 {
				continue
			}
			if other, ok := lanes[b.Lane]; ok {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "duplicate_lane",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("heat %d lane %d holds results %d and %d", heat.ID, b.Lane, other, b.ID),
					Entity:   domain.KindHeatResult,
					EntityID: strconv.Itoa(b.ID),
				})
				continue
			}
			lanes[b.Lane] = b.ID
		}
	}
	return res, nil
}
