package core

import "meetcore/pkg/domain"

// Rule, RulesEngine and RuleView are re-exported for callers composing
// their own rule sets.
type (
	Rule        = domain.Rule
	RulesEngine = domain.RulesEngine
	RuleView    = domain.RuleView
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewClubNameUniqueRule())
	engine.Register(NewDuplicateLaneRule())
	engine.Register(NewTeamCategoryMembershipRule())
	engine.Register(NewAthleteCategoryAgeRule())
	engine.Register(NewRefereeAvailabilityRule())
	engine.Register(NewHeatCapacityRule())
	engine.Register(NewDisciplineConsistencyRule())
	return engine
}
