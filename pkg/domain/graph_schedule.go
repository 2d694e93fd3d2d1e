package domain

import (
	"fmt"
	"slices"
)

func cloneMeeting(m MeetingElement) MeetingElement {
	m.Details = slices.Clone(m.Details)
	return m
}

// AddMeetingElement inserts a meeting element. An id already present is not added.
func (g *Graph) AddMeetingElement(m MeetingElement) (bool, error) {
	m = cloneMeeting(m)
	if err := m.validate(); err != nil {
		return false, err
	}
	return g.meetings.add(m.ID, m), nil
}

// MeetingElement returns a copy of the meeting element with id.
func (g *Graph) MeetingElement(id int) (MeetingElement, bool) {
	m, ok := g.meetings.get(id)
	if !ok {
		return MeetingElement{}, false
	}
	return cloneMeeting(m), true
}

// MeetingElements returns copies of every meeting element in insertion order.
func (g *Graph) MeetingElements() []MeetingElement {
	out := make([]MeetingElement, 0, g.meetings.len())
	g.meetings.each(func(m MeetingElement) { out = append(out, cloneMeeting(m)) })
	return out
}

// UpdateMeetingElement mutates a meeting element; the id cannot change.
func (g *Graph) UpdateMeetingElement(id int, mutator func(*MeetingElement) error) (MeetingElement, error) {
	current, ok := g.meetings.get(id)
	if !ok {
		return MeetingElement{}, notFound(KindMeetingElement, intID(id))
	}
	next := cloneMeeting(current)
	if err := mutator(&next); err != nil {
		return MeetingElement{}, err
	}
	if next.ID != id {
		return MeetingElement{}, malformed(KindMeetingElement, intID(id), "ID", errImmutable)
	}
	if err := next.validate(); err != nil {
		return MeetingElement{}, err
	}
	g.meetings.set(id, next)
	return cloneMeeting(next), nil
}

// AddMeetingCategory links a meeting element and a category on both sides.
func (g *Graph) AddMeetingCategory(meetingID, categoryID int) (bool, error) {
	if !g.meetings.has(meetingID) {
		return false, unresolved(KindMeetingElement, intID(meetingID))
	}
	if !g.categories.has(categoryID) {
		return false, unresolved(KindCategory, intID(categoryID))
	}
	return g.meetingCategories.link(meetingID, categoryID), nil
}

// RemoveMeetingCategory unlinks a meeting element and a category on both sides.
func (g *Graph) RemoveMeetingCategory(meetingID, categoryID int) (bool, error) {
	if !g.meetings.has(meetingID) {
		return false, unresolved(KindMeetingElement, intID(meetingID))
	}
	return g.meetingCategories.unlink(meetingID, categoryID), nil
}

// MeetingCategories returns the categories of a meeting element in link order.
func (g *Graph) MeetingCategories(meetingID int) []Category {
	var out []Category
	for _, id := range g.meetingCategories.targets(meetingID) {
		if c, ok := g.categories.get(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// MeetingRounds returns the rounds of a meeting element.
func (g *Graph) MeetingRounds(meetingID int) []Round {
	var out []Round
	for _, id := range g.meetingRounds.targets(meetingID) {
		if r, ok := g.Round(id); ok {
			out = append(out, r)
		}
	}
	return out
}

// AddRound inserts a round under its meeting element and optional category.
func (g *Graph) AddRound(r Round) (bool, error) {
	if _, err := NewRound(r.ID, r.MeetingElementID, r.CategoryID, r.Name, r.Order); err != nil {
		return false, err
	}
	if g.rounds.has(r.ID) {
		return false, nil
	}
	if !g.meetings.has(r.MeetingElementID) {
		return false, unresolved(KindMeetingElement, intID(r.MeetingElementID))
	}
	if r.CategoryID != nil && !g.categories.has(*r.CategoryID) {
		return false, unresolved(KindCategory, intID(*r.CategoryID))
	}
	r = cloneRound(r)
	g.rounds.add(r.ID, r)
	g.meetingRounds.link(r.MeetingElementID, r.ID)
	if r.CategoryID != nil {
		g.categoryRounds.link(*r.CategoryID, r.ID)
	}
	return true, nil
}

// Round returns a copy of the round with id.
func (g *Graph) Round(id int) (Round, bool) {
	r, ok := g.rounds.get(id)
	if !ok {
		return Round{}, false
	}
	return cloneRound(r), true
}

// Rounds returns copies of every round in insertion order.
func (g *Graph) Rounds() []Round {
	out := make([]Round, 0, g.rounds.len())
	g.rounds.each(func(r Round) { out = append(out, cloneRound(r)) })
	return out
}

// RoundHeats returns the heats of a round.
func (g *Graph) RoundHeats(roundID int) []Heat {
	var out []Heat
	for _, id := range g.roundHeats.targets(roundID) {
		if h, ok := g.heats.get(id); ok {
			out = append(out, h)
		}
	}
	return out
}

// AddHeat inserts a heat under its round.
func (g *Graph) AddHeat(h Heat) (bool, error) {
	if _, err := NewHeat(h.ID, h.RoundID, h.Number); err != nil {
		return false, err
	}
	if g.heats.has(h.ID) {
		return false, nil
	}
	if !g.rounds.has(h.RoundID) {
		return false, unresolved(KindRound, intID(h.RoundID))
	}
	g.heats.add(h.ID, h)
	g.roundHeats.link(h.RoundID, h.ID)
	return true, nil
}

// Heat returns the heat with id.
func (g *Graph) Heat(id int) (Heat, bool) {
	return g.heats.get(id)
}

// Heats returns every heat in insertion order.
func (g *Graph) Heats() []Heat {
	return append([]Heat(nil), g.heats.items...)
}

// AddHeatResult inserts a result after resolving its heat and team.
func (g *Graph) AddHeatResult(r HeatResult) (bool, error) {
	if err := validateResult(r); err != nil {
		return false, err
	}
	base := r.Base()
	if g.results.has(base.ID) {
		return false, nil
	}
	if !g.heats.has(base.HeatID) {
		return false, unresolved(KindHeat, intID(base.HeatID))
	}
	if !g.teams.has(base.TeamID) {
		return false, unresolved(KindTeam, intID(base.TeamID))
	}
	g.results.add(base.ID, r.cloneResult())
	g.heatResults.link(base.HeatID, base.ID)
	g.teamResults.link(base.TeamID, base.ID)
	return true, nil
}

func validateResult(r HeatResult) error {
	switch v := r.(type) {
	case *SwimResult:
		if v == nil {
			break
		}
		_, err := NewSwimResult(v.ResultBase, v.Time)
		return err
	case *BeachResult:
		if v == nil {
			break
		}
		_, err := NewBeachResult(v.ResultBase, v.Position)
		return err
	}
	return malformed(KindHeatResult, "", "Type", fmt.Errorf("unsupported heat result %T", r))
}

// HeatResult returns a copy of the result with id.
func (g *Graph) HeatResult(id int) (HeatResult, bool) {
	r, ok := g.results.get(id)
	if !ok {
		return nil, false
	}
	return r.cloneResult(), true
}

// HeatResults returns copies of every result in insertion order.
func (g *Graph) HeatResults() []HeatResult {
	out := make([]HeatResult, 0, g.results.len())
	g.results.each(func(r HeatResult) { out = append(out, r.cloneResult()) })
	return out
}

// HeatResultsOf returns copies of the results recorded in a heat.
func (g *Graph) HeatResultsOf(heatID int) []HeatResult {
	return g.resultsByID(g.heatResults.targets(heatID))
}

// TeamResults returns copies of the results recorded for a team.
func (g *Graph) TeamResults(teamID int) []HeatResult {
	return g.resultsByID(g.teamResults.targets(teamID))
}

func (g *Graph) resultsByID(ids []int) []HeatResult {
	var out []HeatResult
	for _, id := range ids {
		if r, ok := g.results.get(id); ok {
			out = append(out, r.cloneResult())
		}
	}
	return out
}

// UpdateHeatResult mutates the shared result fields (lane, disqualification,
// forfeit). The id, heat, and team cannot change.
func (g *Graph) UpdateHeatResult(id int, mutator func(*ResultBase) error) (HeatResult, error) {
	current, ok := g.results.get(id)
	if !ok {
		return nil, notFound(KindHeatResult, intID(id))
	}
	next := current.cloneResult()
	before := next.Base()
	if err := mutator(next.result()); err != nil {
		return nil, err
	}
	after := next.Base()
	switch {
	case after.ID != before.ID:
		return nil, malformed(KindHeatResult, intID(id), "ID", errImmutable)
	case after.HeatID != before.HeatID:
		return nil, malformed(KindHeatResult, intID(id), "HeatId", errImmutable)
	case after.TeamID != before.TeamID:
		return nil, malformed(KindHeatResult, intID(id), "TeamId", errImmutable)
	}
	if err := after.validate(); err != nil {
		return nil, err
	}
	g.results.set(id, next)
	return next.cloneResult(), nil
}

// RemoveHeatResult removes a result from its heat and team.
func (g *Graph) RemoveHeatResult(id int) bool {
	r, ok := g.results.get(id)
	if !ok {
		return false
	}
	base := r.Base()
	g.heatResults.unlink(base.HeatID, id)
	g.teamResults.unlink(base.TeamID, id)
	g.results.remove(id)
	return true
}
