package domain

import (
	"fmt"
	"slices"
)

// AddRace inserts a race, recomputing its discipline limits. An id already
// present is not added.
func (g *Graph) AddRace(r Race) (bool, error) {
	if err := r.validate(); err != nil {
		return false, err
	}
	return g.races.add(r.ID, r), nil
}

// Race returns the race with id.
func (g *Graph) Race(id int) (Race, bool) {
	return g.races.get(id)
}

// Races returns every race in insertion order.
func (g *Graph) Races() []Race {
	return append([]Race(nil), g.races.items...)
}

// UpdateRace mutates a race and recomputes its limits. The id cannot change,
// and a new team size must still fit every entered team.
func (g *Graph) UpdateRace(id int, mutator func(*Race) error) (Race, error) {
	current, ok := g.races.get(id)
	if !ok {
		return Race{}, notFound(KindRace, intID(id))
	}
	if err := mutator(&current); err != nil {
		return Race{}, err
	}
	if current.ID != id {
		return Race{}, malformed(KindRace, intID(id), "ID", errImmutable)
	}
	if err := current.validate(); err != nil {
		return Race{}, err
	}
	for _, teamID := range g.raceTeams.targets(id) {
		t, _ := g.teams.get(teamID)
		if err := fitsRace(t, current); err != nil {
			return Race{}, err
		}
	}
	g.races.set(id, current)
	return current, nil
}

// AddRaceCategory links a race and a category on both sides. Linking an
// existing pair returns false.
func (g *Graph) AddRaceCategory(raceID, categoryID int) (bool, error) {
	if !g.races.has(raceID) {
		return false, unresolved(KindRace, intID(raceID))
	}
	if !g.categories.has(categoryID) {
		return false, unresolved(KindCategory, intID(categoryID))
	}
	return g.raceCategories.link(raceID, categoryID), nil
}

// RemoveRaceCategory unlinks a race and a category on both sides.
func (g *Graph) RemoveRaceCategory(raceID, categoryID int) (bool, error) {
	if !g.races.has(raceID) {
		return false, unresolved(KindRace, intID(raceID))
	}
	return g.raceCategories.unlink(raceID, categoryID), nil
}

// RaceCategories returns the categories of the race in link order.
func (g *Graph) RaceCategories(raceID int) []Category {
	var out []Category
	for _, id := range g.raceCategories.targets(raceID) {
		if c, ok := g.categories.get(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// RaceTeams returns copies of the teams entered in the race.
func (g *Graph) RaceTeams(raceID int) []Team {
	var out []Team
	for _, id := range g.raceTeams.targets(raceID) {
		if t, ok := g.Team(id); ok {
			out = append(out, t)
		}
	}
	return out
}

// AddTeam inserts a team after resolving its race, category, and athletes.
// Individual teams require a race of team size 1; relay teams require a relay
// race and at most TeamSize athletes. An id already present is not added.
func (g *Graph) AddTeam(t Team) (bool, error) {
	if err := validateTeam(t); err != nil {
		return false, err
	}
	base := t.Base()
	if g.teams.has(base.ID) {
		return false, nil
	}
	race, ok := g.races.get(base.RaceID)
	if !ok {
		return false, unresolved(KindRace, intID(base.RaceID))
	}
	if !g.categories.has(base.CategoryID) {
		return false, unresolved(KindCategory, intID(base.CategoryID))
	}
	members := t.Members()
	for _, athleteID := range members {
		if _, ok := g.Athlete(athleteID); !ok {
			return false, unresolved(KindAthlete, athleteID)
		}
	}
	if err := fitsRace(t, race); err != nil {
		return false, err
	}
	g.teams.add(base.ID, t.cloneTeam())
	g.raceTeams.link(base.RaceID, base.ID)
	for _, athleteID := range members {
		g.athleteTeams.link(athleteID, base.ID)
	}
	return true, nil
}

func validateTeam(t Team) error {
	switch v := t.(type) {
	case *IndividualTeam:
		if v == nil {
			break
		}
		_, err := NewIndividualTeam(v.TeamBase, v.AthleteID)
		return err
	case *RelayTeam:
		if v == nil {
			break
		}
		_, err := NewRelayTeam(v.TeamBase, v.AthleteIDs)
		return err
	}
	return malformed(KindTeam, "", "Type", fmt.Errorf("unsupported team %T", t))
}

func fitsRace(t Team, race Race) error {
	base := t.Base()
	switch v := t.(type) {
	case *IndividualTeam:
		if race.TeamSize != 1 {
			return malformed(KindTeam, intID(base.ID), "Type", fmt.Errorf("individual team in race %d of team size %d", race.ID, race.TeamSize))
		}
	case *RelayTeam:
		if race.TeamSize < 2 {
			return malformed(KindTeam, intID(base.ID), "Type", fmt.Errorf("relay team in individual race %d", race.ID))
		}
		if len(v.AthleteIDs) > race.TeamSize {
			return malformed(KindTeam, intID(base.ID), "AthleteIds", fmt.Errorf("%d athletes exceed team size %d of race %d", len(v.AthleteIDs), race.TeamSize, race.ID))
		}
	}
	return nil
}

// Team returns a copy of the team with id.
func (g *Graph) Team(id int) (Team, bool) {
	t, ok := g.teams.get(id)
	if !ok {
		return nil, false
	}
	return t.cloneTeam(), true
}

// Teams returns copies of every team in insertion order.
func (g *Graph) Teams() []Team {
	out := make([]Team, 0, g.teams.len())
	g.teams.each(func(t Team) { out = append(out, t.cloneTeam()) })
	return out
}

// UpdateTeam mutates the shared team fields (entry time, forfeits). The id,
// race, and category cannot change.
func (g *Graph) UpdateTeam(id int, mutator func(*TeamBase) error) (Team, error) {
	current, ok := g.teams.get(id)
	if !ok {
		return nil, notFound(KindTeam, intID(id))
	}
	next := current.cloneTeam()
	before := next.Base()
	if err := mutator(next.team()); err != nil {
		return nil, err
	}
	after := next.Base()
	switch {
	case after.ID != before.ID:
		return nil, malformed(KindTeam, intID(id), "ID", errImmutable)
	case after.RaceID != before.RaceID:
		return nil, malformed(KindTeam, intID(id), "RaceId", errImmutable)
	case after.CategoryID != before.CategoryID:
		return nil, malformed(KindTeam, intID(id), "CategoryId", errImmutable)
	}
	if err := after.validate(); err != nil {
		return nil, err
	}
	g.teams.set(id, next)
	return next.cloneTeam(), nil
}

// SetRelayAthletes replaces the legs of a relay team, relinking athletes.
func (g *Graph) SetRelayAthletes(teamID int, athleteIDs []string) error {
	current, ok := g.teams.get(teamID)
	if !ok {
		return notFound(KindTeam, intID(teamID))
	}
	relay, ok := current.(*RelayTeam)
	if !ok {
		return malformed(KindTeam, intID(teamID), "Type", fmt.Errorf("not a relay team"))
	}
	if err := validateLegs(teamID, athleteIDs); err != nil {
		return err
	}
	for _, athleteID := range athleteIDs {
		if _, ok := g.Athlete(athleteID); !ok {
			return unresolved(KindAthlete, athleteID)
		}
	}
	race, _ := g.races.get(relay.RaceID)
	candidate := &RelayTeam{TeamBase: relay.TeamBase, AthleteIDs: athleteIDs}
	if err := fitsRace(candidate, race); err != nil {
		return err
	}
	for _, old := range relay.AthleteIDs {
		g.athleteTeams.unlink(old, teamID)
	}
	relay.AthleteIDs = slices.Clone(athleteIDs)
	for _, athleteID := range relay.AthleteIDs {
		g.athleteTeams.link(athleteID, teamID)
	}
	return nil
}

// RemoveTeam removes a team that no heat result references.
func (g *Graph) RemoveTeam(id int) (bool, error) {
	t, ok := g.teams.get(id)
	if !ok {
		return false, nil
	}
	if len(g.teamResults.targets(id)) > 0 {
		return false, ReferencedError{Kind: KindTeam, ID: intID(id), By: KindHeatResult}
	}
	g.raceTeams.unlink(t.Base().RaceID, id)
	for _, athleteID := range t.Members() {
		g.athleteTeams.unlink(athleteID, id)
	}
	g.teams.remove(id)
	return true, nil
}

// AthleteTeams returns copies of the teams the athlete belongs to.
func (g *Graph) AthleteTeams(athleteID string) []Team {
	var out []Team
	for _, id := range g.athleteTeams.targets(athleteID) {
		if t, ok := g.Team(id); ok {
			out = append(out, t)
		}
	}
	return out
}

// TeamClub returns the club a team represents. A relay is attributed to the
// club of its first athlete.
func (g *Graph) TeamClub(teamID int) (Club, bool) {
	t, ok := g.teams.get(teamID)
	if !ok {
		return Club{}, false
	}
	members := t.Members()
	if len(members) == 0 {
		return Club{}, false
	}
	l, ok := g.licensees.get(members[0])
	if !ok {
		return Club{}, false
	}
	return g.clubs.get(l.Base().ClubID)
}
