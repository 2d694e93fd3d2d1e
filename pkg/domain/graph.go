package domain

import (
	"fmt"
)

// Graph owns every entity of one competition. Entities live in per-kind
// arenas keyed by id; links between kinds live in bidirectional relation
// indexes that are always updated on both sides within one call.
//
// Graph is not safe for concurrent use.
type Graph struct {
	competition *Competition

	categories arena[int, Category]
	clubs      arena[int, Club]
	licensees  arena[string, Licensee]
	races      arena[int, Race]
	teams      arena[int, Team]
	meetings   arena[int, MeetingElement]
	rounds     arena[int, Round]
	heats      arena[int, Heat]
	results    arena[int, HeatResult]

	clubLicensees     relation[int, string]
	categoryAthletes  relation[int, string]
	raceCategories    relation[int, int]
	meetingCategories relation[int, int]
	raceTeams         relation[int, int]
	athleteTeams      relation[string, int]
	meetingRounds     relation[int, int]
	categoryRounds    relation[int, int]
	roundHeats        relation[int, int]
	heatResults       relation[int, int]
	teamResults       relation[int, int]
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		categories:        newArena[int, Category](),
		clubs:             newArena[int, Club](),
		licensees:         newArena[string, Licensee](),
		races:             newArena[int, Race](),
		teams:             newArena[int, Team](),
		meetings:          newArena[int, MeetingElement](),
		rounds:            newArena[int, Round](),
		heats:             newArena[int, Heat](),
		results:           newArena[int, HeatResult](),
		clubLicensees:     newRelation[int, string](),
		categoryAthletes:  newRelation[int, string](),
		raceCategories:    newRelation[int, int](),
		meetingCategories: newRelation[int, int](),
		raceTeams:         newRelation[int, int](),
		athleteTeams:      newRelation[string, int](),
		meetingRounds:     newRelation[int, int](),
		categoryRounds:    newRelation[int, int](),
		roundHeats:        newRelation[int, int](),
		heatResults:       newRelation[int, int](),
		teamResults:       newRelation[int, int](),
	}
}

// Counts summarises the size of each collection.
type Counts struct {
	Categories      int
	Clubs           int
	Athletes        int
	Referees        int
	Races           int
	Teams           int
	MeetingElements int
	Rounds          int
	Heats           int
	HeatResults     int
}

// Counts returns the number of entities per kind.
func (g *Graph) Counts() Counts {
	c := Counts{
		Categories:      g.categories.len(),
		Clubs:           g.clubs.len(),
		Races:           g.races.len(),
		Teams:           g.teams.len(),
		MeetingElements: g.meetings.len(),
		Rounds:          g.rounds.len(),
		Heats:           g.heats.len(),
		HeatResults:     g.results.len(),
	}
	g.licensees.each(func(l Licensee) {
		switch l.(type) {
		case *Athlete:
			c.Athletes++
		case *Referee:
			c.Referees++
		}
	})
	return c
}

// IsEmpty reports whether the graph holds neither a competition nor any entity.
func (g *Graph) IsEmpty() bool {
	return g.competition == nil && g.Counts() == Counts{}
}

// SetCompetition installs the root record.
func (g *Graph) SetCompetition(c Competition) error {
	valid, err := NewCompetition(c.ID, c.Name, c.Location, c.BeginDate, c.EndDate, c.Speciality)
	if err != nil {
		return err
	}
	g.competition = &valid
	return nil
}

// Competition returns the root record.
func (g *Graph) Competition() (Competition, bool) {
	if g.competition == nil {
		return Competition{}, false
	}
	return *g.competition, true
}

// UpdateCompetition mutates the root record; the id cannot change.
func (g *Graph) UpdateCompetition(mutator func(*Competition) error) (Competition, error) {
	if g.competition == nil {
		return Competition{}, notFound(KindCompetition, "")
	}
	cp := *g.competition
	if err := mutator(&cp); err != nil {
		return Competition{}, err
	}
	if cp.ID != g.competition.ID {
		return Competition{}, malformed(KindCompetition, intID(g.competition.ID), "ID", errImmutable)
	}
	if err := g.SetCompetition(cp); err != nil {
		return Competition{}, err
	}
	return *g.competition, nil
}

// AddCategory inserts a category. An id already present is not added.
func (g *Graph) AddCategory(c Category) (bool, error) {
	if _, err := NewCategory(c.ID, c.Name, c.AgeMin, c.AgeMax); err != nil {
		return false, err
	}
	return g.categories.add(c.ID, c), nil
}

// Category returns the category with id.
func (g *Graph) Category(id int) (Category, bool) {
	return g.categories.get(id)
}

// Categories returns every category in insertion order.
func (g *Graph) Categories() []Category {
	return append([]Category(nil), g.categories.items...)
}

// UpdateCategory mutates a category; the id cannot change.
func (g *Graph) UpdateCategory(id int, mutator func(*Category) error) (Category, error) {
	current, ok := g.categories.get(id)
	if !ok {
		return Category{}, notFound(KindCategory, intID(id))
	}
	if err := mutator(&current); err != nil {
		return Category{}, err
	}
	if current.ID != id {
		return Category{}, malformed(KindCategory, intID(id), "ID", errImmutable)
	}
	if _, err := NewCategory(current.ID, current.Name, current.AgeMin, current.AgeMax); err != nil {
		return Category{}, err
	}
	g.categories.set(id, current)
	return current, nil
}

// CategoryRaces returns the races listing the category, in link order.
func (g *Graph) CategoryRaces(categoryID int) []Race {
	var out []Race
	for _, id := range g.raceCategories.sources(categoryID) {
		if r, ok := g.races.get(id); ok {
			out = append(out, r)
		}
	}
	return out
}

// CategoryAthletes returns the athletes of the category.
func (g *Graph) CategoryAthletes(categoryID int) []*Athlete {
	var out []*Athlete
	for _, id := range g.categoryAthletes.targets(categoryID) {
		if a, ok := g.Athlete(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// CategoryMeetingElements returns the meeting elements listing the category.
func (g *Graph) CategoryMeetingElements(categoryID int) []MeetingElement {
	var out []MeetingElement
	for _, id := range g.meetingCategories.sources(categoryID) {
		if m, ok := g.MeetingElement(id); ok {
			out = append(out, m)
		}
	}
	return out
}

// CategoryRounds returns the rounds restricted to the category.
func (g *Graph) CategoryRounds(categoryID int) []Round {
	var out []Round
	for _, id := range g.categoryRounds.targets(categoryID) {
		if r, ok := g.Round(id); ok {
			out = append(out, r)
		}
	}
	return out
}

// AddClub inserts a club. An id already present is not added.
func (g *Graph) AddClub(c Club) (bool, error) {
	if _, err := NewClub(c.ID, c.Name); err != nil {
		return false, err
	}
	return g.clubs.add(c.ID, c), nil
}

// Club returns the club with id.
func (g *Graph) Club(id int) (Club, bool) {
	return g.clubs.get(id)
}

// Clubs returns every club in insertion order.
func (g *Graph) Clubs() []Club {
	return append([]Club(nil), g.clubs.items...)
}

// UpdateClub mutates a club; the id cannot change.
func (g *Graph) UpdateClub(id int, mutator func(*Club) error) (Club, error) {
	current, ok := g.clubs.get(id)
	if !ok {
		return Club{}, notFound(KindClub, intID(id))
	}
	if err := mutator(&current); err != nil {
		return Club{}, err
	}
	if current.ID != id {
		return Club{}, malformed(KindClub, intID(id), "ID", errImmutable)
	}
	if _, err := NewClub(current.ID, current.Name); err != nil {
		return Club{}, err
	}
	g.clubs.set(id, current)
	return current, nil
}

// ClubLicensees returns the licensees of the club in insertion order.
func (g *Graph) ClubLicensees(clubID int) []Licensee {
	var out []Licensee
	for _, id := range g.clubLicensees.targets(clubID) {
		if l, ok := g.Licensee(id); ok {
			out = append(out, l)
		}
	}
	return out
}

// AddLicensee inserts an athlete or referee and links it to its club (and,
// for athletes, its category). An id already present is not added.
func (g *Graph) AddLicensee(l Licensee) (bool, error) {
	if l == nil {
		return false, malformed(KindLicensee, "", "Type", errRequired)
	}
	l, err := normalizeLicensee(l)
	if err != nil {
		return false, err
	}
	p := l.Base()
	if g.licensees.has(p.ID) {
		return false, nil
	}
	if !g.clubs.has(p.ClubID) {
		return false, unresolved(KindClub, intID(p.ClubID))
	}
	athlete, isAthlete := l.(*Athlete)
	if isAthlete && !g.categories.has(athlete.CategoryID) {
		return false, unresolved(KindCategory, intID(athlete.CategoryID))
	}
	g.licensees.add(p.ID, l)
	g.clubLicensees.link(p.ClubID, p.ID)
	if isAthlete {
		g.categoryAthletes.link(athlete.CategoryID, p.ID)
	}
	return true, nil
}

// normalizeLicensee validates l and returns a detached copy holding canonical
// values.
func normalizeLicensee(l Licensee) (Licensee, error) {
	switch v := l.(type) {
	case *Athlete:
		if v == nil {
			return nil, malformed(KindAthlete, "", "ID", errRequired)
		}
		a, err := NewAthlete(v.Person, v.CategoryID)
		if err != nil {
			return nil, err
		}
		return a, nil
	case *Referee:
		if v == nil {
			return nil, malformed(KindReferee, "", "ID", errRequired)
		}
		r, err := NewReferee(v.Person, v.Level, v.Dates...)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, malformed(KindLicensee, "", "Type", fmt.Errorf("unsupported licensee %T", l))
}

// Licensee returns a copy of the licensee with id.
func (g *Graph) Licensee(id string) (Licensee, bool) {
	l, ok := g.licensees.get(id)
	if !ok {
		return nil, false
	}
	return l.cloneLicensee(), true
}

// Athlete returns a copy of the athlete with id; referees are not returned.
func (g *Graph) Athlete(id string) (*Athlete, bool) {
	l, ok := g.licensees.get(id)
	if !ok {
		return nil, false
	}
	a, ok := l.(*Athlete)
	if !ok {
		return nil, false
	}
	cp := *a
	return &cp, true
}

// Licensees returns copies of every licensee in insertion order.
func (g *Graph) Licensees() []Licensee {
	out := make([]Licensee, 0, g.licensees.len())
	g.licensees.each(func(l Licensee) { out = append(out, l.cloneLicensee()) })
	return out
}

// Athletes returns copies of every athlete in insertion order.
func (g *Graph) Athletes() []*Athlete {
	var out []*Athlete
	g.licensees.each(func(l Licensee) {
		if a, ok := l.(*Athlete); ok {
			out = append(out, a.cloneLicensee().(*Athlete))
		}
	})
	return out
}

// Referees returns copies of every referee in insertion order.
func (g *Graph) Referees() []*Referee {
	var out []*Referee
	g.licensees.each(func(l Licensee) {
		if r, ok := l.(*Referee); ok {
			out = append(out, r.cloneLicensee().(*Referee))
		}
	})
	return out
}

// UpdateLicensee applies mutator to a copy of the licensee and stores it when
// valid. The id, club, variant, and athlete category cannot change here; use
// MoveLicensee and SetAthleteCategory.
func (g *Graph) UpdateLicensee(id string, mutator func(Licensee) error) (Licensee, error) {
	current, ok := g.licensees.get(id)
	if !ok {
		return nil, notFound(KindLicensee, id)
	}
	next := current.cloneLicensee()
	if err := mutator(next); err != nil {
		return nil, err
	}
	before, after := current.Base(), next.Base()
	switch {
	case after.ID != before.ID:
		return nil, malformed(current.Kind(), id, "ID", errImmutable)
	case after.ClubID != before.ClubID:
		return nil, malformed(current.Kind(), id, "ClubId", errImmutable)
	}
	if a, isAthlete := next.(*Athlete); isAthlete && a.CategoryID != current.(*Athlete).CategoryID {
		return nil, malformed(KindAthlete, id, "CategoryId", errImmutable)
	}
	next, err := normalizeLicensee(next)
	if err != nil {
		return nil, err
	}
	g.licensees.set(id, next)
	return next.cloneLicensee(), nil
}

// MoveLicensee transfers a licensee to another club, updating both clubs.
func (g *Graph) MoveLicensee(id string, clubID int) (bool, error) {
	l, ok := g.licensees.get(id)
	if !ok {
		return false, notFound(KindLicensee, id)
	}
	if !g.clubs.has(clubID) {
		return false, unresolved(KindClub, intID(clubID))
	}
	p := l.person()
	if p.ClubID == clubID {
		return false, nil
	}
	g.clubLicensees.unlink(p.ClubID, id)
	g.clubLicensees.link(clubID, id)
	p.ClubID = clubID
	return true, nil
}

// SetAthleteCategory moves an athlete to another category, updating both categories.
func (g *Graph) SetAthleteCategory(id string, categoryID int) (bool, error) {
	l, ok := g.licensees.get(id)
	if !ok {
		return false, notFound(KindAthlete, id)
	}
	a, ok := l.(*Athlete)
	if !ok {
		return false, notFound(KindAthlete, id)
	}
	if !g.categories.has(categoryID) {
		return false, unresolved(KindCategory, intID(categoryID))
	}
	if a.CategoryID == categoryID {
		return false, nil
	}
	g.categoryAthletes.unlink(a.CategoryID, id)
	g.categoryAthletes.link(categoryID, id)
	a.CategoryID = categoryID
	return true, nil
}

// RemoveLicensee removes a licensee that no team references.
func (g *Graph) RemoveLicensee(id string) (bool, error) {
	l, ok := g.licensees.get(id)
	if !ok {
		return false, nil
	}
	if len(g.athleteTeams.targets(id)) > 0 {
		return false, ReferencedError{Kind: KindAthlete, ID: id, By: KindTeam}
	}
	g.clubLicensees.unlink(l.Base().ClubID, id)
	if a, isAthlete := l.(*Athlete); isAthlete {
		g.categoryAthletes.unlink(a.CategoryID, id)
	}
	g.licensees.remove(id)
	return true, nil
}

// AddRefereeDate appends an availability date to a referee.
func (g *Graph) AddRefereeDate(refereeID string, d RefereeDate) (bool, error) {
	r, err := g.referee(refereeID)
	if err != nil {
		return false, err
	}
	return r.AddDate(d), nil
}

// RemoveRefereeDate removes an availability date from a referee.
func (g *Graph) RemoveRefereeDate(refereeID string, dateID int) (bool, error) {
	r, err := g.referee(refereeID)
	if err != nil {
		return false, err
	}
	return r.RemoveDate(dateID), nil
}

func (g *Graph) referee(id string) (*Referee, error) {
	l, ok := g.licensees.get(id)
	if !ok {
		return nil, notFound(KindReferee, id)
	}
	r, ok := l.(*Referee)
	if !ok {
		return nil, notFound(KindReferee, id)
	}
	return r, nil
}
