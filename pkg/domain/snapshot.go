package domain

// Snapshot is a detached copy of every entity and owning-side link of a graph,
// in listing order. It is used to compare graphs structurally.
type Snapshot struct {
	Competition       *Competition
	Categories        []Category
	Clubs             []Club
	Licensees         []Licensee
	Races             []Race
	RaceCategories    map[int][]int
	Teams             []Team
	MeetingElements   []MeetingElement
	MeetingCategories map[int][]int
	Rounds            []Round
	Heats             []Heat
	HeatResults       []HeatResult
}

// Snapshot copies the graph.
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		Categories:        g.Categories(),
		Clubs:             g.Clubs(),
		Licensees:         g.Licensees(),
		Races:             g.Races(),
		RaceCategories:    make(map[int][]int),
		Teams:             g.Teams(),
		MeetingElements:   g.MeetingElements(),
		MeetingCategories: make(map[int][]int),
		Rounds:            g.Rounds(),
		Heats:             g.Heats(),
		HeatResults:       g.HeatResults(),
	}
	if c, ok := g.Competition(); ok {
		s.Competition = &c
	}
	for _, r := range s.Races {
		if ids := g.raceCategories.targets(r.ID); len(ids) > 0 {
			s.RaceCategories[r.ID] = ids
		}
	}
	for _, m := range s.MeetingElements {
		if ids := g.meetingCategories.targets(m.ID); len(ids) > 0 {
			s.MeetingCategories[m.ID] = ids
		}
	}
	return s
}
