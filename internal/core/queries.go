package core

import (
	"meetcore/pkg/domain"
	"meetcore/pkg/ordering"
)

// Competition returns the loaded competition.
func (s *Service) Competition() (domain.Competition, error) {
	g, err := s.loaded()
	if err != nil {
		return domain.Competition{}, err
	}
	comp, _ := g.Competition()
	return comp, nil
}

// Counts returns per-kind entity counts.
func (s *Service) Counts() (domain.Counts, error) {
	g, err := s.loaded()
	if err != nil {
		return domain.Counts{}, err
	}
	return g.Counts(), nil
}

// Snapshot returns an immutable view of the whole graph in insertion order.
func (s *Service) Snapshot() (domain.Snapshot, error) {
	g, err := s.loaded()
	if err != nil {
		return domain.Snapshot{}, err
	}
	return g.Snapshot(), nil
}

// Categories returns the categories ordered by minimum age.
func (s *Service) Categories() ([]domain.Category, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return ordering.Sort(g.Categories(), ordering.Categories), nil
}

// Clubs returns the clubs ordered by name.
func (s *Service) Clubs() ([]domain.Club, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return ordering.Sort(g.Clubs(), ordering.Clubs), nil
}

// Licensees returns athletes and referees ordered by folded full name.
func (s *Service) Licensees() ([]domain.Licensee, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return ordering.Sort(g.Licensees(), ordering.LicenseesByName), nil
}

// LicenseesByClub returns licensees ordered by club name then full name.
func (s *Service) LicenseesByClub() ([]domain.Licensee, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return ordering.Sort(g.Licensees(), ordering.LicenseesByClub(clubNamer(g))), nil
}

// Athletes returns the athletes ordered by folded full name.
func (s *Service) Athletes() ([]*domain.Athlete, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return ordering.Sort(g.Athletes(), func(a, b *domain.Athlete) int {
		return ordering.LicenseesByName(a, b)
	}), nil
}

// Referees returns the referees ordered by level then full name.
func (s *Service) Referees() ([]*domain.Referee, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return ordering.Sort(g.Referees(), ordering.Referees), nil
}

// Races returns the races ordered by their display key.
func (s *Service) Races() ([]domain.Race, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return ordering.Sort(g.Races(), ordering.Races(g.RaceCategories)), nil
}

// Teams returns every team ordered by club name.
func (s *Service) Teams() ([]domain.Team, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return ordering.Sort(g.Teams(), ordering.TeamsByClub(teamClubNamer(g))), nil
}

// TeamsByEntryTime returns every team ordered by entry time.
func (s *Service) TeamsByEntryTime() ([]domain.Team, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return ordering.Sort(g.Teams(), ordering.TeamsByEntryTime), nil
}

// RaceTeams returns the teams entered in a race ordered by entry time.
func (s *Service) RaceTeams(raceID int) ([]domain.Team, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	if _, ok := g.Race(raceID); !ok {
		return nil, domain.NotFoundError{Kind: domain.KindRace, ID: itoa(raceID)}
	}
	return ordering.Sort(g.RaceTeams(raceID), ordering.TeamsByEntryTime), nil
}

// MeetingElements returns the meeting elements in insertion order.
func (s *Service) MeetingElements() ([]domain.MeetingElement, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return g.MeetingElements(), nil
}

// Rounds returns the rounds in insertion order.
func (s *Service) Rounds() ([]domain.Round, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return g.Rounds(), nil
}

func clubNamer(g *domain.Graph) func(int) string {
	return func(clubID int) string {
		club, _ := g.Club(clubID)
		return club.Name
	}
}

func teamClubNamer(g *domain.Graph) func(int) string {
	return func(teamID int) string {
		club, _ := g.TeamClub(teamID)
		return club.Name
	}
}

// RaceCategories returns the categories a race is open to, by minimum age.
func (s *Service) RaceCategories(raceID int) ([]domain.Category, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	if _, ok := g.Race(raceID); !ok {
		return nil, domain.NotFoundError{Kind: domain.KindRace, ID: itoa(raceID)}
	}
	return ordering.Sort(g.RaceCategories(raceID), ordering.Categories), nil
}
