package core

import (
	"strconv"

	"meetcore/pkg/domain"
)

// SetTeamForfeit marks a team as forfeit for the whole race.
func (s *Service) SetTeamForfeit(teamID int, forfeit bool) (domain.Team, error) {
	return s.updateTeam(teamID, func(b *domain.TeamBase) error {
		b.IsForfeit = forfeit
		return nil
	})
}

// SetTeamForfeitFinal marks a team as forfeit for the final only.
func (s *Service) SetTeamForfeitFinal(teamID int, forfeit bool) (domain.Team, error) {
	return s.updateTeam(teamID, func(b *domain.TeamBase) error {
		b.IsForfeitFinal = forfeit
		return nil
	})
}

func (s *Service) updateTeam(teamID int, mutator func(*domain.TeamBase) error) (domain.Team, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	t, err := g.UpdateTeam(teamID, mutator)
	if err != nil {
		return nil, err
	}
	s.dirty = true
	return t, nil
}

// SetResultForfeit flags a heat result as forfeit.
func (s *Service) SetResultForfeit(resultID int, forfeit bool) (domain.HeatResult, error) {
	g, err := s.loaded()
	if err != nil {
		return nil, err
	}
	r, err := g.UpdateHeatResult(resultID, func(b *domain.ResultBase) error {
		b.IsForfeit = forfeit
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dirty = true
	return r, nil
}

// UpdateRaceFormat replaces the round configuration of a meeting element.
func (s *Service) UpdateRaceFormat(meetingElementID int, details []domain.RaceFormatDetail) (domain.MeetingElement, error) {
	g, err := s.loaded()
	if err != nil {
		return domain.MeetingElement{}, err
	}
	m, err := g.UpdateMeetingElement(meetingElementID, func(m *domain.MeetingElement) error {
		m.Details = append([]domain.RaceFormatDetail(nil), details...)
		return nil
	})
	if err != nil {
		return domain.MeetingElement{}, err
	}
	s.dirty = true
	return m, nil
}

// AddRaceCategory opens a race to a category.
func (s *Service) AddRaceCategory(raceID, categoryID int) (bool, error) {
	g, err := s.loaded()
	if err != nil {
		return false, err
	}
	added, err := g.AddRaceCategory(raceID, categoryID)
	if err != nil {
		return false, err
	}
	if added {
		s.dirty = true
	}
	return added, nil
}

// RemoveRaceCategory closes a race to a category.
func (s *Service) RemoveRaceCategory(raceID, categoryID int) (bool, error) {
	g, err := s.loaded()
	if err != nil {
		return false, err
	}
	removed, err := g.RemoveRaceCategory(raceID, categoryID)
	if err != nil {
		return false, err
	}
	if removed {
		s.dirty = true
	}
	return removed, nil
}

func itoa(id int) string { return strconv.Itoa(id) }
