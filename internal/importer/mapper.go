package importer

import (
	"errors"
	"strconv"
	"time"

	"meetcore/pkg/discipline"
	"meetcore/pkg/domain"
)

var errIndividualSize = errors.New("individual entry needs exactly one athlete")

func mapBatch(dto batchDTO) (Batch, error) {
	var b Batch
	comp, err := mapCompetition(dto.Competition)
	if err != nil {
		return Batch{}, err
	}
	b.Competition = comp

	for _, c := range dto.Categories {
		cat, err := domain.NewCategory(c.ID, c.Name, c.AgeMin, c.AgeMax)
		if err != nil {
			return Batch{}, err
		}
		b.Categories = append(b.Categories, cat)
	}
	for _, c := range dto.Clubs {
		club, err := domain.NewClub(c.ID, c.Name)
		if err != nil {
			return Batch{}, err
		}
		b.Clubs = append(b.Clubs, club)
	}
	for _, a := range dto.Athletes {
		p, err := mapPerson(domain.KindAthlete, a.personDTO)
		if err != nil {
			return Batch{}, err
		}
		athlete, err := domain.NewAthlete(p, a.CategoryID)
		if err != nil {
			return Batch{}, err
		}
		b.Licensees = append(b.Licensees, athlete)
	}
	for _, r := range dto.Referees {
		ref, err := mapReferee(r)
		if err != nil {
			return Batch{}, err
		}
		b.Licensees = append(b.Licensees, ref)
	}

	teamSizes := make(map[int]int, len(dto.Races))
	for _, r := range dto.Races {
		gender, err := domain.ParseGender(r.Gender)
		if err != nil {
			return Batch{}, domain.MalformedEntityError{Kind: domain.KindRace, ID: strconv.Itoa(r.ID), Field: "Gender", Err: err}
		}
		race, err := domain.NewRace(r.ID, r.Name, gender, r.Discipline, r.TeamSize)
		if err != nil {
			return Batch{}, err
		}
		teamSizes[race.ID] = race.TeamSize
		b.Races = append(b.Races, RaceEntry{Race: race, CategoryIDs: r.CategoryIDs})
	}

	for _, t := range dto.Teams {
		size, ok := teamSizes[t.RaceID]
		if !ok {
			return Batch{}, domain.UnresolvedReferenceError{Kind: domain.KindRace, ID: strconv.Itoa(t.RaceID)}
		}
		team, err := mapTeam(t, size)
		if err != nil {
			return Batch{}, err
		}
		b.Teams = append(b.Teams, team)
	}
	return b, nil
}

func mapCompetition(c competitionDTO) (domain.Competition, error) {
	id := strconv.Itoa(c.ID)
	begin, err := time.Parse(time.DateOnly, c.BeginDate)
	if err != nil {
		return domain.Competition{}, domain.MalformedEntityError{Kind: domain.KindCompetition, ID: id, Field: "BeginDate", Err: err}
	}
	end, err := time.Parse(time.DateOnly, c.EndDate)
	if err != nil {
		return domain.Competition{}, domain.MalformedEntityError{Kind: domain.KindCompetition, ID: id, Field: "EndDate", Err: err}
	}
	return domain.NewCompetition(c.ID, c.Name, c.Location, begin, end, discipline.Speciality(c.Speciality))
}

func mapPerson(kind domain.EntityKind, p personDTO) (domain.Person, error) {
	gender, err := domain.ParseGender(p.Gender)
	if err != nil {
		return domain.Person{}, domain.MalformedEntityError{Kind: kind, ID: p.ID, Field: "Gender", Err: err}
	}
	return domain.Person{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		BirthYear:   p.BirthYear,
		Gender:      gender,
		Nationality: p.Nationality,
		ClubID:      p.ClubID,
	}, nil
}

func mapReferee(r refereeDTO) (*domain.Referee, error) {
	p, err := mapPerson(domain.KindReferee, r.personDTO)
	if err != nil {
		return nil, err
	}
	level, err := domain.ParseRefereeLevel(r.Level)
	if err != nil {
		return nil, domain.MalformedEntityError{Kind: domain.KindReferee, ID: r.ID, Field: "Level", Err: err}
	}
	dates := make([]domain.RefereeDate, 0, len(r.Dates))
	for i, raw := range r.Dates {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, domain.MalformedEntityError{Kind: domain.KindReferee, ID: r.ID, Field: "Dates", Err: err}
		}
		dates = append(dates, domain.RefereeDate{ID: i + 1, Date: d})
	}
	return domain.NewReferee(p, level, dates...)
}

func mapTeam(t teamDTO, teamSize int) (domain.Team, error) {
	base := domain.TeamBase{ID: t.ID, RaceID: t.RaceID, CategoryID: t.CategoryID, EntryTime: t.EntryTime}
	if teamSize > 1 {
		relay, err := domain.NewRelayTeam(base, t.AthleteIDs)
		if err != nil {
			return nil, err
		}
		return relay, nil
	}
	if len(t.AthleteIDs) != 1 {
		return nil, domain.MalformedEntityError{Kind: domain.KindTeam, ID: strconv.Itoa(t.ID), Field: "AthleteIds", Err: errIndividualSize}
	}
	individual, err := domain.NewIndividualTeam(base, t.AthleteIDs[0])
	if err != nil {
		return nil, err
	}
	return individual, nil
}
