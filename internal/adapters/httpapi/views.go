package httpapi

import (
	"time"

	"meetcore/internal/blob"
	"meetcore/pkg/domain"
)

type competitionView struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Location   string     `json:"location,omitempty"`
	BeginDate  string     `json:"begin_date"`
	EndDate    string     `json:"end_date"`
	Speciality string     `json:"speciality"`
	Counts     countsView `json:"counts"`
	Key        string     `json:"document_key"`
	Dirty      bool       `json:"dirty"`
}

type countsView struct {
	Categories      int `json:"categories"`
	Clubs           int `json:"clubs"`
	Athletes        int `json:"athletes"`
	Referees        int `json:"referees"`
	Races           int `json:"races"`
	Teams           int `json:"teams"`
	MeetingElements int `json:"meeting_elements"`
	Rounds          int `json:"rounds"`
	Heats           int `json:"heats"`
	HeatResults     int `json:"heat_results"`
}

func countsOf(c domain.Counts) countsView {
	return countsView(c)
}

type categoryView struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	AgeMin int    `json:"age_min"`
	AgeMax int    `json:"age_max"`
}

func categoryViews(cats []domain.Category) []categoryView {
	out := make([]categoryView, len(cats))
	for i, c := range cats {
		out[i] = categoryView{ID: c.ID, Name: c.Name, AgeMin: c.AgeMin, AgeMax: c.AgeMax}
	}
	return out
}

type clubView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type licenseeView struct {
	Type        string   `json:"type"`
	ID          string   `json:"id"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name"`
	BirthYear   int      `json:"birth_year,omitempty"`
	Gender      string   `json:"gender"`
	Nationality string   `json:"nationality,omitempty"`
	ClubID      int      `json:"club_id"`
	CategoryID  int      `json:"category_id,omitempty"`
	Level       string   `json:"level,omitempty"`
	Dates       []string `json:"dates,omitempty"`
}

func licenseeOf(l domain.Licensee) licenseeView {
	p := l.Base()
	v := licenseeView{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		BirthYear:   p.BirthYear,
		Gender:      string(p.Gender),
		Nationality: p.Nationality,
		ClubID:      p.ClubID,
	}
	switch x := l.(type) {
	case *domain.Athlete:
		v.Type = "athlete"
		v.CategoryID = x.CategoryID
	case *domain.Referee:
		v.Type = "referee"
		v.Level = x.Level.String()
		for _, d := range x.Dates {
			v.Dates = append(v.Dates, d.Date.Format(time.DateOnly))
		}
	}
	return v
}

type raceView struct {
	ID                         int    `json:"id"`
	Name                       string `json:"name"`
	Gender                     string `json:"gender"`
	Discipline                 int    `json:"discipline"`
	TeamSize                   int    `json:"team_size"`
	CategoryIDs                []int  `json:"category_ids"`
	MaxAthleteAllowed          int    `json:"max_athlete_allowed"`
	CanExceedMaxAthleteAllowed bool   `json:"can_exceed_max_athlete_allowed"`
	IsFinalBAllowed            bool   `json:"is_final_b_allowed"`
}

func raceOf(r domain.Race, cats []domain.Category) raceView {
	ids := make([]int, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return raceView{
		ID:                         r.ID,
		Name:                       r.Name,
		Gender:                     string(r.Gender),
		Discipline:                 r.Discipline,
		TeamSize:                   r.TeamSize,
		CategoryIDs:                ids,
		MaxAthleteAllowed:          r.MaxAthleteAllowed(),
		CanExceedMaxAthleteAllowed: r.CanExceedMaxAthleteAllowed(),
		IsFinalBAllowed:            r.IsFinalBAllowed(),
	}
}

type teamView struct {
	Type           string   `json:"type"`
	ID             int      `json:"id"`
	RaceID         int      `json:"race_id"`
	CategoryID     int      `json:"category_id"`
	EntryTime      int      `json:"entry_time"`
	IsForfeit      bool     `json:"is_forfeit"`
	IsForfeitFinal bool     `json:"is_forfeit_final"`
	AthleteIDs     []string `json:"athlete_ids"`
}

func teamOf(t domain.Team) teamView {
	b := t.Base()
	kind := "individual"
	if _, ok := t.(*domain.RelayTeam); ok {
		kind = "relay"
	}
	return teamView{
		Type:           kind,
		ID:             b.ID,
		RaceID:         b.RaceID,
		CategoryID:     b.CategoryID,
		EntryTime:      b.EntryTime,
		IsForfeit:      b.IsForfeit,
		IsForfeitFinal: b.IsForfeitFinal,
		AthleteIDs:     t.Members(),
	}
}

func teamViews(teams []domain.Team) []teamView {
	out := make([]teamView, len(teams))
	for i, t := range teams {
		out[i] = teamOf(t)
	}
	return out
}

type formatDetailView struct {
	Order          int    `json:"order"`
	Label          string `json:"label,omitempty"`
	Level          string `json:"level"`
	NumberOfHeats  int    `json:"number_of_heats"`
	QualifiedCount int    `json:"qualified_count"`
}

type meetingElementView struct {
	ID      int                `json:"id"`
	Name    string             `json:"name"`
	Gender  string             `json:"gender"`
	Details []formatDetailView `json:"details"`
}

func meetingOf(m domain.MeetingElement) meetingElementView {
	v := meetingElementView{ID: m.ID, Name: m.Name, Gender: string(m.Gender), Details: []formatDetailView{}}
	for _, d := range m.Details {
		v.Details = append(v.Details, formatDetailView{
			Order:          d.Order,
			Label:          d.Label,
			Level:          string(d.Level),
			NumberOfHeats:  d.NumberOfHeats,
			QualifiedCount: d.QualifiedCount,
		})
	}
	return v
}

type roundView struct {
	ID               int    `json:"id"`
	MeetingElementID int    `json:"meeting_element_id"`
	CategoryID       *int   `json:"category_id,omitempty"`
	Name             string `json:"name"`
	Order            int    `json:"order"`
}

type resultView struct {
	ID             int  `json:"id"`
	HeatID         int  `json:"heat_id"`
	TeamID         int  `json:"team_id"`
	Lane           int  `json:"lane"`
	IsDisqualified bool `json:"is_disqualified"`
	IsForfeit      bool `json:"is_forfeit"`
}

func resultOf(r domain.HeatResult) resultView {
	b := r.Base()
	return resultView{ID: b.ID, HeatID: b.HeatID, TeamID: b.TeamID, Lane: b.Lane, IsDisqualified: b.IsDisqualified, IsForfeit: b.IsForfeit}
}

type violationView struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Entity   string `json:"entity"`
	EntityID string `json:"entity_id"`
}

func violationViews(res domain.Result) []violationView {
	out := make([]violationView, len(res.Violations))
	for i, v := range res.Violations {
		out[i] = violationView{Rule: v.Rule, Severity: string(v.Severity), Message: v.Message, Entity: string(v.Entity), EntityID: v.EntityID}
	}
	return out
}

type documentView struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

func documentOf(info blob.Info) documentView {
	return documentView{Key: info.Key, Size: info.Size, ETag: info.ETag, LastModified: info.LastModified}
}
