package ffss

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"meetcore/pkg/domain"
)

// Encode writes g as an FFSS document. The graph must hold a competition.
func (c *Codec) Encode(w io.Writer, g *domain.Graph) error {
	doc, err := toDocument(g)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode ffss document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// Marshal returns the encoded document.
func (c *Codec) Marshal(g *domain.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toDocument(g *domain.Graph) (documentXML, error) {
	comp, ok := g.Competition()
	if !ok {
		return documentXML{}, domain.NotFoundError{Kind: domain.KindCompetition}
	}
	doc := documentXML{
		Version: strconv.Itoa(FormatVersion),
		Competition: &competitionXML{
			ID:         strconv.Itoa(comp.ID),
			Name:       comp.Name,
			Location:   comp.Location,
			BeginDate:  comp.BeginDate.Format(time.DateOnly),
			EndDate:    comp.EndDate.Format(time.DateOnly),
			Speciality: string(comp.Speciality),
		},
	}

	for _, cat := range g.Categories() {
		doc.Categories.Items = append(doc.Categories.Items, categoryXML{
			ID:     strconv.Itoa(cat.ID),
			Name:   cat.Name,
			AgeMin: strconv.Itoa(cat.AgeMin),
			AgeMax: strconv.Itoa(cat.AgeMax),
		})
	}

	for _, club := range g.Clubs() {
		cx := clubXML{ID: strconv.Itoa(club.ID), Name: club.Name}
		for _, l := range g.ClubLicensees(club.ID) {
			cx.Licensees = append(cx.Licensees, encodeLicensee(l))
		}
		doc.Clubs.Items = append(doc.Clubs.Items, cx)
	}

	licensees := g.Licensees()
	ids := make([]string, len(licensees))
	for i, l := range licensees {
		ids[i] = l.Base().ID
	}
	doc.Licensees.IDs = strings.Join(ids, " ")

	for _, race := range g.Races() {
		limits := race.Limits()
		rx := raceXML{
			ID:                         strconv.Itoa(race.ID),
			Name:                       race.Name,
			Gender:                     string(race.Gender),
			Discipline:                 strconv.Itoa(race.Discipline),
			TeamSize:                   strconv.Itoa(race.TeamSize),
			CategoryIDs:                joinInts(categoryIDs(g.RaceCategories(race.ID))),
			MaxAthleteAllowed:          strconv.Itoa(limits.MaxAthletesAllowed),
			CanExceedMaxAthleteAllowed: strconv.FormatBool(limits.CanExceedMax),
			IsFinalBAllowed:            strconv.FormatBool(limits.IsFinalBAllowed),
		}
		for _, t := range g.RaceTeams(race.ID) {
			rx.Teams = append(rx.Teams, encodeTeam(t))
		}
		doc.Races.Items = append(doc.Races.Items, rx)
	}

	teams := g.Teams()
	teamIDs := make([]int, len(teams))
	for i, t := range teams {
		teamIDs[i] = t.Base().ID
	}
	doc.Teams.IDs = joinInts(teamIDs)

	for _, m := range g.MeetingElements() {
		mx := meetingXML{
			ID:          strconv.Itoa(m.ID),
			Name:        m.Name,
			Gender:      string(m.Gender),
			CategoryIDs: joinInts(categoryIDs(g.MeetingCategories(m.ID))),
		}
		for _, d := range m.Details {
			mx.Details = append(mx.Details, detailXML{
				Order:          strconv.Itoa(d.Order),
				Label:          d.Label,
				Level:          string(d.Level),
				NumberOfHeats:  strconv.Itoa(d.NumberOfHeats),
				QualifiedCount: strconv.Itoa(d.QualifiedCount),
			})
		}
		doc.MeetingElements.Items = append(doc.MeetingElements.Items, mx)
	}

	for _, r := range g.Rounds() {
		rx := roundXML{
			ID:               strconv.Itoa(r.ID),
			MeetingElementID: strconv.Itoa(r.MeetingElementID),
			Name:             r.Name,
			Order:            strconv.Itoa(r.Order),
		}
		if r.CategoryID != nil {
			rx.CategoryID = strconv.Itoa(*r.CategoryID)
		}
		for _, h := range g.RoundHeats(r.ID) {
			hx := heatXML{ID: strconv.Itoa(h.ID), Number: strconv.Itoa(h.Number)}
			for _, res := range g.HeatResultsOf(h.ID) {
				hx.Results = append(hx.Results, encodeResult(res))
			}
			rx.Heats = append(rx.Heats, hx)
		}
		doc.Rounds.Items = append(doc.Rounds.Items, rx)
	}

	heats := g.Heats()
	heatIDs := make([]int, len(heats))
	for i, h := range heats {
		heatIDs[i] = h.ID
	}
	doc.Heats.IDs = joinInts(heatIDs)

	results := g.HeatResults()
	resultIDs := make([]int, len(results))
	for i, r := range results {
		resultIDs[i] = r.Base().ID
	}
	doc.HeatResults.IDs = joinInts(resultIDs)
	return doc, nil
}

func categoryIDs(cats []domain.Category) []int {
	ids := make([]int, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids
}

func encodeLicensee(l domain.Licensee) licenseeXML {
	p := l.Base()
	lx := licenseeXML{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Gender:      string(p.Gender),
		Nationality: p.Nationality,
	}
	if p.BirthYear != 0 {
		lx.BirthYear = strconv.Itoa(p.BirthYear)
	}
	switch v := l.(type) {
	case *domain.Athlete:
		lx.Type = typeAthlete
		lx.CategoryID = strconv.Itoa(v.CategoryID)
	case *domain.Referee:
		lx.Type = typeReferee
		lx.Level = v.Level.String()
		for _, d := range v.Dates {
			lx.Dates = append(lx.Dates, refereeDateXML{ID: strconv.Itoa(d.ID), Value: d.Date.Format(time.DateOnly)})
		}
	}
	return lx
}

func encodeTeam(t domain.Team) teamXML {
	b := t.Base()
	tx := teamXML{
		ID:             strconv.Itoa(b.ID),
		CategoryID:     strconv.Itoa(b.CategoryID),
		EntryTime:      strconv.Itoa(b.EntryTime),
		IsForfeit:      formatBool(b.IsForfeit),
		IsForfeitFinal: formatBool(b.IsForfeitFinal),
	}
	switch v := t.(type) {
	case *domain.IndividualTeam:
		tx.Type = typeIndividual
		tx.AthleteID = v.AthleteID
	case *domain.RelayTeam:
		tx.Type = typeRelay
		tx.AthleteIDs = strings.Join(v.AthleteIDs, " ")
	}
	return tx
}

func encodeResult(r domain.HeatResult) resultXML {
	b := r.Base()
	rx := resultXML{
		ID:                     strconv.Itoa(b.ID),
		TeamID:                 strconv.Itoa(b.TeamID),
		Lane:                   strconv.Itoa(b.Lane),
		IsDisqualified:         formatBool(b.IsDisqualified),
		IsForfeit:              formatBool(b.IsForfeit),
		DisqualificationReason: b.DisqualificationReason,
	}
	switch v := r.(type) {
	case *domain.SwimResult:
		rx.Type = typeSwim
		rx.Time = strconv.Itoa(v.Time)
	case *domain.BeachResult:
		rx.Type = typeBeach
		rx.Position = strconv.Itoa(v.Position)
	}
	return rx
}
