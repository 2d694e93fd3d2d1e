package ffss

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"meetcore/pkg/discipline"
	"meetcore/pkg/domain"
)

// Decode reads an FFSS document and rebuilds the graph in dependency order:
// competition, categories, clubs and licensees, races, teams, then the
// schedule (meeting elements, rounds, heats, results). Licensees, teams,
// heats and results are inserted in the order of their index blocks. A
// reference to an id that no earlier pass produced aborts the decode with an
// UnresolvedReferenceError; a malformed child record is skipped with a
// warning, along with everything nested under it. A malformed competition
// record is fatal.
func (c *Codec) Decode(r io.Reader) (*domain.Graph, error) {
	var doc documentXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if v := strings.TrimSpace(doc.Version); v != strconv.Itoa(FormatVersion) {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrMalformedDocument, v)
	}
	d := &decoder{
		log:     c.logger,
		g:       domain.NewGraph(),
		skipped: make(map[domain.EntityKind]map[string]bool),
	}
	passes := []func(*documentXML) error{
		d.competition,
		d.categories,
		d.clubs,
		d.races,
		d.teams,
		d.meetingElements,
		d.rounds,
	}
	for _, pass := range passes {
		if err := pass(&doc); err != nil {
			return nil, err
		}
	}
	return d.g, nil
}

// Unmarshal decodes data.
func (c *Codec) Unmarshal(data []byte) (*domain.Graph, error) {
	return c.Decode(bytes.NewReader(data))
}

type decoder struct {
	log     Logger
	g       *domain.Graph
	skipped map[domain.EntityKind]map[string]bool

	// raceKept is indexed by position in the Races block.
	raceKept []bool
}

// skip swallows a malformed record after logging it; any other error is fatal.
func (d *decoder) skip(kind domain.EntityKind, id string, err error) error {
	var malformed domain.MalformedEntityError
	if !errors.As(err, &malformed) {
		return err
	}
	d.log.Warn("ffss: skipping malformed record", "kind", string(kind), "id", id, "field", malformed.Field, "error", err)
	d.markSkipped(kind, id)
	return nil
}

func (d *decoder) markSkipped(kind domain.EntityKind, id string) {
	if d.skipped[kind] == nil {
		d.skipped[kind] = make(map[string]bool)
	}
	d.skipped[kind][strings.TrimSpace(id)] = true
}

func (d *decoder) wasSkipped(kind domain.EntityKind, id string) bool {
	return d.skipped[kind][strings.TrimSpace(id)]
}

func (d *decoder) duplicate(kind domain.EntityKind, id string) {
	d.log.Warn("ffss: duplicate id ignored", "kind", string(kind), "id", id)
}

// indexed holds decoded records by id, in document order, until they are
// inserted in the order of their index block.
type indexed[T any] struct {
	byID  map[string]T
	order []string
}

func newIndexed[T any]() *indexed[T] {
	return &indexed[T]{byID: make(map[string]T)}
}

// put reports false when a record with id was already decoded.
func (ix *indexed[T]) put(id string, v T) bool {
	id = strings.TrimSpace(id)
	if _, dup := ix.byID[id]; dup {
		return false
	}
	ix.byID[id] = v
	ix.order = append(ix.order, id)
	return true
}

// insertIndexed adds the records named by index first, then those the index
// omits in document order. An indexed id that was neither decoded nor skipped
// is an unresolved reference.
func insertIndexed[T any](d *decoder, kind domain.EntityKind, index string, ix *indexed[T], add func(T) error) error {
	insert := func(id string, v T) error {
		delete(ix.byID, id)
		if err := add(v); err != nil {
			return d.skip(kind, id, err)
		}
		return nil
	}
	for _, id := range strings.Fields(index) {
		v, ok := ix.byID[id]
		if !ok {
			if d.wasSkipped(kind, id) {
				continue
			}
			return domain.UnresolvedReferenceError{Kind: kind, ID: id}
		}
		if err := insert(id, v); err != nil {
			return err
		}
	}
	for _, id := range ix.order {
		v, ok := ix.byID[id]
		if !ok {
			continue
		}
		d.log.Warn("ffss: record missing from index", "kind", string(kind), "id", id)
		if err := insert(id, v); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) competition(doc *documentXML) error {
	cx := doc.Competition
	if cx == nil {
		return domain.MalformedEntityError{Kind: domain.KindCompetition, Field: "Competition", Err: errMissing}
	}
	a := record(domain.KindCompetition, cx.ID)
	id := a.integer("Id", cx.ID)
	name := a.str("Name", cx.Name)
	begin := a.date("BeginDate", cx.BeginDate)
	end := a.date("EndDate", cx.EndDate)
	speciality := discipline.Speciality(a.str("Speciality", cx.Speciality))
	if a.err != nil {
		return a.err
	}
	comp, err := domain.NewCompetition(id, name, cx.Location, begin, end, speciality)
	if err != nil {
		return err
	}
	return d.g.SetCompetition(comp)
}

func (d *decoder) categories(doc *documentXML) error {
	for _, cx := range doc.Categories.Items {
		a := record(domain.KindCategory, cx.ID)
		id := a.integer("Id", cx.ID)
		name := a.str("Name", cx.Name)
		ageMin := a.integer("AgeMin", cx.AgeMin)
		ageMax := a.integer("AgeMax", cx.AgeMax)
		if a.err != nil {
			if err := d.skip(domain.KindCategory, cx.ID, a.err); err != nil {
				return err
			}
			continue
		}
		cat, err := domain.NewCategory(id, name, ageMin, ageMax)
		if err == nil {
			var added bool
			added, err = d.g.AddCategory(cat)
			if err == nil && !added {
				d.duplicate(domain.KindCategory, cx.ID)
			}
		}
		if err != nil {
			if err := d.skip(domain.KindCategory, cx.ID, err); err != nil {
				return err
			}
		}
	}
	return nil
}

// clubs decodes clubs with their embedded licensees, then inserts the
// licensees in the order of the Licensees index.
func (d *decoder) clubs(doc *documentXML) error {
	licensees := newIndexed[domain.Licensee]()
	for _, cx := range doc.Clubs.Items {
		a := record(domain.KindClub, cx.ID)
		id := a.integer("Id", cx.ID)
		name := a.str("Name", cx.Name)
		err := a.err
		added := false
		if err == nil {
			var club domain.Club
			club, err = domain.NewClub(id, name)
			if err == nil {
				added, err = d.g.AddClub(club)
				if err == nil && !added {
					d.duplicate(domain.KindClub, cx.ID)
				}
			}
		}
		if err != nil {
			if err := d.skip(domain.KindClub, cx.ID, err); err != nil {
				return err
			}
		}
		if !added {
			for _, lx := range cx.Licensees {
				d.log.Warn("ffss: skipping licensee of skipped club", "id", lx.ID, "club", cx.ID)
				d.markSkipped(domain.KindLicensee, lx.ID)
			}
			continue
		}
		for _, lx := range cx.Licensees {
			l, err := decodeLicensee(lx, id)
			if err != nil {
				if err := d.skip(domain.KindLicensee, lx.ID, err); err != nil {
					return err
				}
				continue
			}
			if !licensees.put(lx.ID, l) {
				d.duplicate(domain.KindLicensee, lx.ID)
			}
		}
	}
	return insertIndexed(d, domain.KindLicensee, doc.Licensees.IDs, licensees, func(l domain.Licensee) error {
		_, err := d.g.AddLicensee(l)
		return err
	})
}

func decodeLicensee(lx licenseeXML, clubID int) (domain.Licensee, error) {
	kind := domain.KindLicensee
	switch lx.Type {
	case typeAthlete:
		kind = domain.KindAthlete
	case typeReferee:
		kind = domain.KindReferee
	}
	a := record(kind, lx.ID)
	p := domain.Person{
		ID:          a.str("Id", lx.ID),
		FirstName:   lx.FirstName,
		LastName:    a.str("LastName", lx.LastName),
		BirthYear:   a.optInteger("BirthYear", lx.BirthYear),
		Gender:      a.gender("Gender", lx.Gender),
		Nationality: lx.Nationality,
		ClubID:      clubID,
	}
	switch lx.Type {
	case typeAthlete:
		categoryID := a.integer("CategoryId", lx.CategoryID)
		if a.err != nil {
			return nil, a.err
		}
		return domain.NewAthlete(p, categoryID)
	case typeReferee:
		level, err := domain.ParseRefereeLevel(lx.Level)
		if err != nil {
			a.fail("Level", err)
		}
		var dates []domain.RefereeDate
		for _, dx := range lx.Dates {
			dates = append(dates, domain.RefereeDate{
				ID:   a.integer("Date.Id", dx.ID),
				Date: a.date("Date.Value", dx.Value),
			})
		}
		if a.err != nil {
			return nil, a.err
		}
		return domain.NewReferee(p, level, dates...)
	}
	return nil, domain.MalformedEntityError{Kind: kind, ID: lx.ID, Field: "Type", Err: fmt.Errorf("unknown licensee type %q", lx.Type)}
}

func (d *decoder) races(doc *documentXML) error {
	d.raceKept = make([]bool, len(doc.Races.Items))
	for i, rx := range doc.Races.Items {
		race, err := decodeRace(rx)
		added := false
		if err == nil {
			added, err = d.g.AddRace(race)
			if err == nil && !added {
				d.duplicate(domain.KindRace, rx.ID)
			}
		}
		if err != nil {
			if err := d.skip(domain.KindRace, rx.ID, err); err != nil {
				return err
			}
		}
		if !added {
			for _, tx := range rx.Teams {
				d.log.Warn("ffss: skipping team of skipped race", "id", tx.ID, "race", rx.ID)
				d.markSkipped(domain.KindTeam, tx.ID)
			}
			continue
		}
		d.raceKept[i] = true
		d.checkStoredLimits(rx, race)
		a := record(domain.KindRace, rx.ID)
		categoryIDs := a.intList("CategoryIds", rx.CategoryIDs)
		if a.err != nil {
			return a.err
		}
		for _, categoryID := range categoryIDs {
			if _, err := d.g.AddRaceCategory(race.ID, categoryID); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeRace(rx raceXML) (domain.Race, error) {
	a := record(domain.KindRace, rx.ID)
	id := a.integer("Id", rx.ID)
	name := a.str("Name", rx.Name)
	gender := a.gender("Gender", rx.Gender)
	code := a.integer("Discipline", rx.Discipline)
	teamSize := a.integer("TeamSize", rx.TeamSize)
	if a.err != nil {
		return domain.Race{}, a.err
	}
	return domain.NewRace(id, name, gender, code, teamSize)
}

// checkStoredLimits compares the limit attributes written by an earlier save
// with the values just derived from the discipline table. The table wins.
func (d *decoder) checkStoredLimits(rx raceXML, race domain.Race) {
	if rx.MaxAthleteAllowed == "" && rx.CanExceedMaxAthleteAllowed == "" && rx.IsFinalBAllowed == "" {
		return
	}
	a := record(domain.KindRace, rx.ID)
	stored := discipline.Limits{
		MaxAthletesAllowed: a.optInteger("MaxAthleteAllowed", rx.MaxAthleteAllowed),
		CanExceedMax:       a.optBool("CanExceedMaxAthleteAllowed", rx.CanExceedMaxAthleteAllowed),
		IsFinalBAllowed:    a.optBool("IsFinalBAllowed", rx.IsFinalBAllowed),
	}
	if a.err != nil || stored != race.Limits() {
		d.log.Warn("ffss: stored race limits differ from discipline table",
			"race", rx.ID,
			"discipline", race.Discipline,
			"stored", fmt.Sprintf("%+v", stored),
			"derived", fmt.Sprintf("%+v", race.Limits()))
	}
}

// teams decodes the teams embedded in the races that were kept and inserts
// them in the order of the Teams index.
func (d *decoder) teams(doc *documentXML) error {
	teams := newIndexed[domain.Team]()
	for i, rx := range doc.Races.Items {
		if !d.raceKept[i] {
			continue
		}
		raceID, err := strconv.Atoi(strings.TrimSpace(rx.ID))
		if err != nil {
			continue
		}
		for _, tx := range rx.Teams {
			t, err := decodeTeam(tx, raceID)
			if err != nil {
				if err := d.skip(domain.KindTeam, tx.ID, err); err != nil {
					return err
				}
				continue
			}
			if !teams.put(tx.ID, t) {
				d.duplicate(domain.KindTeam, tx.ID)
			}
		}
	}
	return insertIndexed(d, domain.KindTeam, doc.Teams.IDs, teams, func(t domain.Team) error {
		_, err := d.g.AddTeam(t)
		return err
	})
}

func decodeTeam(tx teamXML, raceID int) (domain.Team, error) {
	a := record(domain.KindTeam, tx.ID)
	base := domain.TeamBase{
		ID:             a.integer("Id", tx.ID),
		RaceID:         raceID,
		CategoryID:     a.integer("CategoryId", tx.CategoryID),
		EntryTime:      a.optInteger("EntryTime", tx.EntryTime),
		IsForfeit:      a.optBool("IsForfeit", tx.IsForfeit),
		IsForfeitFinal: a.optBool("IsForfeitFinal", tx.IsForfeitFinal),
	}
	switch tx.Type {
	case typeIndividual:
		athleteID := a.str("AthleteId", tx.AthleteID)
		if a.err != nil {
			return nil, a.err
		}
		return domain.NewIndividualTeam(base, athleteID)
	case typeRelay:
		if a.err != nil {
			return nil, a.err
		}
		return domain.NewRelayTeam(base, strings.Fields(tx.AthleteIDs))
	}
	return nil, domain.MalformedEntityError{Kind: domain.KindTeam, ID: tx.ID, Field: "Type", Err: fmt.Errorf("unknown team type %q", tx.Type)}
}

func (d *decoder) meetingElements(doc *documentXML) error {
	for _, mx := range doc.MeetingElements.Items {
		a := record(domain.KindMeetingElement, mx.ID)
		id := a.integer("Id", mx.ID)
		name := a.str("Name", mx.Name)
		gender := a.gender("Gender", mx.Gender)
		var details []domain.RaceFormatDetail
		for _, dx := range mx.Details {
			level, err := domain.ParseFormatLevel(dx.Level)
			if err != nil {
				a.fail("Detail.Level", err)
			}
			details = append(details, domain.RaceFormatDetail{
				Order:          a.integer("Detail.Order", dx.Order),
				Label:          dx.Label,
				Level:          level,
				NumberOfHeats:  a.optInteger("Detail.NumberOfHeats", dx.NumberOfHeats),
				QualifiedCount: a.optInteger("Detail.QualifiedCount", dx.QualifiedCount),
			})
		}
		categoryIDs := a.intList("CategoryIds", mx.CategoryIDs)
		err := a.err
		if err == nil {
			var m domain.MeetingElement
			m, err = domain.NewMeetingElement(id, name, gender, details)
			if err == nil {
				var added bool
				added, err = d.g.AddMeetingElement(m)
				if err == nil && !added {
					d.duplicate(domain.KindMeetingElement, mx.ID)
					continue
				}
			}
		}
		if err != nil {
			if err := d.skip(domain.KindMeetingElement, mx.ID, err); err != nil {
				return err
			}
			continue
		}
		for _, categoryID := range categoryIDs {
			if _, err := d.g.AddMeetingCategory(id, categoryID); err != nil {
				return err
			}
		}
	}
	return nil
}

// rounds decodes the rounds and the heats and results nested in them. Rounds
// are added in document order; heats and results follow the Heats and
// HeatResults indexes.
func (d *decoder) rounds(doc *documentXML) error {
	heats := newIndexed[domain.Heat]()
	results := newIndexed[domain.HeatResult]()
	for _, rx := range doc.Rounds.Items {
		round, err := decodeRound(rx)
		added := false
		if err == nil {
			added, err = d.g.AddRound(round)
			if err == nil && !added {
				d.duplicate(domain.KindRound, rx.ID)
			}
		}
		if err != nil {
			if err := d.skip(domain.KindRound, rx.ID, err); err != nil {
				return err
			}
		}
		if !added {
			for _, hx := range rx.Heats {
				d.log.Warn("ffss: skipping heat of skipped round", "id", hx.ID, "round", rx.ID)
				d.markSkipped(domain.KindHeat, hx.ID)
				d.skipResults(hx)
			}
			continue
		}
		for _, hx := range rx.Heats {
			if err := d.heat(hx, round.ID, heats, results); err != nil {
				return err
			}
		}
	}

	err := insertIndexed(d, domain.KindHeat, doc.Heats.IDs, heats, func(h domain.Heat) error {
		added, err := d.g.AddHeat(h)
		if err == nil && !added {
			d.duplicate(domain.KindHeat, strconv.Itoa(h.ID))
		}
		return err
	})
	if err != nil {
		return err
	}
	return insertIndexed(d, domain.KindHeatResult, doc.HeatResults.IDs, results, func(r domain.HeatResult) error {
		b := r.Base()
		if d.wasSkipped(domain.KindHeat, strconv.Itoa(b.HeatID)) {
			d.log.Warn("ffss: skipping result of skipped heat", "id", b.ID, "heat", b.HeatID)
			return nil
		}
		_, err := d.g.AddHeatResult(r)
		return err
	})
}

func (d *decoder) heat(hx heatXML, roundID int, heats *indexed[domain.Heat], results *indexed[domain.HeatResult]) error {
	a := record(domain.KindHeat, hx.ID)
	id := a.integer("Id", hx.ID)
	number := a.integer("Number", hx.Number)
	err := a.err
	var h domain.Heat
	if err == nil {
		h, err = domain.NewHeat(id, roundID, number)
	}
	if err != nil {
		if err := d.skip(domain.KindHeat, hx.ID, err); err != nil {
			return err
		}
		d.skipResults(hx)
		return nil
	}
	if !heats.put(hx.ID, h) {
		d.duplicate(domain.KindHeat, hx.ID)
		d.skipResults(hx)
		return nil
	}
	for _, resx := range hx.Results {
		res, err := decodeResult(resx, id)
		if err != nil {
			if err := d.skip(domain.KindHeatResult, resx.ID, err); err != nil {
				return err
			}
			continue
		}
		if !results.put(resx.ID, res) {
			d.duplicate(domain.KindHeatResult, resx.ID)
		}
	}
	return nil
}

func (d *decoder) skipResults(hx heatXML) {
	for _, resx := range hx.Results {
		d.log.Warn("ffss: skipping result of skipped heat", "id", resx.ID, "heat", hx.ID)
		d.markSkipped(domain.KindHeatResult, resx.ID)
	}
}

func decodeRound(rx roundXML) (domain.Round, error) {
	a := record(domain.KindRound, rx.ID)
	id := a.integer("Id", rx.ID)
	meetingID := a.integer("MeetingElementId", rx.MeetingElementID)
	name := a.str("Name", rx.Name)
	order := a.optInteger("Order", rx.Order)
	var categoryID *int
	if strings.TrimSpace(rx.CategoryID) != "" {
		c := a.integer("CategoryId", rx.CategoryID)
		categoryID = &c
	}
	if a.err != nil {
		return domain.Round{}, a.err
	}
	return domain.NewRound(id, meetingID, categoryID, name, order)
}

func decodeResult(rx resultXML, heatID int) (domain.HeatResult, error) {
	a := record(domain.KindHeatResult, rx.ID)
	base := domain.ResultBase{
		ID:                     a.integer("Id", rx.ID),
		HeatID:                 heatID,
		TeamID:                 a.integer("TeamId", rx.TeamID),
		Lane:                   a.optInteger("Lane", rx.Lane),
		IsDisqualified:         a.optBool("IsDisqualified", rx.IsDisqualified),
		IsForfeit:              a.optBool("IsForfeit", rx.IsForfeit),
		DisqualificationReason: rx.DisqualificationReason,
	}
	switch rx.Type {
	case typeSwim:
		t := a.optInteger("Time", rx.Time)
		if a.err != nil {
			return nil, a.err
		}
		return domain.NewSwimResult(base, t)
	case typeBeach:
		pos := a.optInteger("Position", rx.Position)
		if a.err != nil {
			return nil, a.err
		}
		return domain.NewBeachResult(base, pos)
	}
	return nil, domain.MalformedEntityError{Kind: domain.KindHeatResult, ID: rx.ID, Field: "Type", Err: fmt.Errorf("unknown heat result type %q", rx.Type)}
}
