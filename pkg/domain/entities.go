// Package domain defines the competition entities, their invariants, the
// arena-backed entity graph, and the rule evaluation primitives used by meetcore.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"meetcore/pkg/discipline"
)

// EntityKind identifies the type of record held in the graph.
type EntityKind string

// Entity kinds used in errors, violations, and the codec.
const (
	KindCompetition    EntityKind = "Competition"
	KindCategory       EntityKind = "Category"
	KindClub           EntityKind = "Club"
	KindLicensee       EntityKind = "Licensee"
	KindAthlete        EntityKind = "Athlete"
	KindReferee        EntityKind = "Referee"
	KindRefereeDate    EntityKind = "RefereeDate"
	KindRace           EntityKind = "Race"
	KindTeam           EntityKind = "Team"
	KindMeetingElement EntityKind = "MeetingElement"
	KindRound          EntityKind = "Round"
	KindHeat           EntityKind = "Heat"
	KindHeatResult     EntityKind = "HeatResult"
)

// Gender applies to licensees and races.
type Gender string

// Supported genders. Races may be mixed.
const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderMixed  Gender = "mixed"
)

// ParseGender accepts the canonical values and the federation letters F, M, X.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "female", "f":
		return GenderFemale, nil
	case "male", "m", "h":
		return GenderMale, nil
	case "mixed", "x":
		return GenderMixed, nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// RefereeLevel is the referee qualification; levels rank A < B < C < ND.
type RefereeLevel int

// Referee levels in natural rank order.
const (
	RefereeLevelA RefereeLevel = iota
	RefereeLevelB
	RefereeLevelC
	RefereeLevelND
)

func (l RefereeLevel) String() string {
	switch l {
	case RefereeLevelA:
		return "A"
	case RefereeLevelB:
		return "B"
	case RefereeLevelC:
		return "C"
	case RefereeLevelND:
		return "ND"
	}
	return fmt.Sprintf("RefereeLevel(%d)", int(l))
}

// ParseRefereeLevel parses A, B, C or ND.
func ParseRefereeLevel(s string) (RefereeLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return RefereeLevelA, nil
	case "B":
		return RefereeLevelB, nil
	case "C":
		return RefereeLevelC, nil
	case "ND", "":
		return RefereeLevelND, nil
	}
	return 0, fmt.Errorf("unknown referee level %q", s)
}

// FormatLevel names a step of a race format (series, finals).
type FormatLevel string

// Race format steps.
const (
	LevelSeries FormatLevel = "series"
	LevelFinal  FormatLevel = "final"
	LevelFinalA FormatLevel = "final_a"
	LevelFinalB FormatLevel = "final_b"
)

// ParseFormatLevel validates a format level string.
func ParseFormatLevel(s string) (FormatLevel, error) {
	switch l := FormatLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelSeries, LevelFinal, LevelFinalA, LevelFinalB:
		return l, nil
	}
	return "", fmt.Errorf("unknown format level %q", s)
}

// Competition is the root of the graph.
type Competition struct {
	ID         int
	Name       string
	Location   string
	BeginDate  time.Time
	EndDate    time.Time
	Speciality discipline.Speciality
}

// NewCompetition validates and builds a competition.
func NewCompetition(id int, name, location string, begin, end time.Time, speciality discipline.Speciality) (Competition, error) {
	sid := intID(id)
	if strings.TrimSpace(name) == "" {
		return Competition{}, malformed(KindCompetition, sid, "Name", errRequired)
	}
	begin, end = dateOf(begin), dateOf(end)
	if end.Before(begin) {
		return Competition{}, malformed(KindCompetition, sid, "EndDate", fmt.Errorf("before begin date %s", begin.Format(time.DateOnly)))
	}
	switch speciality {
	case discipline.SpecialityPool, discipline.SpecialityBeach:
	default:
		return Competition{}, malformed(KindCompetition, sid, "Speciality", fmt.Errorf("unknown speciality %q", speciality))
	}
	return Competition{ID: id, Name: name, Location: location, BeginDate: begin, EndDate: end, Speciality: speciality}, nil
}

// dateOf keeps the calendar day of t as a UTC midnight.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// hasSpace reports whether id cannot be written into a space-separated id list.
func hasSpace(id string) bool {
	return strings.ContainsFunc(id, unicode.IsSpace)
}

// Category is an age-bounded competitor class.
type Category struct {
	ID     int
	Name   string
	AgeMin int
	AgeMax int
}

// NewCategory validates and builds a category.
func NewCategory(id int, name string, ageMin, ageMax int) (Category, error) {
	sid := intID(id)
	if strings.TrimSpace(name) == "" {
		return Category{}, malformed(KindCategory, sid, "Name", errRequired)
	}
	if ageMin < 0 {
		return Category{}, malformed(KindCategory, sid, "AgeMin", errNegative)
	}
	if ageMax < ageMin {
		return Category{}, malformed(KindCategory, sid, "AgeMax", fmt.Errorf("%d below AgeMin %d", ageMax, ageMin))
	}
	return Category{ID: id, Name: name, AgeMin: ageMin, AgeMax: ageMax}, nil
}

// Accepts reports whether an athlete of the given age fits the category.
func (c Category) Accepts(age int) bool {
	return age >= c.AgeMin && age <= c.AgeMax
}

// Club groups licensees of the competition.
type Club struct {
	ID   int
	Name string
}

// NewClub validates and builds a club.
func NewClub(id int, name string) (Club, error) {
	if strings.TrimSpace(name) == "" {
		return Club{}, malformed(KindClub, intID(id), "Name", errRequired)
	}
	return Club{ID: id, Name: name}, nil
}

// Person holds the fields shared by every licensee variant.
type Person struct {
	ID          string
	FirstName   string
	LastName    string
	BirthYear   int
	Gender      Gender
	Nationality string
	ClubID      int
}

// FullName is "First Last".
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// validate checks p and stores the canonical gender.
func (p *Person) validate(kind EntityKind) error {
	if strings.TrimSpace(p.ID) == "" {
		return malformed(kind, p.ID, "ID", errRequired)
	}
	if hasSpace(p.ID) {
		return malformed(kind, p.ID, "ID", errWhitespace)
	}
	if strings.TrimSpace(p.LastName) == "" {
		return malformed(kind, p.ID, "LastName", errRequired)
	}
	if p.BirthYear < 0 {
		return malformed(kind, p.ID, "BirthYear", errNegative)
	}
	gender, err := ParseGender(string(p.Gender))
	if err != nil {
		return malformed(kind, p.ID, "Gender", err)
	}
	p.Gender = gender
	return nil
}

// Licensee is a person registered to a club. The variant set is closed:
// *Athlete and *Referee.
type Licensee interface {
	Base() Person
	Kind() EntityKind
	person() *Person
	cloneLicensee() Licensee
}

// Athlete competes in one category and may belong to several teams.
type Athlete struct {
	Person
	CategoryID int
}

// NewAthlete validates and builds an athlete.
func NewAthlete(p Person, categoryID int) (*Athlete, error) {
	if err := p.validate(KindAthlete); err != nil {
		return nil, err
	}
	return &Athlete{Person: p, CategoryID: categoryID}, nil
}

// Base returns the shared licensee fields.
func (a *Athlete) Base() Person { return a.Person }

// Kind returns KindAthlete.
func (a *Athlete) Kind() EntityKind { return KindAthlete }

func (a *Athlete) person() *Person { return &a.Person }

func (a *Athlete) cloneLicensee() Licensee {
	cp := *a
	return &cp
}

// RefereeDate records one day a referee is available.
type RefereeDate struct {
	ID   int
	Date time.Time
}

// Referee officiates; it carries an ordered list of availability dates.
type Referee struct {
	Person
	Level RefereeLevel
	Dates []RefereeDate
}

// NewReferee validates and builds a referee.
func NewReferee(p Person, level RefereeLevel, dates ...RefereeDate) (*Referee, error) {
	if err := p.validate(KindReferee); err != nil {
		return nil, err
	}
	if level < RefereeLevelA || level > RefereeLevelND {
		return nil, malformed(KindReferee, p.ID, "Level", fmt.Errorf("out of range: %d", int(level)))
	}
	r := &Referee{Person: p, Level: level}
	for _, d := range dates {
		if !r.AddDate(d) {
			return nil, malformed(KindRefereeDate, intID(d.ID), "ID", fmt.Errorf("duplicate availability date"))
		}
	}
	return r, nil
}

// Base returns the shared licensee fields.
func (r *Referee) Base() Person { return r.Person }

// Kind returns KindReferee.
func (r *Referee) Kind() EntityKind { return KindReferee }

func (r *Referee) person() *Person { return &r.Person }

func (r *Referee) cloneLicensee() Licensee {
	cp := *r
	cp.Dates = slices.Clone(r.Dates)
	return &cp
}

// AddDate appends an availability date, keeping only its calendar day. A date
// id already present is not added.
func (r *Referee) AddDate(d RefereeDate) bool {
	for _, existing := range r.Dates {
		if existing.ID == d.ID {
			return false
		}
	}
	d.Date = dateOf(d.Date)
	r.Dates = append(r.Dates, d)
	return true
}

// RemoveDate removes the availability date with the given id.
func (r *Referee) RemoveDate(id int) bool {
	for i, existing := range r.Dates {
		if existing.ID == id {
			r.Dates = append(r.Dates[:i], r.Dates[i+1:]...)
			return true
		}
	}
	return false
}

// Race is one event of the competition. Its limits derive from the discipline.
type Race struct {
	ID         int
	Name       string
	Gender     Gender
	Discipline int
	TeamSize   int
	limits     discipline.Limits
}

// NewRace validates the race and derives its limits from the discipline table.
func NewRace(id int, name string, gender Gender, disciplineCode, teamSize int) (Race, error) {
	r := Race{ID: id, Name: name, Gender: gender, Discipline: disciplineCode, TeamSize: teamSize}
	if err := r.validate(); err != nil {
		return Race{}, err
	}
	return r, nil
}

func (r *Race) validate() error {
	sid := intID(r.ID)
	if strings.TrimSpace(r.Name) == "" {
		return malformed(KindRace, sid, "Name", errRequired)
	}
	gender, err := ParseGender(string(r.Gender))
	if err != nil {
		return malformed(KindRace, sid, "Gender", err)
	}
	r.Gender = gender
	if r.TeamSize < 1 {
		return malformed(KindRace, sid, "TeamSize", fmt.Errorf("must be at least 1, got %d", r.TeamSize))
	}
	limits, err := discipline.Lookup(r.Discipline)
	if err != nil {
		return err
	}
	r.limits = limits
	return nil
}

// IsRelay reports whether teams of this race have more than one athlete.
func (r Race) IsRelay() bool { return r.TeamSize > 1 }

// Limits returns the cached discipline limits.
func (r Race) Limits() discipline.Limits { return r.limits }

// MaxAthleteAllowed is the heat/final size for the discipline.
func (r Race) MaxAthleteAllowed() int { return r.limits.MaxAthletesAllowed }

// CanExceedMaxAthleteAllowed reports whether a heat may take more entries than the cap.
func (r Race) CanExceedMaxAthleteAllowed() bool { return r.limits.CanExceedMax }

// IsFinalBAllowed reports whether the discipline runs a B final.
func (r Race) IsFinalBAllowed() bool { return r.limits.IsFinalBAllowed }

// TeamBase holds the fields shared by every team variant.
type TeamBase struct {
	ID             int
	RaceID         int
	CategoryID     int
	EntryTime      int // centiseconds
	IsForfeit      bool
	IsForfeitFinal bool
}

// Team is an entry in a race. The variant set is closed: *IndividualTeam and *RelayTeam.
type Team interface {
	Base() TeamBase
	Members() []string
	team() *TeamBase
	cloneTeam() Team
}

// IndividualTeam holds a single athlete.
type IndividualTeam struct {
	TeamBase
	AthleteID string
}

// NewIndividualTeam validates and builds an individual entry.
func NewIndividualTeam(base TeamBase, athleteID string) (*IndividualTeam, error) {
	if err := base.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(athleteID) == "" {
		return nil, malformed(KindTeam, intID(base.ID), "AthleteId", errRequired)
	}
	return &IndividualTeam{TeamBase: base, AthleteID: athleteID}, nil
}

// Base returns the shared team fields.
func (t *IndividualTeam) Base() TeamBase { return t.TeamBase }

// Members returns the single athlete id.
func (t *IndividualTeam) Members() []string { return []string{t.AthleteID} }

func (t *IndividualTeam) team() *TeamBase { return &t.TeamBase }

func (t *IndividualTeam) cloneTeam() Team {
	cp := *t
	return &cp
}

// RelayTeam holds athletes in leg order.
type RelayTeam struct {
	TeamBase
	AthleteIDs []string
}

// NewRelayTeam validates and builds a relay entry; leg order is preserved.
func NewRelayTeam(base TeamBase, athleteIDs []string) (*RelayTeam, error) {
	if err := base.validate(); err != nil {
		return nil, err
	}
	if err := validateLegs(base.ID, athleteIDs); err != nil {
		return nil, err
	}
	return &RelayTeam{TeamBase: base, AthleteIDs: slices.Clone(athleteIDs)}, nil
}

func validateLegs(teamID int, athleteIDs []string) error {
	if len(athleteIDs) == 0 {
		return malformed(KindTeam, intID(teamID), "AthleteIds", errRequired)
	}
	seen := make(map[string]struct{}, len(athleteIDs))
	for _, id := range athleteIDs {
		if strings.TrimSpace(id) == "" {
			return malformed(KindTeam, intID(teamID), "AthleteIds", fmt.Errorf("empty athlete id"))
		}
		if hasSpace(id) {
			return malformed(KindTeam, intID(teamID), "AthleteIds", fmt.Errorf("athlete id %q: %w", id, errWhitespace))
		}
		if _, dup := seen[id]; dup {
			return malformed(KindTeam, intID(teamID), "AthleteIds", fmt.Errorf("athlete %s listed twice", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Base returns the shared team fields.
func (t *RelayTeam) Base() TeamBase { return t.TeamBase }

// Members returns the athlete ids in leg order.
func (t *RelayTeam) Members() []string { return slices.Clone(t.AthleteIDs) }

func (t *RelayTeam) team() *TeamBase { return &t.TeamBase }

func (t *RelayTeam) cloneTeam() Team {
	cp := *t
	cp.AthleteIDs = slices.Clone(t.AthleteIDs)
	return &cp
}

func (b TeamBase) validate() error {
	if b.EntryTime < 0 {
		return malformed(KindTeam, intID(b.ID), "EntryTime", errNegative)
	}
	return nil
}

// RaceFormatDetail is one step of a race format configuration.
type RaceFormatDetail struct {
	Order          int
	Label          string
	Level          FormatLevel
	NumberOfHeats  int
	QualifiedCount int
}

// MeetingElement is an agenda item configuring how races run for a set of categories.
type MeetingElement struct {
	ID      int
	Name    string
	Gender  Gender
	Details []RaceFormatDetail
}

// NewMeetingElement validates and builds a meeting element; details are sorted by order.
func NewMeetingElement(id int, name string, gender Gender, details []RaceFormatDetail) (MeetingElement, error) {
	m := MeetingElement{ID: id, Name: name, Gender: gender, Details: slices.Clone(details)}
	if err := m.validate(); err != nil {
		return MeetingElement{}, err
	}
	return m, nil
}

func (m *MeetingElement) validate() error {
	sid := intID(m.ID)
	if strings.TrimSpace(m.Name) == "" {
		return malformed(KindMeetingElement, sid, "Name", errRequired)
	}
	gender, err := ParseGender(string(m.Gender))
	if err != nil {
		return malformed(KindMeetingElement, sid, "Gender", err)
	}
	m.Gender = gender
	m.Details = slices.Clone(m.Details)
	seen := make(map[int]struct{}, len(m.Details))
	for i, d := range m.Details {
		if _, dup := seen[d.Order]; dup {
			return malformed(KindMeetingElement, sid, "Details", fmt.Errorf("order %d used twice", d.Order))
		}
		seen[d.Order] = struct{}{}
		level, err := ParseFormatLevel(string(d.Level))
		if err != nil {
			return malformed(KindMeetingElement, sid, "Details", err)
		}
		m.Details[i].Level = level
		if d.NumberOfHeats < 0 || d.QualifiedCount < 0 {
			return malformed(KindMeetingElement, sid, "Details", errNegative)
		}
	}
	slices.SortStableFunc(m.Details, func(a, b RaceFormatDetail) int { return a.Order - b.Order })
	return nil
}

// Round groups heats of a meeting element, optionally restricted to one category.
type Round struct {
	ID               int
	MeetingElementID int
	CategoryID       *int
	Name             string
	Order            int
}

// NewRound validates and builds a round.
func NewRound(id, meetingElementID int, categoryID *int, name string, order int) (Round, error) {
	if strings.TrimSpace(name) == "" {
		return Round{}, malformed(KindRound, intID(id), "Name", errRequired)
	}
	r := Round{ID: id, MeetingElementID: meetingElementID, Name: name, Order: order}
	if categoryID != nil {
		c := *categoryID
		r.CategoryID = &c
	}
	return r, nil
}

func cloneRound(r Round) Round {
	if r.CategoryID != nil {
		c := *r.CategoryID
		r.CategoryID = &c
	}
	return r
}

// Heat is one run of a round.
type Heat struct {
	ID      int
	RoundID int
	Number  int
}

// NewHeat validates and builds a heat.
func NewHeat(id, roundID, number int) (Heat, error) {
	if number < 1 {
		return Heat{}, malformed(KindHeat, intID(id), "Number", fmt.Errorf("must be at least 1, got %d", number))
	}
	return Heat{ID: id, RoundID: roundID, Number: number}, nil
}

// ResultBase holds the fields shared by every heat result variant.
type ResultBase struct {
	ID                     int
	HeatID                 int
	TeamID                 int
	Lane                   int
	IsDisqualified         bool
	IsForfeit              bool
	DisqualificationReason string
}

func (b ResultBase) validate() error {
	if b.Lane < 0 {
		return malformed(KindHeatResult, intID(b.ID), "Lane", errNegative)
	}
	return nil
}

// HeatResult is a team's outcome in a heat. The variant set is closed:
// *SwimResult (timed) and *BeachResult (placed).
type HeatResult interface {
	Base() ResultBase
	result() *ResultBase
	cloneResult() HeatResult
}

// SwimResult carries a swim time in centiseconds.
type SwimResult struct {
	ResultBase
	Time int
}

// NewSwimResult validates and builds a timed result.
func NewSwimResult(base ResultBase, centiseconds int) (*SwimResult, error) {
	if err := base.validate(); err != nil {
		return nil, err
	}
	if centiseconds < 0 {
		return nil, malformed(KindHeatResult, intID(base.ID), "Time", errNegative)
	}
	return &SwimResult{ResultBase: base, Time: centiseconds}, nil
}

// Base returns the shared result fields.
func (r *SwimResult) Base() ResultBase { return r.ResultBase }

func (r *SwimResult) result() *ResultBase { return &r.ResultBase }

func (r *SwimResult) cloneResult() HeatResult {
	cp := *r
	return &cp
}

// BeachResult carries a finishing position.
type BeachResult struct {
	ResultBase
	Position int
}

// NewBeachResult validates and builds a placed result.
func NewBeachResult(base ResultBase, position int) (*BeachResult, error) {
	if err := base.validate(); err != nil {
		return nil, err
	}
	if position < 0 {
		return nil, malformed(KindHeatResult, intID(base.ID), "Position", errNegative)
	}
	return &BeachResult{ResultBase: base, Position: position}, nil
}

// Base returns the shared result fields.
func (r *BeachResult) Base() ResultBase { return r.ResultBase }

func (r *BeachResult) result() *ResultBase { return &r.ResultBase }

func (r *BeachResult) cloneResult() HeatResult {
	cp := *r
	return &cp
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities decide whether a load is accepted.
const (
	// SeverityBlock rejects the graph.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but accepts the graph.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityKind
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("graph rejected by rule %s: %s", v.Rule, v.Message)
		}
	}
	return "graph rejected by rules"
}
