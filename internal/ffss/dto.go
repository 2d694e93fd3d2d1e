package ffss

import "encoding/xml"

// Scalar attributes are kept as strings so decode can tell a missing attribute
// from a zero value and name the field that failed to parse.

type documentXML struct {
	XMLName         xml.Name        `xml:"FFSS"`
	Version         string          `xml:"Version,attr"`
	Competition     *competitionXML `xml:"Competition"`
	Categories      categoriesXML   `xml:"Categories"`
	Clubs           clubsXML        `xml:"Clubs"`
	Licensees       indexXML        `xml:"Licensees"`
	Races           racesXML        `xml:"Races"`
	Teams           indexXML        `xml:"Teams"`
	MeetingElements meetingsXML     `xml:"MeetingElements"`
	Rounds          roundsXML       `xml:"Rounds"`
	Heats           indexXML        `xml:"Heats"`
	HeatResults     indexXML        `xml:"HeatResults"`
}

type competitionXML struct {
	ID         string `xml:"Id,attr"`
	Name       string `xml:"Name,attr"`
	Location   string `xml:"Location,attr,omitempty"`
	BeginDate  string `xml:"BeginDate,attr"`
	EndDate    string `xml:"EndDate,attr"`
	Speciality string `xml:"Speciality,attr"`
}

type categoriesXML struct {
	Items []categoryXML `xml:"Category"`
}

type categoryXML struct {
	ID     string `xml:"Id,attr"`
	Name   string `xml:"Name,attr"`
	AgeMin string `xml:"AgeMin,attr"`
	AgeMax string `xml:"AgeMax,attr"`
}

type clubsXML struct {
	Items []clubXML `xml:"Club"`
}

type clubXML struct {
	ID        string        `xml:"Id,attr"`
	Name      string        `xml:"Name,attr"`
	Licensees []licenseeXML `xml:"Licensee"`
}

type licenseeXML struct {
	Type        string `xml:"Type,attr"`
	ID          string `xml:"Id,attr"`
	FirstName   string `xml:"FirstName,attr,omitempty"`
	LastName    string `xml:"LastName,attr"`
	BirthYear   string `xml:"BirthYear,attr,omitempty"`
	Gender      string `xml:"Gender,attr"`
	Nationality string `xml:"Nationality,attr,omitempty"`
	// athlete
	CategoryID string `xml:"CategoryId,attr,omitempty"`
	// referee
	Level string           `xml:"Level,attr,omitempty"`
	Dates []refereeDateXML `xml:"Date"`
}

type refereeDateXML struct {
	ID    string `xml:"Id,attr"`
	Value string `xml:"Value,attr"`
}

// indexXML lists the ids of an embedded collection in global order.
type indexXML struct {
	IDs string `xml:"Ids,attr"`
}

type racesXML struct {
	Items []raceXML `xml:"Race"`
}

type raceXML struct {
	ID                         string    `xml:"Id,attr"`
	Name                       string    `xml:"Name,attr"`
	Gender                     string    `xml:"Gender,attr"`
	Discipline                 string    `xml:"Discipline,attr"`
	TeamSize                   string    `xml:"TeamSize,attr"`
	CategoryIDs                string    `xml:"CategoryIds,attr,omitempty"`
	MaxAthleteAllowed          string    `xml:"MaxAthleteAllowed,attr,omitempty"`
	CanExceedMaxAthleteAllowed string    `xml:"CanExceedMaxAthleteAllowed,attr,omitempty"`
	IsFinalBAllowed            string    `xml:"IsFinalBAllowed,attr,omitempty"`
	Teams                      []teamXML `xml:"Team"`
}

type teamXML struct {
	Type           string `xml:"Type,attr"`
	ID             string `xml:"Id,attr"`
	CategoryID     string `xml:"CategoryId,attr"`
	EntryTime      string `xml:"EntryTime,attr,omitempty"`
	IsForfeit      string `xml:"IsForfeit,attr,omitempty"`
	IsForfeitFinal string `xml:"IsForfeitFinal,attr,omitempty"`
	AthleteID      string `xml:"AthleteId,attr,omitempty"`
	AthleteIDs     string `xml:"AthleteIds,attr,omitempty"`
}

type meetingsXML struct {
	Items []meetingXML `xml:"MeetingElement"`
}

type meetingXML struct {
	ID          string      `xml:"Id,attr"`
	Name        string      `xml:"Name,attr"`
	Gender      string      `xml:"Gender,attr"`
	CategoryIDs string      `xml:"CategoryIds,attr,omitempty"`
	Details     []detailXML `xml:"Detail"`
}

type detailXML struct {
	Order          string `xml:"Order,attr"`
	Label          string `xml:"Label,attr,omitempty"`
	Level          string `xml:"Level,attr"`
	NumberOfHeats  string `xml:"NumberOfHeats,attr,omitempty"`
	QualifiedCount string `xml:"QualifiedCount,attr,omitempty"`
}

type roundsXML struct {
	Items []roundXML `xml:"Round"`
}

type roundXML struct {
	ID               string    `xml:"Id,attr"`
	MeetingElementID string    `xml:"MeetingElementId,attr"`
	CategoryID       string    `xml:"CategoryId,attr,omitempty"`
	Name             string    `xml:"Name,attr"`
	Order            string    `xml:"Order,attr,omitempty"`
	Heats            []heatXML `xml:"Heat"`
}

type heatXML struct {
	ID      string      `xml:"Id,attr"`
	Number  string      `xml:"Number,attr"`
	Results []resultXML `xml:"HeatResult"`
}

type resultXML struct {
	Type                   string `xml:"Type,attr"`
	ID                     string `xml:"Id,attr"`
	TeamID                 string `xml:"TeamId,attr"`
	Lane                   string `xml:"Lane,attr,omitempty"`
	IsDisqualified         string `xml:"IsDisqualified,attr,omitempty"`
	IsForfeit              string `xml:"IsForfeit,attr,omitempty"`
	DisqualificationReason string `xml:"DisqualificationReason,attr,omitempty"`
	Time                   string `xml:"Time,attr,omitempty"`
	Position               string `xml:"Position,attr,omitempty"`
}

// Discriminator values of the Type attribute.
const (
	typeAthlete    = "athlete"
	typeReferee    = "referee"
	typeIndividual = "individual"
	typeRelay      = "relay"
	typeSwim       = "swim"
	typeBeach      = "beach"
)
