package importer

// batchDTO is the on-disk layout of an import file. YAML is a superset of
// JSON so either encoding is accepted.
type batchDTO struct {
	Competition competitionDTO `yaml:"competition"`
	Categories  []categoryDTO  `yaml:"categories"`
	Clubs       []clubDTO      `yaml:"clubs"`
	Athletes    []athleteDTO   `yaml:"athletes"`
	Referees    []refereeDTO   `yaml:"referees"`
	Races       []raceDTO      `yaml:"races"`
	Teams       []teamDTO      `yaml:"teams"`
}

type competitionDTO struct {
	ID         int    `yaml:"id"`
	Name       string `yaml:"name"`
	Location   string `yaml:"location"`
	BeginDate  string `yaml:"begin_date"`
	EndDate    string `yaml:"end_date"`
	Speciality string `yaml:"speciality"`
}

type categoryDTO struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	AgeMin int    `yaml:"age_min"`
	AgeMax int    `yaml:"age_max"`
}

type clubDTO struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type personDTO struct {
	ID          string `yaml:"id"`
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	BirthYear   int    `yaml:"birth_year"`
	Gender      string `yaml:"gender"`
	Nationality string `yaml:"nationality"`
	ClubID      int    `yaml:"club_id"`
}

type athleteDTO struct {
	personDTO  `yaml:",inline"`
	CategoryID int `yaml:"category_id"`
}

type refereeDTO struct {
	personDTO `yaml:",inline"`
	Level     string   `yaml:"level"`
	Dates     []string `yaml:"dates"`
}

type raceDTO struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Gender      string `yaml:"gender"`
	Discipline  int    `yaml:"discipline"`
	TeamSize    int    `yaml:"team_size"`
	CategoryIDs []int  `yaml:"category_ids"`
}

type teamDTO struct {
	ID         int      `yaml:"id"`
	RaceID     int      `yaml:"race_id"`
	CategoryID int      `yaml:"category_id"`
	EntryTime  int      `yaml:"entry_time"`
	AthleteIDs []string `yaml:"athlete_ids"`
}
