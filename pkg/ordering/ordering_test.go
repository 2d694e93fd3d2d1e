package ordering

import (
	"testing"

	"meetcore/pkg/domain"
)

func athlete(id, first, last string, clubID int) *domain.Athlete {
	return &domain.Athlete{Person: domain.Person{ID: id, FirstName: first, LastName: last, Gender: domain.GenderMale, ClubID: clubID}}
}

func names(ls []domain.Licensee) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Base().FullName()
	}
	return out
}

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Émile":    "Emile",
		"Zoë":      "Zoe",
		"François": "Francois",
		"Ångström": "Angstrom",
		"plain":    "plain",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
	if got := FoldCase("ÉMILE"); got != "emile" {
		t.Fatalf("FoldCase = %q", got)
	}
}

func TestLicenseesByNameIsStable(t *testing.T) {
	in := []domain.Licensee{
		athlete("1", "Émile", "Roux", 1),
		athlete("2", "Emile", "Roux", 1),
		athlete("3", "Amélie", "Zola", 1),
	}
	got := names(Sort(in, LicenseesByName))
	want := []string{"Amélie Zola", "Émile Roux", "Emile Roux"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if names(in)[0] != "Émile Roux" {
		t.Fatalf("Sort must not reorder its input")
	}
}

func TestLicenseesByClub(t *testing.T) {
	clubs := map[int]string{1: "Étel", 2: "Brest"}
	in := []domain.Licensee{
		athlete("1", "Zoé", "Abel", 1),
		athlete("2", "Marc", "Yves", 2),
		athlete("3", "Anne", "Abel", 1),
	}
	got := names(Sort(in, LicenseesByClub(func(id int) string { return clubs[id] })))
	want := []string{"Marc Yves", "Anne Abel", "Zoé Abel"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestClubsKeepDiacritics(t *testing.T) {
	in := []domain.Club{{ID: 1, Name: "élan"}, {ID: 2, Name: "Brest"}, {ID: 3, Name: "ELAN"}, {ID: 4, Name: "alpha"}}
	got := Sort(in, Clubs)
	order := []int{got[0].ID, got[1].ID, got[2].ID, got[3].ID}
	want := []int{4, 2, 3, 1}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestCategoriesByMinimumAge(t *testing.T) {
	in := []domain.Category{{ID: 1, Name: "Senior", AgeMin: 19}, {ID: 2, Name: "Benjamin", AgeMin: 10}, {ID: 3, Name: "Master", AgeMin: 19}}
	got := Sort(in, Categories)
	if got[0].ID != 2 || got[1].ID != 1 || got[2].ID != 3 {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestRefereesByLevelThenName(t *testing.T) {
	ref := func(id, last string, level domain.RefereeLevel) *domain.Referee {
		return &domain.Referee{Person: domain.Person{ID: id, LastName: last}, Level: level}
	}
	in := []*domain.Referee{ref("1", "Zola", domain.RefereeLevelND), ref("2", "Écho", domain.RefereeLevelB), ref("3", "Dupont", domain.RefereeLevelB), ref("4", "Martin", domain.RefereeLevelA)}
	got := Sort(in, Referees)
	want := []string{"4", "3", "2", "1"}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("unexpected order at %d: %s", i, got[i].ID)
		}
	}
}

func TestRaceKey(t *testing.T) {
	r := domain.Race{ID: 1, Name: "200m Obstacles", Gender: domain.GenderFemale}
	one := []domain.Category{{ID: 1, Name: "Cadet"}}
	two := append(one, domain.Category{ID: 2, Name: "Junior"})
	if got := RaceKey(r, one); got != "200m obstaclescadetfemale" {
		t.Fatalf("single category key = %q", got)
	}
	if got := RaceKey(r, two); got != "200m obstaclesfemale" {
		t.Fatalf("multi category key = %q", got)
	}

	cats := map[int][]domain.Category{1: one, 2: nil}
	races := []domain.Race{r, {ID: 2, Name: "100m Bouée", Gender: domain.GenderMale}}
	got := Sort(races, Races(func(id int) []domain.Category { return cats[id] }))
	if got[0].ID != 2 {
		t.Fatalf("expected 100m first, got %+v", got)
	}
}

func TestTeams(t *testing.T) {
	a := &domain.IndividualTeam{TeamBase: domain.TeamBase{ID: 1, EntryTime: 9000}, AthleteID: "x"}
	b := &domain.RelayTeam{TeamBase: domain.TeamBase{ID: 2, EntryTime: 7000}, AthleteIDs: []string{"y", "z"}}
	c := &domain.IndividualTeam{TeamBase: domain.TeamBase{ID: 3, EntryTime: 7000}, AthleteID: "w"}
	in := []domain.Team{a, b, c}

	byTime := Sort(in, TeamsByEntryTime)
	if byTime[0].Base().ID != 2 || byTime[1].Base().ID != 3 || byTime[2].Base().ID != 1 {
		t.Fatalf("unexpected entry time order")
	}

	clubs := map[int]string{1: "Quimper", 2: "brest", 3: "Lorient"}
	byClub := Sort(in, TeamsByClub(func(id int) string { return clubs[id] }))
	if byClub[0].Base().ID != 2 || byClub[1].Base().ID != 3 || byClub[2].Base().ID != 1 {
		t.Fatalf("unexpected club order")
	}
}
