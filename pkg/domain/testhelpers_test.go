package domain

import (
	"testing"
	"time"

	"meetcore/pkg/discipline"
)

// mustNoError simplifies tests that expect helper methods to succeed.
func mustNoError(t *testing.T, label string, err error) {
	t.Helper()
	if err != nil {
		if label == "" {
			t.Fatalf("unexpected error: %v", err)
		}
		t.Fatalf("%s: %v", label, err)
	}
}

func mustAdd(t *testing.T, label string, added bool, err error) {
	t.Helper()
	mustNoError(t, label, err)
	if !added {
		t.Fatalf("%s: expected insert", label)
	}
}

func date(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

// seedGraph builds a small pool meet: two categories, two clubs, three
// athletes, one referee, an individual race and a 4x relay.
func seedGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	mustNoError(t, "competition", g.SetCompetition(Competition{
		ID: 1, Name: "Interclubs", Location: "Brest",
		BeginDate: date("2026-03-14"), EndDate: date("2026-03-15"),
		Speciality: discipline.SpecialityPool,
	}))
	for _, c := range []Category{{ID: 3, Name: "Cadet", AgeMin: 15, AgeMax: 16}, {ID: 7, Name: "Senior", AgeMin: 19, AgeMax: 99}} {
		added, err := g.AddCategory(c)
		mustAdd(t, "category", added, err)
	}
	for _, c := range []Club{{ID: 10, Name: "Brest Sauvetage"}, {ID: 11, Name: "Quimper Côtier"}} {
		added, err := g.AddClub(c)
		mustAdd(t, "club", added, err)
	}
	athletes := []*Athlete{
		{Person: Person{ID: "A1", FirstName: "Emile", LastName: "Durand", BirthYear: 2001, Gender: GenderMale, ClubID: 10}, CategoryID: 7},
		{Person: Person{ID: "A2", FirstName: "Lea", LastName: "Martin", BirthYear: 2010, Gender: GenderFemale, ClubID: 11}, CategoryID: 3},
		{Person: Person{ID: "A3", FirstName: "Noe", LastName: "Petit", BirthYear: 1999, Gender: GenderMale, ClubID: 10}, CategoryID: 7},
	}
	for _, a := range athletes {
		added, err := g.AddLicensee(a)
		mustAdd(t, "athlete "+a.ID, added, err)
	}
	ref := &Referee{Person: Person{ID: "R1", LastName: "Leroy", Gender: GenderFemale, ClubID: 11}, Level: RefereeLevelB}
	added, err := g.AddLicensee(ref)
	mustAdd(t, "referee", added, err)

	individual, err := NewRace(100, "100m Mannequin", GenderMixed, 3, 1)
	mustNoError(t, "race", err)
	relay, err := NewRace(200, "4x50m Obstacles", GenderMixed, 20, 4)
	mustNoError(t, "relay race", err)
	for _, r := range []Race{individual, relay} {
		added, err := g.AddRace(r)
		mustAdd(t, "race", added, err)
	}
	return g
}
