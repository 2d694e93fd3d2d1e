// Package ordering provides the total-order comparers used to present
// competition collections reproducibly. Every comparer is a pure
// func(a, b T) int suitable for slices.SortStableFunc; ties keep the
// caller's insertion order.
package ordering

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"meetcore/pkg/domain"
)

// Fold removes diacritics: canonical decomposition, then every nonspacing
// mark is dropped. Case is preserved, so Fold("Émile") == "Emile".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldCase removes diacritics and applies Unicode case folding.
func FoldCase(s string) string {
	return cases.Fold().String(Fold(s))
}

func foldCaseOnly(s string) string {
	return cases.Fold().String(s)
}

// Categories orders by minimum age.
func Categories(a, b domain.Category) int {
	return cmp.Compare(a.AgeMin, b.AgeMin)
}

// Clubs orders by case-insensitive name; accented letters stay distinct.
func Clubs(a, b domain.Club) int {
	return strings.Compare(foldCaseOnly(a.Name), foldCaseOnly(b.Name))
}

// LicenseesByName orders by diacritic-folded full name.
func LicenseesByName(a, b domain.Licensee) int {
	return strings.Compare(Fold(a.Base().FullName()), Fold(b.Base().FullName()))
}

// LicenseesByClub orders club-scoped listings by folded club name followed by
// full name. clubName resolves a club id; unknown ids sort as "".
func LicenseesByClub(clubName func(clubID int) string) func(a, b domain.Licensee) int {
	key := func(l domain.Licensee) string {
		p := l.Base()
		return Fold(clubName(p.ClubID) + p.FullName())
	}
	return func(a, b domain.Licensee) int {
		return strings.Compare(key(a), key(b))
	}
}

// Referees orders by level rank (A before ND) then folded full name.
func Referees(a, b *domain.Referee) int {
	if c := cmp.Compare(a.Level, b.Level); c != 0 {
		return c
	}
	return strings.Compare(Fold(a.FullName()), Fold(b.FullName()))
}

// RaceKey is the folded composite key: name, category and gender for a race
// with exactly one category, otherwise name and gender.
func RaceKey(r domain.Race, categories []domain.Category) string {
	key := r.Name
	if len(categories) == 1 {
		key += categories[0].Name
	}
	return FoldCase(key + string(r.Gender))
}

// Races orders by RaceKey. categories resolves the categories of a race.
func Races(categories func(raceID int) []domain.Category) func(a, b domain.Race) int {
	return func(a, b domain.Race) int {
		return strings.Compare(RaceKey(a, categories(a.ID)), RaceKey(b, categories(b.ID)))
	}
}

// TeamsByClub orders by the name of the club each team represents; a relay
// represents its first athlete's club. clubName resolves a team id.
func TeamsByClub(clubName func(teamID int) string) func(a, b domain.Team) int {
	return func(a, b domain.Team) int {
		return strings.Compare(foldCaseOnly(clubName(a.Base().ID)), foldCaseOnly(clubName(b.Base().ID)))
	}
}

// TeamsByEntryTime orders by ascending entry time.
func TeamsByEntryTime(a, b domain.Team) int {
	return cmp.Compare(a.Base().EntryTime, b.Base().EntryTime)
}

// Sort stable-sorts a copy of items.
func Sort[T any](items []T, compare func(a, b T) int) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, compare)
	return out
}
