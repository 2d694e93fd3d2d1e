// Package discipline holds the federation discipline catalogue and the
// per-discipline limits used to size heats and finals.
package discipline

import (
	"errors"
	"fmt"
	"sort"
)

// Speciality identifies the venue family a discipline belongs to.
type Speciality string

const (
	// SpecialityPool covers flat-water (swimming pool) events.
	SpecialityPool Speciality = "pool"
	// SpecialityBeach covers ocean and beach events.
	SpecialityBeach Speciality = "beach"
)

// Limits is the race-limit triple derived from a discipline code.
type Limits struct {
	MaxAthletesAllowed int
	CanExceedMax       bool
	IsFinalBAllowed    bool
}

// Discipline describes one row of the catalogue.
type Discipline struct {
	Code       int
	Name       string
	Speciality Speciality
	Relay      bool
	Limits     Limits
}

// ErrUnknownDiscipline matches every UnknownDisciplineError.
var ErrUnknownDiscipline = errors.New("unknown discipline")

// UnknownDisciplineError is returned for codes absent from the catalogue.
type UnknownDisciplineError struct {
	Code int
}

func (e UnknownDisciplineError) Error() string {
	return fmt.Sprintf("unknown discipline code %d", e.Code)
}

// Is reports whether target is ErrUnknownDiscipline.
func (e UnknownDisciplineError) Is(target error) bool {
	return target == ErrUnknownDiscipline
}

var (
	// eight-lane pool finals, B-final for the next eight
	poolFinal = Limits{MaxAthletesAllowed: 8, CanExceedMax: false, IsFinalBAllowed: true}
	// line throw runs pairs on a fixed number of stations
	lineThrow = Limits{MaxAthletesAllowed: 8, CanExceedMax: false, IsFinalBAllowed: false}
	sprint    = Limits{MaxAthletesAllowed: 10, CanExceedMax: true, IsFinalBAllowed: true}
	flags     = Limits{MaxAthletesAllowed: 16, CanExceedMax: true, IsFinalBAllowed: false}
	ocean     = Limits{MaxAthletesAllowed: 16, CanExceedMax: true, IsFinalBAllowed: false}
	endurance = Limits{MaxAthletesAllowed: 40, CanExceedMax: true, IsFinalBAllowed: false}
)

var catalogue = map[int]Discipline{
	1:  {Code: 1, Name: "50m Mannequin", Speciality: SpecialityPool, Limits: poolFinal},
	2:  {Code: 2, Name: "100m Mannequin Palmes", Speciality: SpecialityPool, Limits: poolFinal},
	3:  {Code: 3, Name: "100m Combiné", Speciality: SpecialityPool, Limits: poolFinal},
	4:  {Code: 4, Name: "100m Bouée Tube", Speciality: SpecialityPool, Limits: poolFinal},
	5:  {Code: 5, Name: "200m Obstacles", Speciality: SpecialityPool, Limits: poolFinal},
	6:  {Code: 6, Name: "200m Super Sauveteur", Speciality: SpecialityPool, Limits: poolFinal},
	7:  {Code: 7, Name: "100m Medley", Speciality: SpecialityPool, Limits: poolFinal},
	8:  {Code: 8, Name: "Lancer de Corde", Speciality: SpecialityPool, Relay: true, Limits: lineThrow},
	9:  {Code: 9, Name: "90m Sprint", Speciality: SpecialityBeach, Limits: sprint},
	10: {Code: 10, Name: "Beach Flags", Speciality: SpecialityBeach, Limits: flags},
	11: {Code: 11, Name: "2km Beach Run", Speciality: SpecialityBeach, Limits: endurance},
	12: {Code: 12, Name: "Nage en Mer", Speciality: SpecialityBeach, Limits: ocean},
	13: {Code: 13, Name: "Planche", Speciality: SpecialityBeach, Limits: ocean},
	14: {Code: 14, Name: "Surf Ski", Speciality: SpecialityBeach, Limits: ocean},
	15: {Code: 15, Name: "Oceanman", Speciality: SpecialityBeach, Limits: endurance},
	20: {Code: 20, Name: "4x25m Mannequin", Speciality: SpecialityPool, Relay: true, Limits: poolFinal},
	21: {Code: 21, Name: "4x50m Obstacles", Speciality: SpecialityPool, Relay: true, Limits: poolFinal},
	22: {Code: 22, Name: "4x50m Medley", Speciality: SpecialityPool, Relay: true, Limits: poolFinal},
	23: {Code: 23, Name: "4x50m Sauveteur", Speciality: SpecialityPool, Relay: true, Limits: poolFinal},
	30: {Code: 30, Name: "Relais Sprint 4x90m", Speciality: SpecialityBeach, Relay: true, Limits: sprint},
	31: {Code: 31, Name: "Relais Taplin", Speciality: SpecialityBeach, Relay: true, Limits: ocean},
	32: {Code: 32, Name: "Relais Océan", Speciality: SpecialityBeach, Relay: true, Limits: ocean},
	33: {Code: 33, Name: "Sauvetage Planche", Speciality: SpecialityBeach, Relay: true, Limits: ocean},
	34: {Code: 34, Name: "Sauvetage Bouée Tube", Speciality: SpecialityBeach, Relay: true, Limits: ocean},
}

// Lookup returns the limits for code.
func Lookup(code int) (Limits, error) {
	d, ok := catalogue[code]
	if !ok {
		return Limits{}, UnknownDisciplineError{Code: code}
	}
	return d.Limits, nil
}

// Describe returns the full catalogue row for code.
func Describe(code int) (Discipline, error) {
	d, ok := catalogue[code]
	if !ok {
		return Discipline{}, UnknownDisciplineError{Code: code}
	}
	return d, nil
}

// Codes lists every known discipline code in ascending order.
func Codes() []int {
	out := make([]int, 0, len(catalogue))
	for code := range catalogue {
		out = append(out, code)
	}
	sort.Ints(out)
	return out
}
