package ffss

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"meetcore/pkg/domain"
)

var errMissing = errors.New("required attribute missing")

// attrs parses the string attributes of one record and keeps the first
// failure as a MalformedEntityError naming the field.
type attrs struct {
	kind domain.EntityKind
	id   string
	err  error
}

func record(kind domain.EntityKind, id string) *attrs {
	return &attrs{kind: kind, id: id}
}

func (a *attrs) fail(field string, err error) {
	if a.err == nil {
		a.err = domain.MalformedEntityError{Kind: a.kind, ID: a.id, Field: field, Err: err}
	}
}

func (a *attrs) str(field, raw string) string {
	if strings.TrimSpace(raw) == "" {
		a.fail(field, errMissing)
	}
	return raw
}

func (a *attrs) integer(field, raw string) int {
	v := strings.TrimSpace(raw)
	if v == "" {
		a.fail(field, errMissing)
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		a.fail(field, err)
	}
	return n
}

func (a *attrs) optInteger(field, raw string) int {
	if strings.TrimSpace(raw) == "" {
		return 0
	}
	return a.integer(field, raw)
}

func (a *attrs) optBool(field, raw string) bool {
	v := strings.TrimSpace(raw)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		a.fail(field, err)
	}
	return b
}

func (a *attrs) date(field, raw string) time.Time {
	v := strings.TrimSpace(raw)
	if v == "" {
		a.fail(field, errMissing)
		return time.Time{}
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		a.fail(field, err)
	}
	return t
}

func (a *attrs) intList(field, raw string) []int {
	var out []int
	for _, part := range strings.Fields(raw) {
		n, err := strconv.Atoi(part)
		if err != nil {
			a.fail(field, err)
			return nil
		}
		out = append(out, n)
	}
	return out
}

func (a *attrs) gender(field, raw string) domain.Gender {
	g, err := domain.ParseGender(raw)
	if err != nil {
		a.fail(field, err)
	}
	return g
}
