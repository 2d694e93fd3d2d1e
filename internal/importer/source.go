// Package importer supplies reference-consistent competition batches to the
// orchestrator's Initialize operation.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"meetcore/pkg/domain"
)

// ErrCompetitionNotFound is returned when a source holds no batch for the id.
var ErrCompetitionNotFound = errors.New("competition not found in import source")

// RaceEntry pairs a race with the categories it is open to.
type RaceEntry struct {
	Race        domain.Race
	CategoryIDs []int
}

// Batch is one fully materialised competition as delivered by an import
// source. References between records must already resolve inside the batch.
type Batch struct {
	Competition domain.Competition
	Categories  []domain.Category
	Clubs       []domain.Club
	Licensees   []domain.Licensee
	Races       []RaceEntry
	Teams       []domain.Team
}

// Source yields the batch of a competition.
type Source interface {
	Fetch(ctx context.Context, competitionID int) (Batch, error)
}

// Static serves batches held in memory. It is safe for concurrent use.
type Static struct {
	mu      sync.RWMutex
	batches map[int]Batch
}

// NewStatic returns a source holding the given batches keyed by competition id.
func NewStatic(batches ...Batch) *Static {
	s := &Static{batches: make(map[int]Batch, len(batches))}
	for _, b := range batches {
		s.batches[b.Competition.ID] = b
	}
	return s
}

// Put adds or replaces a batch.
func (s *Static) Put(b Batch) {
	s.mu.Lock()
	s.batches[b.Competition.ID] = b
	s.mu.Unlock()
}

// Fetch implements Source.
func (s *Static) Fetch(ctx context.Context, competitionID int) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	s.mu.RLock()
	b, ok := s.batches[competitionID]
	s.mu.RUnlock()
	if !ok {
		return Batch{}, fmt.Errorf("%w: %d", ErrCompetitionNotFound, competitionID)
	}
	return b, nil
}
