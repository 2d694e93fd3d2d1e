package core

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"meetcore/internal/blob"
	"meetcore/internal/ffss"
	"meetcore/internal/importer"
	"meetcore/pkg/domain"
)

// Operation names reported to metrics recorders and tracers.
const (
	OpInitialize = "initialize"
	OpImport     = "import"
	OpLoad       = "load"
	OpSave       = "save"
	OpValidate   = "validate"
)

const documentContentType = "application/xml"

// Initialize adopts a freshly imported competition. The batch is assembled
// into a graph and evaluated by the rules engine; on any error the service
// stays empty.
func (s *Service) Initialize(ctx context.Context, batch importer.Batch) (domain.Result, error) {
	var res domain.Result
	err := s.run(ctx, OpInitialize, func(ctx context.Context) error {
		if s.graph != nil {
			return ErrAlreadyLoaded
		}
		g, err := s.assemble(batch)
		if err != nil {
			return err
		}
		res, err = s.accept(ctx, g)
		if err != nil {
			return err
		}
		s.adopt(g, ffss.DocumentKey(batch.Competition.Name), res)
		s.dirty = true
		return nil
	})
	return res, err
}

// Import fetches competition id from src and initializes the service with it.
func (s *Service) Import(ctx context.Context, src importer.Source, id int) (domain.Result, error) {
	var batch importer.Batch
	err := s.run(ctx, OpImport, func(ctx context.Context) error {
		var err error
		batch, err = src.Fetch(ctx, id)
		return err
	})
	if err != nil {
		return domain.Result{}, err
	}
	return s.Initialize(ctx, batch)
}

// Load reads and decodes the document stored at key. Storage failures are
// reported as domain.IOFailureError. A failed load leaves the service empty.
func (s *Service) Load(ctx context.Context, key string) (domain.Result, error) {
	var res domain.Result
	err := s.run(ctx, OpLoad, func(ctx context.Context) error {
		if s.graph != nil {
			return ErrAlreadyLoaded
		}
		_, rc, err := s.blobs.Get(ctx, key)
		if err != nil {
			return domain.IOFailureError{Op: OpLoad, Key: key, Err: err}
		}
		g, decodeErr := s.codec.Decode(rc)
		if closeErr := rc.Close(); closeErr != nil && decodeErr == nil {
			return domain.IOFailureError{Op: OpLoad, Key: key, Err: closeErr}
		}
		if decodeErr != nil {
			return decodeErr
		}
		res, err = s.accept(ctx, g)
		if err != nil {
			return err
		}
		s.adopt(g, key, res)
		return nil
	})
	return res, err
}

// Save encodes the current graph and writes it under the key derived from
// the competition name. The store replaces any previous document atomically.
func (s *Service) Save(ctx context.Context) (blob.Info, error) {
	var info blob.Info
	err := s.run(ctx, OpSave, func(ctx context.Context) error {
		g, err := s.loaded()
		if err != nil {
			return err
		}
		comp, _ := g.Competition()
		key := ffss.DocumentKey(comp.Name)
		var buf bytes.Buffer
		if err := s.codec.Encode(&buf, g); err != nil {
			return err
		}
		info, err = s.blobs.Put(ctx, key, &buf, blob.PutOptions{
			ContentType: documentContentType,
			Metadata: map[string]string{
				"competition-id": strconv.Itoa(comp.ID),
				"format-version": strconv.Itoa(ffss.FormatVersion),
			},
		})
		if err != nil {
			return domain.IOFailureError{Op: OpSave, Key: key, Err: err}
		}
		s.key = key
		s.dirty = false
		return nil
	})
	return info, err
}

// Reset discards the current graph.
func (s *Service) Reset() {
	if s.graph != nil {
		s.logger.Info("competition released", "key", s.key)
	}
	s.graph = nil
	s.key = ""
	s.dirty = false
	s.result = domain.Result{}
}

// Validate re-runs the rules engine against the current graph. Unlike
// Initialize and Load it reports blocking violations in the result without
// returning an error.
func (s *Service) Validate(ctx context.Context) (domain.Result, error) {
	var res domain.Result
	err := s.run(ctx, OpValidate, func(ctx context.Context) error {
		g, err := s.loaded()
		if err != nil {
			return err
		}
		res, err = s.engine.Evaluate(ctx, g)
		if err != nil {
			return err
		}
		s.result = res
		return nil
	})
	return res, err
}

// Documents lists the FFSS documents present in the store, ordered by key.
func (s *Service) Documents(ctx context.Context) ([]blob.Info, error) {
	infos, err := s.blobs.List(ctx, "")
	if err != nil {
		return nil, domain.IOFailureError{Op: "list", Err: err}
	}
	out := make([]blob.Info, 0, len(infos))
	for _, info := range infos {
		if ffss.IsDocumentKey(info.Key) {
			out = append(out, info)
		}
	}
	return out, nil
}

// Loaded reports whether a competition is held.
func (s *Service) Loaded() bool { return s.graph != nil }

// DocumentKey is the key the current competition was loaded from or last
// saved to.
func (s *Service) DocumentKey() string { return s.key }

// Dirty reports whether the graph changed since it was loaded or saved.
func (s *Service) Dirty() bool { return s.dirty }

// LastResult returns the violations of the most recent rules evaluation.
func (s *Service) LastResult() domain.Result { return s.result }

func (s *Service) adopt(g *domain.Graph, key string, res domain.Result) {
	s.graph = g
	s.key = key
	s.dirty = false
	s.result = res
	for _, v := range res.Violations {
		s.logger.Warn("rule violation", "rule", v.Rule, "severity", v.Severity, "entity", v.Entity, "id", v.EntityID, "message", v.Message)
	}
	c := g.Counts()
	s.logger.Info("competition loaded", "key", key, "clubs", c.Clubs, "athletes", c.Athletes, "races", c.Races, "teams", c.Teams)
}

func (s *Service) accept(ctx context.Context, g *domain.Graph) (domain.Result, error) {
	res, err := s.engine.Evaluate(ctx, g)
	if err != nil {
		return domain.Result{}, err
	}
	if s.failOnWarnings {
		for i := range res.Violations {
			if res.Violations[i].Severity == domain.SeverityWarn {
				res.Violations[i].Severity = domain.SeverityBlock
			}
		}
	}
	if res.HasBlocking() {
		return res, domain.RuleViolationError{Result: res}
	}
	return res, nil
}

// assemble inserts the batch into a new graph in dependency order.
func (s *Service) assemble(batch importer.Batch) (*domain.Graph, error) {
	g := domain.NewGraph()
	if err := g.SetCompetition(batch.Competition); err != nil {
		return nil, err
	}
	for _, c := range batch.Categories {
		if err := s.inserted(domain.KindCategory, strconv.Itoa(c.ID))(g.AddCategory(c)); err != nil {
			return nil, err
		}
	}
	for _, c := range batch.Clubs {
		if err := s.inserted(domain.KindClub, strconv.Itoa(c.ID))(g.AddClub(c)); err != nil {
			return nil, err
		}
	}
	for _, l := range batch.Licensees {
		if err := s.inserted(domain.KindLicensee, l.Base().ID)(g.AddLicensee(l)); err != nil {
			return nil, err
		}
	}
	for _, entry := range batch.Races {
		id := strconv.Itoa(entry.Race.ID)
		if err := s.inserted(domain.KindRace, id)(g.AddRace(entry.Race)); err != nil {
			return nil, err
		}
		for _, catID := range entry.CategoryIDs {
			if _, err := g.AddRaceCategory(entry.Race.ID, catID); err != nil {
				return nil, fmt.Errorf("race %s: %w", id, err)
			}
		}
	}
	for _, t := range batch.Teams {
		if err := s.inserted(domain.KindTeam, strconv.Itoa(t.Base().ID))(g.AddTeam(t)); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (s *Service) inserted(kind domain.EntityKind, id string) func(bool, error) error {
	return func(added bool, err error) error {
		if err != nil {
			return err
		}
		if !added {
			s.logger.Warn("duplicate record ignored", "kind", kind, "id", id)
		}
		return nil
	}
}
