package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DirSource reads batches from <Dir>/<competitionID>.yaml, falling back to
// <competitionID>.json.
type DirSource struct {
	Dir string
}

// NewDirSource returns a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

var extensions = []string{".yaml", ".yml", ".json"}

// Fetch implements Source.
func (s *DirSource) Fetch(ctx context.Context, competitionID int) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	for _, ext := range extensions {
		path := filepath.Join(s.Dir, strconv.Itoa(competitionID)+ext)
		b, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Batch{}, fmt.Errorf("read import file: %w", err)
		}
		return Parse(b)
	}
	return Batch{}, fmt.Errorf("%w: %d in %s", ErrCompetitionNotFound, competitionID, s.Dir)
}

// Parse decodes one import document.
func Parse(data []byte) (Batch, error) {
	var dto batchDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return Batch{}, fmt.Errorf("parse import file: %w", err)
	}
	return mapBatch(dto)
}
