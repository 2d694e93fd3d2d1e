// Package testutil provides import-boundary assertions shared by the
// architecture tests of the meetcore packages.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Module is the import path prefix of this repository.
const Module = "meetcore"

// Predicate reports whether an import path is forbidden.
type Predicate func(importPath string) bool

// Within matches module packages outside the listed subtrees, e.g.
// Within("pkg") forbids every meetcore import that does not live under pkg/.
func Within(subtrees ...string) Predicate {
	return func(path string) bool {
		if path != Module && !strings.HasPrefix(path, Module+"/") {
			return false
		}
		for _, s := range subtrees {
			prefix := Module + "/" + strings.Trim(s, "/")
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return false
			}
		}
		return true
	}
}

// Under matches imports of the given module subtrees.
func Under(subtrees ...string) Predicate {
	return func(path string) bool {
		for _, s := range subtrees {
			prefix := Module + "/" + strings.Trim(s, "/")
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
		}
		return false
	}
}

// Any matches when one of preds matches.
func Any(preds ...Predicate) Predicate {
	return func(path string) bool {
		for _, p := range preds {
			if p(path) {
				return true
			}
		}
		return false
	}
}

// AssertNoDirectImports parses every non-test .go file in dir and fails when
// an import satisfies forbidden. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden Predicate, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failIfViolations(t, reason, viols)
}

func directImportViolations(dir string, forbidden Predicate) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			if forbidden(path) {
				viols = append(viols, path+" (in "+name+")")
			}
		}
	}
	sort.Strings(viols)
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden imports (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
