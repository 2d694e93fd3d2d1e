package ffss

import (
	"path"
	"strings"
	"unicode"
)

// Extension is the file extension of FFSS documents.
const Extension = ".ffss"

// CleanName replaces characters that are reserved in file names on common
// filesystems (< > : " / \ | ? * and control characters) with '-'.
func CleanName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteByte('-')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DocumentKey is the storage key of a competition document: the cleaned
// competition name used both as directory and as file stem.
func DocumentKey(competitionName string) string {
	cleaned := CleanName(competitionName)
	return path.Join(cleaned, cleaned+Extension)
}

// IsDocumentKey reports whether key names an FFSS document.
func IsDocumentKey(key string) bool {
	return strings.HasSuffix(key, Extension)
}
