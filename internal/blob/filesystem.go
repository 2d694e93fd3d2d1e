package blob

import (
	"meetcore/internal/infra/blob/fs"
)

// NewFilesystem constructs a filesystem-backed blob.Store rooted at the provided path.
// Returns blob.Store to encourage call sites to depend on the interface instead of
// concrete implementations.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}

// LocalPath returns the file backing key when store keeps documents on the
// local filesystem.
func LocalPath(store Store, key string) (string, bool) {
	fsStore, ok := store.(*fs.Store)
	if !ok {
		return "", false
	}
	p, err := fsStore.Path(key)
	if err != nil {
		return "", false
	}
	return p, true
}
