package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var ErrLocatorOutsideRoot = errors.New("locator escapes the fetch root")

// LocalFetcher resolves source locators against the local filesystem. A
// non-empty root confines every locator beneath it.
type LocalFetcher struct {
	root string
}

// NewLocalFetcher creates a fetcher rooted at the given directory. An empty
// root allows absolute paths anywhere.
func NewLocalFetcher(root string) *LocalFetcher {
	return &LocalFetcher{root: root}
}

// Fetch reads the document bytes from disk.
func (f *LocalFetcher) Fetch(_ context.Context, locator string) ([]byte, error) {
	path := locator
	if f.root != "" {
		path = filepath.Join(f.root, locator)
		rel, err := filepath.Rel(f.root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, ErrLocatorOutsideRoot
		}
	}
	return os.ReadFile(path) // #nosec G304 -- locator is confined to the fetch root above
}
