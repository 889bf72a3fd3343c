package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/entrhq/distill/pkg/types"
)

const (
	contextPrefix = "compressed_context_"
	contextExt    = ".json"
)

// FileStore keeps compressed contexts in one output directory, one file
// per source mode: compressed_context_<mode>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("store: create output directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the output directory.
func (fs *FileStore) Dir() string {
	return fs.dir
}

// PathFor returns the file path used for a given source mode.
func (fs *FileStore) PathFor(mode string) (string, error) {
	if mode == "" || strings.ContainsAny(mode, `/\`) || mode == "." || mode == ".." {
		return "", fmt.Errorf("%w: invalid source mode %q", types.ErrInvalidArgument, mode)
	}
	return filepath.Join(fs.dir, contextPrefix+mode+contextExt), nil
}

// Save writes cc under its source mode, replacing any previous file, and
// returns the path written.
func (fs *FileStore) Save(cc *types.CompressedContext) (string, error) {
	if cc == nil {
		return "", fmt.Errorf("%w: compressed context is nil", types.ErrMissingLayer)
	}
	path, err := fs.PathFor(cc.SourceMode)
	if err != nil {
		return "", err
	}
	if err := SaveContext(path, cc); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads the context saved for mode.
func (fs *FileStore) Load(mode string) (*types.CompressedContext, error) {
	path, err := fs.PathFor(mode)
	if err != nil {
		return nil, err
	}
	return LoadContext(path)
}

// Modes lists the source modes that have a saved context, sorted.
func (fs *FileStore) Modes() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", fs.dir, err)
	}
	var modes []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, contextPrefix) || !strings.HasSuffix(name, contextExt) {
			continue
		}
		modes = append(modes, strings.TrimSuffix(strings.TrimPrefix(name, contextPrefix), contextExt))
	}
	sort.Strings(modes)
	return modes, nil
}
