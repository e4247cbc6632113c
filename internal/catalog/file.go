package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"log/slog"

	"github.com/mvcampos/vendabot/core/logger"
)

// FileStore keeps the catalog in a single JSON array on disk, the default
// backend. Writes go through a temp file and rename so a crash never leaves
// a half-written document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore uses path as the catalog document. The file is created lazily
// on first save; a missing file reads as an empty catalog.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) List(ctx context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *FileStore) Save(ctx context.Context, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items == nil {
		items = []Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: encode: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("catalog: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("catalog: replace %s: %w", s.path, err)
	}

	logger.Debug(ctx, "store", "catalog.save",
		slog.String("path", filepath.Base(s.path)),
		slog.Int("count", len(items)),
	)
	return nil
}

func (s *FileStore) FindByID(ctx context.Context, id int) (Item, error) {
	items, err := s.List(ctx)
	if err != nil {
		return Item{}, err
	}
	return findByID(items, id)
}

func (s *FileStore) load(ctx context.Context) ([]Item, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("catalog: read %s: %w", s.path, err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Error(ctx, "store", "catalog.load",
			slog.String("path", filepath.Base(s.path)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("catalog: decode %s: %w", s.path, err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func findByID(items []Item, id int) (Item, error) {
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return Item{}, ErrNotFound
}
