package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// SeedLoader reads the fallback dataset once per process. Any failure yields
// an empty dataset and a warning; it never returns an error.
type SeedLoader struct {
	fsys fs.FS
	name string
	ids  IDAllocator
	log  *zap.Logger

	once     sync.Once
	products []Product
}

func NewSeedLoader(fsys fs.FS, name string, ids IDAllocator, log *zap.Logger) *SeedLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &SeedLoader{fsys: fsys, name: name, ids: ids, log: log}
}

func NewFileSeedLoader(path string, ids IDAllocator, log *zap.Logger) *SeedLoader {
	return NewSeedLoader(os.DirFS(filepath.Dir(path)), filepath.Base(path), ids, log)
}

// Products returns the memoized dataset. The slice is shared; callers must
// not modify it.
func (l *SeedLoader) Products() []Product {
	l.once.Do(func() {
		products, err := l.load()
		if err != nil {
			l.log.Warn("fallback dataset unavailable, using empty set",
				zap.String("file", l.name), zap.Error(err))
			products = []Product{}
		}
		l.products = products
	})
	return l.products
}

func (l *SeedLoader) load() ([]Product, error) {
	raw, err := fs.ReadFile(l.fsys, l.name)
	if err != nil {
		return nil, err
	}
	return DecodeSeed(raw, l.ids)
}

// DecodeSeed parses a JSON array of raw product records. Entries that are not
// objects normalize to placeholder products like any other sparse record.
func DecodeSeed(raw []byte, ids IDAllocator) ([]Product, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []Product{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var entries []any
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		m, _ := e.(map[string]any)
		records = append(records, Record(m))
	}
	return NormalizeAll(records, ids), nil
}
