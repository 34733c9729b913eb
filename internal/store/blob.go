package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"

	"github.com/spf13/afero"

	"github.com/pbaille/fitlog/internal/domain"
)

// Blob keeps every note in one JSON document. Sort order is re-derived on
// each read. It is the fallback when no sqlite driver works.
type Blob struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// OpenBlob returns a blob backend at path on fsys, verifying that an
// existing document is readable.
func OpenBlob(fsys afero.Fs, path string) (*Blob, error) {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	b := &Blob{fs: fsys, path: path}
	if _, err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Blob) Name() string { return "blob" }

func (b *Blob) Close() error { return nil }

func (b *Blob) load() ([]domain.Note, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var notes []domain.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("decode blob: %w", err)
	}
	return notes, nil
}

// save writes to a temp file and renames it over the blob
func (b *Blob) save(notes []domain.Note) error {
	data, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("encode blob: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := afero.WriteFile(b.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	if err := b.fs.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("replace blob: %w", err)
	}
	return nil
}

func (b *Blob) Put(_ context.Context, n domain.Note) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	notes, err := b.load()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(notes, func(o domain.Note) bool { return o.ID == n.ID })
	if i >= 0 {
		notes[i] = n
	} else {
		notes = append(notes, n)
	}
	return b.save(notes)
}

func (b *Blob) Get(_ context.Context, id string) (domain.Note, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	notes, err := b.load()
	if err != nil {
		return domain.Note{}, err
	}
	for _, n := range notes {
		if n.ID == id {
			return n, nil
		}
	}
	return domain.Note{}, ErrNotFound
}

func (b *Blob) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	notes, err := b.load()
	if err != nil {
		return err
	}
	before := len(notes)
	notes = slices.DeleteFunc(notes, func(n domain.Note) bool { return n.ID == id })
	if len(notes) == before {
		return nil
	}
	return b.save(notes)
}

func (b *Blob) List(_ context.Context, before int64, limit int) ([]domain.Note, error) {
	b.mu.Lock()
	notes, err := b.load()
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	slices.SortFunc(notes, newestFirst)
	out := notes[:0]
	for _, n := range notes {
		if before > 0 && n.TS >= before {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// newestFirst matches the sqlite ORDER BY ts DESC, id DESC
func newestFirst(a, b domain.Note) int {
	switch {
	case a.TS != b.TS:
		if a.TS > b.TS {
			return -1
		}
		return 1
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	}
	return 0
}
