package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pbaille/fitlog/internal/domain"
	"github.com/pbaille/fitlog/internal/logging"
)

// Op names the mutation that triggered a Change
type Op string

const (
	OpPut    Op = "put"
	OpDelete Op = "delete"
)

// Change describes one committed mutation
type Change struct {
	Op Op
	ID string
}

// Observer is called synchronously after every committed mutation
type Observer func(Change)

// Page is one slice of a reverse-chronological listing. NextCursor is
// passed back to List to continue after the last note of the page.
type Page struct {
	Notes      []domain.Note `json:"notes"`
	NextCursor int64         `json:"nextCursor,omitempty"`
	HasMore    bool          `json:"hasMore"`
}

// NoteStore wraps a Backend with change notification
type NoteStore struct {
	backend Backend
	log     logging.Logger

	// serializes read-modify-write cycles
	mu sync.Mutex

	obsMu     sync.Mutex
	observers []observerEntry
	nextObs   int
}

type observerEntry struct {
	id int
	fn Observer
}

func New(b Backend, log logging.Logger) *NoteStore {
	return &NoteStore{backend: b, log: logging.OrNop(log)}
}

// Backend returns the name of the active backend
func (s *NoteStore) Backend() string {
	return s.backend.Name()
}

func (s *NoteStore) Close() error {
	return s.backend.Close()
}

// Subscribe registers fn and returns a function that unregisters it
func (s *NoteStore) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.nextObs++
	id := s.nextObs
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			defer s.obsMu.Unlock()
			s.observers = slices.DeleteFunc(s.observers, func(e observerEntry) bool { return e.id == id })
		})
	}
}

func (s *NoteStore) notify(c Change) {
	s.obsMu.Lock()
	observers := slices.Clone(s.observers)
	s.obsMu.Unlock()

	for _, o := range observers {
		s.call(o.fn, c)
	}
}

// call isolates the writer from a panicking observer
func (s *NoteStore) call(fn Observer, c Change) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("store: observer panicked on %s %s: %v", c.Op, c.ID, r)
		}
	}()
	fn(c)
}

// Put inserts or replaces a note
func (s *NoteStore) Put(ctx context.Context, n domain.Note) error {
	if n.ID == "" {
		return fmt.Errorf("put note: empty id")
	}
	s.mu.Lock()
	err := s.backend.Put(ctx, n)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(Change{Op: OpPut, ID: n.ID})
	return nil
}

func (s *NoteStore) Get(ctx context.Context, id string) (domain.Note, error) {
	return s.backend.Get(ctx, id)
}

// Update applies fn to the stored note and writes the result back. It
// returns ErrNotFound when the note does not exist.
func (s *NoteStore) Update(ctx context.Context, id string, fn func(*domain.Note)) (domain.Note, error) {
	s.mu.Lock()
	n, err := s.backend.Get(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return domain.Note{}, err
	}
	fn(&n)
	n.ID = id
	err = s.backend.Put(ctx, n)
	s.mu.Unlock()
	if err != nil {
		return domain.Note{}, err
	}
	s.notify(Change{Op: OpPut, ID: id})
	return n, nil
}

// Delete removes a note. Observers are notified even when the id was unknown.
func (s *NoteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	err := s.backend.Delete(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(Change{Op: OpDelete, ID: id})
	return nil
}

// List returns about limit notes older than cursor, newest first. A zero
// cursor starts at the newest note. The cursor is a timestamp, so a page
// never ends inside a millisecond: notes sharing the timestamp of the last
// note are all included, even past limit.
func (s *NoteStore) List(ctx context.Context, cursor int64, limit int) (Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	fetch := limit + 1
	for {
		notes, err := s.backend.List(ctx, cursor, fetch)
		if err != nil {
			return Page{}, err
		}
		if len(notes) <= limit {
			page := Page{Notes: notes}
			if len(notes) > 0 {
				page.NextCursor = notes[len(notes)-1].TS
			}
			return page, nil
		}

		end := limit
		for end < len(notes) && notes[end].TS == notes[limit-1].TS {
			end++
		}
		if end == len(notes) && len(notes) == fetch {
			// the shared timestamp may continue past what was fetched
			fetch *= 2
			continue
		}
		return Page{
			Notes:      notes[:end],
			NextCursor: notes[end-1].TS,
			HasMore:    end < len(notes),
		}, nil
	}
}

// DefaultPageSize applies when List is called without a limit
const DefaultPageSize = 50

// Recent returns the n newest notes
func (s *NoteStore) Recent(ctx context.Context, n int) ([]domain.Note, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.backend.List(ctx, 0, n)
}

// All returns every note in chronological order
func (s *NoteStore) All(ctx context.Context) ([]domain.Note, error) {
	notes, err := s.backend.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	slices.Reverse(notes)
	return notes, nil
}

// Resolve expands an id prefix to the full id of a stored note. An exact
// match always wins.
func (s *NoteStore) Resolve(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", ErrNotFound
	}
	if _, err := s.Get(ctx, prefix); err == nil {
		return prefix, nil
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	notes, err := s.backend.List(ctx, 0, 0)
	if err != nil {
		return "", err
	}
	var match string
	for _, n := range notes {
		if !strings.HasPrefix(n.ID, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("resolve %q: %w", prefix, ErrAmbiguous)
		}
		match = n.ID
	}
	if match == "" {
		return "", ErrNotFound
	}
	return match, nil
}
