package aggregate

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/pbaille/fitlog/internal/domain"
	"github.com/pbaille/fitlog/internal/logging"
	"github.com/pbaille/fitlog/internal/store"
)

// Watcher keeps the aggregate of a NoteStore current by recomputing it
// after every mutation.
type Watcher struct {
	store *store.NoteStore
	loc   *time.Location
	log   logging.Logger

	// refresh serializes recomputes so an older read never replaces a
	// newer aggregate
	refresh sync.Mutex

	mu       sync.RWMutex
	days     map[string]domain.Contribution
	onChange func(map[string]domain.Contribution)

	unsubscribe func()
}

// Watch computes the initial aggregate and subscribes to s
func Watch(ctx context.Context, s *store.NoteStore, loc *time.Location, log logging.Logger) (*Watcher, error) {
	w := &Watcher{store: s, loc: loc, log: logging.OrNop(log)}
	if err := w.Refresh(ctx); err != nil {
		return nil, err
	}
	w.unsubscribe = s.Subscribe(func(store.Change) {
		if err := w.Refresh(context.Background()); err != nil {
			w.log.Error("aggregate: refresh: %v", err)
		}
	})
	return w, nil
}

// Refresh recomputes the aggregate from every stored note
func (w *Watcher) Refresh(ctx context.Context) error {
	w.refresh.Lock()
	defer w.refresh.Unlock()

	notes, err := w.store.All(ctx)
	if err != nil {
		return err
	}
	days := Aggregate(notes, w.loc)

	w.mu.Lock()
	w.days = days
	fn := w.onChange
	w.mu.Unlock()

	if fn != nil {
		fn(maps.Clone(days))
	}
	return nil
}

// Snapshot returns a copy of the latest aggregate
func (w *Watcher) Snapshot() map[string]domain.Contribution {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return maps.Clone(w.days)
}

// OnChange registers fn to receive every recomputed aggregate
func (w *Watcher) OnChange(fn func(map[string]domain.Contribution)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Close stops watching the store
func (w *Watcher) Close() {
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
}
