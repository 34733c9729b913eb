// Package pipeline turns journal text into stored notes: a synchronous
// heuristic pass and optimistic write, followed by background enrichment
// that settles the note.
//
// A note moves created -> pending -> settled. Failed enrichment leaves it
// pending with its heuristic events until RetrySmartNote is called.
//
// Notes are not locked by id. Concurrent edit and retry of the same note
// race, and the last store update wins; both paths settle to the same
// shape, so this is best-effort rather than serializable.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pbaille/fitlog/internal/domain"
	"github.com/pbaille/fitlog/internal/enrich"
	"github.com/pbaille/fitlog/internal/extract"
	"github.com/pbaille/fitlog/internal/fusion"
	"github.com/pbaille/fitlog/internal/logging"
	"github.com/pbaille/fitlog/internal/store"
)

// ErrEmptyInput is returned when the submitted text is blank
var ErrEmptyInput = errors.New("empty input")

const (
	DefaultRecentLimit = 5
	// DefaultTimeout bounds one background enrichment task
	DefaultTimeout = 10 * time.Second
)

// Options control a single submission
type Options struct {
	AutoTracking bool
	Attachments  []domain.Attachment
}

type Config struct {
	RecentLimit int
	Timeout     time.Duration
	Extractor   extract.Extractor
	Logger      logging.Logger
	// Now and NewID default to the wall clock and ULIDs
	Now   func() time.Time
	NewID func(time.Time) string
}

type Pipeline struct {
	store    *store.NoteStore
	enricher enrich.Enricher
	cfg      Config
	log      logging.Logger
	wg       sync.WaitGroup
}

func New(s *store.NoteStore, e enrich.Enricher, cfg Config) *Pipeline {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func(t time.Time) string {
			return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
		}
	}
	if e == nil {
		e = enrich.Disabled{}
	}
	return &Pipeline{store: s, enricher: e, cfg: cfg, log: logging.OrNop(cfg.Logger)}
}

// Wait blocks until every background enrichment task has finished
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// ProcessSmartNote creates a note from raw and returns its id. With
// auto-tracking off the note is stored as a manual note. Otherwise the
// heuristic events are stored right away with pending set, and enrichment
// continues in the background.
func (p *Pipeline) ProcessSmartNote(ctx context.Context, raw string, opts Options) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyInput
	}

	now := p.cfg.Now()
	n := domain.Note{
		ID:          p.cfg.NewID(now),
		TS:          now.UnixMilli(),
		Raw:         raw,
		Summary:     raw,
		Events:      domain.EventList{},
		Attachments: opts.Attachments,
	}

	if !opts.AutoTracking {
		if err := p.store.Put(ctx, n); err != nil {
			return "", err
		}
		return n.ID, nil
	}

	candidates := p.candidates(raw, n.TS)
	n.Summary = OptimisticSummary(raw)
	n.Events = candidates
	n.Pending = true
	if err := p.store.Put(ctx, n); err != nil {
		return "", err
	}

	p.enrichAsync(ctx, n.ID, raw, n.TS, candidates)
	return n.ID, nil
}

// UpdateSmartNote replaces the text of a note. Manual notes only get their
// text replaced; smart notes are re-extracted at their original timestamp.
// Unknown ids are ignored.
func (p *Pipeline) UpdateSmartNote(ctx context.Context, id, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrEmptyInput
	}

	existing, err := p.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if existing.IsManual() {
		_, err := p.store.Update(ctx, id, func(n *domain.Note) {
			n.Raw = raw
			n.Summary = raw
			n.Events = domain.EventList{}
			n.Pending = false
		})
		return ignoreNotFound(err)
	}

	candidates := p.candidates(raw, existing.TS)
	_, err = p.store.Update(ctx, id, func(n *domain.Note) {
		n.Raw = raw
		n.Summary = OptimisticSummary(raw)
		n.Events = candidates
		n.Pending = true
	})
	if err != nil {
		return ignoreNotFound(err)
	}

	p.enrichAsync(ctx, id, raw, existing.TS, candidates)
	return nil
}

// RetrySmartNote re-runs extraction and enrichment on a note's current
// text. Unknown ids are ignored.
func (p *Pipeline) RetrySmartNote(ctx context.Context, id string) error {
	existing, err := p.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	candidates := p.candidates(existing.Raw, existing.TS)
	_, err = p.store.Update(ctx, id, func(n *domain.Note) {
		n.Events = candidates
		n.Pending = true
	})
	if err != nil {
		return ignoreNotFound(err)
	}

	p.enrichAsync(ctx, id, existing.Raw, existing.TS, candidates)
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (p *Pipeline) candidates(raw string, ts int64) domain.EventList {
	res := p.cfg.Extractor.Extract(raw)
	out := make(domain.EventList, 0, len(res.Candidates))
	for _, e := range res.Candidates {
		out = append(out, domain.Stamp(e, ts, domain.SourceHeuristic))
	}
	return out
}

// recent returns the newest notes other than id
func (p *Pipeline) recent(ctx context.Context, id string) []domain.Note {
	notes, err := p.store.Recent(ctx, p.cfg.RecentLimit+1)
	if err != nil {
		p.log.Warn("pipeline: load recent notes: %v", err)
		return nil
	}
	out := make([]domain.Note, 0, p.cfg.RecentLimit)
	for _, n := range notes {
		if n.ID != id && len(out) < p.cfg.RecentLimit {
			out = append(out, n)
		}
	}
	return out
}

// enrichAsync settles the note in a background task that outlives the
// caller's context but not the pipeline timeout.
func (p *Pipeline) enrichAsync(ctx context.Context, id, raw string, ts int64, candidates domain.EventList) {
	recent := p.recent(ctx, id)
	base := context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("pipeline: enrich note %s panicked: %v", id, r)
			}
		}()

		ectx, cancel := context.WithTimeout(base, p.cfg.Timeout)
		defer cancel()
		resp, err := p.enricher.Enrich(ectx, enrich.Request{
			Raw:         raw,
			RecentNotes: recent,
			Candidates:  candidates,
		})
		if err != nil {
			timeout := errors.Is(err, enrich.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
			p.log.Warn("pipeline: enrich note %s failed (timeout=%t): %v", id, timeout, err)
			p.settle(base, id, raw, HeuristicSummary(raw, candidates), candidates, true)
			return
		}

		enriched := make([]domain.Event, 0, len(resp.Events))
		for _, e := range resp.Events {
			enriched = append(enriched, domain.Stamp(e, ts, domain.SourceModel))
		}
		merged := fusion.Merge(candidates, enriched)
		events := make(domain.EventList, 0, len(merged))
		for _, e := range merged {
			m := e.Base()
			m.TS = ts
			events = append(events, e.WithBase(m))
		}

		summary := resp.Summary
		if strings.TrimSpace(summary) == "" {
			summary = OptimisticSummary(raw)
		}
		p.settle(base, id, raw, summary, events, false)
	}()
}

// settle writes the outcome of an enrichment task. A note whose text changed
// while the task ran is left to the task started by that change.
func (p *Pipeline) settle(ctx context.Context, id, raw, summary string, events domain.EventList, pending bool) {
	stale := false
	_, err := p.store.Update(ctx, id, func(n *domain.Note) {
		if n.Raw != raw {
			stale = true
			return
		}
		n.Summary = summary
		n.Events = events
		n.Pending = pending
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		p.log.Debug("pipeline: note %s deleted before enrichment settled", id)
	case err != nil:
		p.log.Error("pipeline: settle note %s: %v", id, err)
	case stale:
		p.log.Debug("pipeline: note %s edited during enrichment", id)
	}
}
