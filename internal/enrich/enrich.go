// Package enrich defines the model-backed enrichment collaborator of the
// note pipeline and an Anthropic Messages API implementation of it.
package enrich

import (
	"context"
	"errors"
	"fmt"

	"github.com/pbaille/fitlog/internal/domain"
)

// ErrUnavailable is the single failure class of enrichment: bad status,
// malformed response, network failure and timeout all match it.
var ErrUnavailable = errors.New("enrichment unavailable")

var (
	// ErrTimeout is returned when the client-side deadline expires
	ErrTimeout = fmt.Errorf("%w: timeout", ErrUnavailable)
	// ErrNotConfigured is returned when no API key is set
	ErrNotConfigured = fmt.Errorf("%w: not configured", ErrUnavailable)
)

// MaxRecentNotes caps the context notes sent with a request
const MaxRecentNotes = 5

// Request is the input of one enrichment call
type Request struct {
	Raw         string
	RecentNotes []domain.Note
	Candidates  []domain.Event
}

// Response holds the model's summary and normalised events. Summary is
// never empty: it falls back to the raw text.
type Response struct {
	Summary string
	Events  []domain.Event
}

// Enricher refines heuristic candidates into a summary and events
type Enricher interface {
	Enrich(ctx context.Context, req Request) (Response, error)
}

// Disabled is used when no model is configured; every call fails with
// ErrNotConfigured so notes stay pending until retried.
type Disabled struct{}

func (Disabled) Enrich(context.Context, Request) (Response, error) {
	return Response{}, ErrNotConfigured
}
