package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pbaille/fitlog/internal/domain"
	"github.com/pbaille/fitlog/internal/logging"
)

const (
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	DefaultModel    = "claude-sonnet-4-20250514"
	DefaultTimeout  = 8 * time.Second

	defaultConfidence = 0.5
)

type Config struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
	// HTTPClient defaults to http.DefaultClient
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Client enriches notes via the Anthropic Messages API
type Client struct {
	endpoint string
	model    string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	log      logging.Logger
}

// New creates a Client. It fails with ErrNotConfigured without an API key.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	c := &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		http:     cfg.HTTPClient,
		log:      logging.OrNop(cfg.Logger),
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	return c, nil
}

// Enrich sends the note with its context and candidates to the model
func (c *Client) Enrich(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt, err := buildPrompt(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	text, err := c.callAPI(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := parseResponse(text, req.Raw, c.log)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

type promptNote struct {
	ID      string           `json:"id"`
	TS      int64            `json:"ts"`
	Raw     string           `json:"raw"`
	Summary string           `json:"summary"`
	Events  domain.EventList `json:"events"`
}

type promptPayload struct {
	Note        string           `json:"note"`
	RecentNotes []promptNote     `json:"recentNotes"`
	Candidates  domain.EventList `json:"candidates"`
}

func buildPrompt(req Request) (string, error) {
	payload := promptPayload{
		Note:        req.Raw,
		RecentNotes: []promptNote{},
		Candidates:  domain.EventList(req.Candidates),
	}
	for i, n := range req.RecentNotes {
		if i == MaxRecentNotes {
			break
		}
		payload.RecentNotes = append(payload.RecentNotes, promptNote{
			ID: n.ID, TS: n.TS, Raw: n.Raw, Summary: n.Summary, Events: n.Events,
		})
	}
	input, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a precise fitness assistant. Analyse this journal note and the suggested events. Return JSON only.\n\n")
	sb.WriteString(`Return a JSON object with this structure:
{
  "summary": "one or two sentences, in the language of the note, no emojis",
  "events": [
    {"id": "keep the candidate id or make a new one", "kind": "drink", "confidence": 0.9, "volumeMl": 500, "beverage": "water"}
  ]
}

Event kinds and their fields:
- drink: volumeMl (int), beverage (water|protein|coffee|tea|other)
- protein: grams, sourceLabel (optional)
- pushups: count (int)
- workout: sport (hiit_hyrox|cardio|gym|swimming|football|other), durationMin, intensity (easy|moderate|hard), notes
- rest: reason (optional)
- weight: kg
- bodyfat: percent
- food: label, calories, proteinG, carbsG, fatG (all optional except label)

Rules:
- The candidates come from a keyword matcher; use them as a starting point and correct them
- Recent notes are context only; do not repeat their events
- Confidence is 0.0-1.0; omit fields you are unsure about or lower the confidence
- Return ONLY the JSON, no other text.

Input:
`)
	sb.Write(input)
	return sb.String(), nil
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) callAPI(ctx context.Context, prompt string) (string, error) {
	body := apiRequest{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode messages request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build messages request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send messages request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read messages reply: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("messages endpoint returned %d: %s", resp.StatusCode, data)
	}

	var reply apiResponse
	if err := json.Unmarshal(data, &reply); err != nil {
		return "", fmt.Errorf("decode messages reply: %w", err)
	}
	if reply.Error != nil {
		return "", fmt.Errorf("model refused request: %s", reply.Error.Message)
	}
	if len(reply.Content) == 0 || reply.Content[0].Text == "" {
		return "", fmt.Errorf("model reply has no text")
	}
	return reply.Content[0].Text, nil
}

func parseResponse(text, raw string, log logging.Logger) (Response, error) {
	// the model sometimes wraps its JSON in a fenced block
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var parsed struct {
		Summary any               `json:"summary"`
		Events  []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return Response{}, fmt.Errorf("decode enrichment json: %w (reply: %s)", err, text)
	}

	resp := Response{Summary: raw, Events: normalizeEvents(parsed.Events, log)}
	if s, ok := parsed.Summary.(string); ok && strings.TrimSpace(s) != "" {
		resp.Summary = strings.TrimSpace(s)
	}
	return resp, nil
}

// normalizeEvents drops entries that are not objects or do not decode,
// logging each one. Kept events get an id, a confidence in [0,1] and the
// model source.
func normalizeEvents(raw []json.RawMessage, log logging.Logger) []domain.Event {
	var out []domain.Event
	for _, r := range raw {
		var head map[string]json.RawMessage
		if err := json.Unmarshal(r, &head); err != nil || head == nil {
			log.Warn("enrich: dropped event %s: not an object", r)
			continue
		}
		e, err := domain.DecodeEvent(r)
		if err != nil {
			log.Warn("enrich: dropped event %s: %v", r, err)
			continue
		}

		m := e.Base()
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if c, ok := head["confidence"]; !ok || string(c) == "null" {
			m.Confidence = defaultConfidence
		}
		m.Confidence = math.Max(0, math.Min(1, m.Confidence))
		m.Source = domain.SourceModel
		out = append(out, e.WithBase(m))
	}
	return out
}
