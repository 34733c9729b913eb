// Package fetcher reads shared web pages so they can be logged as notes
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	maxBodyBytes = 5 * 1024 * 1024
	// MaxTextRunes caps the extracted text
	MaxTextRunes = 2000
)

// Page is the readable content of a fetched URL
type Page struct {
	URL   string
	Title string
	Text  string
}

// Fetcher retrieves pages over HTTP. The zero value uses a client with a
// 30 second timeout.
type Fetcher struct {
	Client *http.Client
}

// Fetch retrieves URL content and extracts its title and readable text
func (f Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	u, err := Normalize(rawURL)
	if err != nil {
		return Page{}, err
	}

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "fitlog/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}

	title, text := extractText(string(body))
	if title == "" && text == "" {
		return Page{}, fmt.Errorf("no text content found")
	}
	return Page{URL: u, Title: title, Text: text}, nil
}

// Normalize validates rawURL and defaults its scheme to https
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(rawURL))
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL: missing host")
	}
	return u.String(), nil
}

// IsURL checks if a string looks like a URL
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}

// NoteText renders a page as journal text: the title followed by the
// start of the body.
func (p Page) NoteText() string {
	parts := make([]string, 0, 2)
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	if p.Text != "" && p.Text != p.Title {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

var skipTags = map[string]bool{
	"script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
	"noscript": true, "iframe": true,
}

// extractText parses HTML and returns the title and readable body text
func extractText(htmlContent string) (string, string) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", ""
	}

	var title string
	var sb strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "title" {
				if n.FirstChild != nil && title == "" {
					title = strings.Join(strings.Fields(n.FirstChild.Data), " ")
				}
				return
			}
			if skipTags[n.Data] {
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)

	text := strings.Join(strings.Fields(sb.String()), " ")
	if r := []rune(text); len(r) > MaxTextRunes {
		text = string(r[:MaxTextRunes]) + "..."
	}
	return title, text
}
