package feeds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// ErrMalformed marks a document the feed parser could not handle, as
// opposed to a transport failure. Callers distinguish the two with
// errors.Is.
var ErrMalformed = errors.New("malformed feed")

// Entry is the normalized shape of one feed item the ingestor consumes.
type Entry struct {
	Title     string
	Link      string
	Summary   string
	Published time.Time
}

// Fetcher retrieves and parses RSS/Atom feeds. It fetches over plain
// HTTP first and hands the body to gofeed, so feeds served with odd
// content types (e.g. text/plain on raw file hosts) still parse.
type Fetcher struct {
	client *http.Client
	parser *gofeed.Parser
}

// NewFetcher wires an HTTP client; a nil client gets a 20s timeout default.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Fetcher{
		client: client,
		parser: gofeed.NewParser(),
	}
}

// Fetch returns the entries of the feed at url. Transport failures come
// back as plain errors; parse failures wrap ErrMalformed.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "newsy/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, toEntry(item))
	}
	return entries, nil
}

// toEntry tolerates the two entry shapes seen in the wild: a single
// link field or a list of links, and a summary field or a content block.
func toEntry(item *gofeed.Item) Entry {
	link := strings.TrimSpace(item.Link)
	if link == "" && len(item.Links) > 0 {
		link = strings.TrimSpace(item.Links[0])
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	entry := Entry{
		Title:   strings.TrimSpace(item.Title),
		Link:    link,
		Summary: summary,
	}
	if item.PublishedParsed != nil {
		entry.Published = item.PublishedParsed.UTC()
	}
	return entry
}
