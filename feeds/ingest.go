package feeds

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"newsy/models"
)

// Summaries are cut to this many characters before storage.
const summaryLimit = 500

// Store is the persistence boundary the ingestor needs. The store is
// the single authority for URL dedup: inserting a URL that already
// exists is a no-op, not an error.
type Store interface {
	InsertArticleIfAbsent(ctx context.Context, item models.CandidateItem, fetchedAt time.Time) (bool, error)
	CountArticles(ctx context.Context) (int64, error)
}

// FeedSource is the narrow fetch boundary; *Fetcher implements it.
type FeedSource interface {
	Fetch(ctx context.Context, url string) ([]Entry, error)
}

// IngestStats reports one ingest run.
type IngestStats struct {
	Found int
	Added int
}

// Ingestor pulls entries from every logical source and hands unique
// candidates to the store.
type Ingestor struct {
	source   FeedSource
	store    Store
	keywords []string
	pace     time.Duration
	dryRun   bool
	now      func() time.Time
}

// IngestorOption tweaks an Ingestor.
type IngestorOption func(*Ingestor)

// WithPace overrides the delay between consecutive feed fetches.
func WithPace(d time.Duration) IngestorOption {
	return func(in *Ingestor) { in.pace = d }
}

// WithDryRun logs candidates without inserting them.
func WithDryRun(dryRun bool) IngestorOption {
	return func(in *Ingestor) { in.dryRun = dryRun }
}

// WithClock overrides the fetched-at timestamp source.
func WithClock(now func() time.Time) IngestorOption {
	return func(in *Ingestor) { in.now = now }
}

func NewIngestor(source FeedSource, store Store, keywords []string, opts ...IngestorOption) *Ingestor {
	in := &Ingestor{
		source:   source,
		store:    store,
		keywords: keywords,
		pace:     500 * time.Millisecond,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run fetches every source in the registry, bounded to perFeedLimit
// entries per source. A source whose primary feed fails (transport
// error, malformed document, or zero entries) is retried once at its
// fallback URL and otherwise skipped; failures never abort the run.
func (in *Ingestor) Run(ctx context.Context, registry []models.LogicalSource, perFeedLimit int) (IngestStats, error) {
	var stats IngestStats

	for i, src := range registry {
		if i > 0 && in.pace > 0 {
			time.Sleep(in.pace)
		}

		entries, err := in.fetchWithFallback(ctx, src)
		if err != nil {
			log.WithFields(log.Fields{
				"source": src.Name,
				"error":  err,
			}).Warn("Skipping source")
			continue
		}

		if len(entries) > perFeedLimit {
			entries = entries[:perFeedLimit]
		}

		accepted := 0
		for _, entry := range entries {
			item, ok := in.candidate(src.Name, entry)
			if !ok {
				continue
			}
			accepted++

			if in.dryRun {
				log.WithFields(log.Fields{
					"source": src.Name,
					"title":  item.Title,
				}).Info("[dry run] Would add article")
				stats.Added++
				continue
			}

			inserted, err := in.store.InsertArticleIfAbsent(ctx, item, in.now().UTC())
			if err != nil {
				log.WithFields(log.Fields{
					"url":   item.URL,
					"error": err,
				}).Error("Error inserting article")
				continue
			}
			if inserted {
				stats.Added++
			}
		}
		stats.Found += accepted

		log.WithFields(log.Fields{
			"source":  src.Name,
			"entries": len(entries),
			"kept":    accepted,
		}).Info("Fetched source")
	}

	return stats, nil
}

func (in *Ingestor) fetchWithFallback(ctx context.Context, src models.LogicalSource) ([]Entry, error) {
	entries, err := in.source.Fetch(ctx, src.PrimaryURL)
	if err == nil && len(entries) > 0 {
		return entries, nil
	}

	if src.FallbackURL == "" {
		if err != nil {
			return nil, err
		}
		return entries, nil
	}

	log.WithFields(log.Fields{
		"source": src.Name,
		"error":  err,
	}).Info("Primary feed failed, trying fallback")

	return in.source.Fetch(ctx, src.FallbackURL)
}

// candidate normalizes one entry, rejecting it when title or URL is
// missing or when a general-interest source fails the keyword filter.
func (in *Ingestor) candidate(sourceName string, entry Entry) (models.CandidateItem, bool) {
	title := strings.TrimSpace(entry.Title)
	url := strings.TrimSpace(entry.Link)
	if title == "" || url == "" {
		return models.CandidateItem{}, false
	}

	summary := truncate(stripMarkup(entry.Summary), summaryLimit)

	// Sources whose own name signals AI coverage bypass the filter.
	if !strings.Contains(strings.ToLower(sourceName), "ai") {
		if !matchesKeywords(title, summary, in.keywords) {
			return models.CandidateItem{}, false
		}
	}

	return models.CandidateItem{
		URL:     url,
		Title:   title,
		Source:  sourceName,
		Content: summary,
	}, true
}

// matchesKeywords reports whether any keyword occurs in title or
// summary, case-insensitive.
func matchesKeywords(title, summary string, keywords []string) bool {
	text := strings.ToLower(title + " " + summary)
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// stripMarkup flattens HTML markup in feed summaries to plain text.
func stripMarkup(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
