package digest

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"newsy/models"
)

// State is the terminal outcome of one digest cycle.
type State string

const (
	// Sent means at least one subscriber received the digest.
	Sent State = "SENT"
	// Skipped means there was nothing to send: empty selection or no
	// recipients. Nothing was mutated.
	Skipped State = "SKIPPED"
	// Failed means a digest was built but every send failed. Nothing
	// was committed, so the next run re-selects the same articles.
	Failed State = "FAILED"
)

// Store is the persistence surface the cycle drives.
type Store interface {
	RotationStore
	UnsentArticles(ctx context.Context, topic string, summarizedOnly bool) ([]models.Article, error)
	UpdateAnalysis(ctx context.Context, id int64, summary, opinion string) error
	MarkSent(ctx context.Context, ids []int64, sentAt time.Time) error
	AppendDigestEntry(ctx context.Context, topic string, sentAt time.Time) error
	ActiveSubscribers(ctx context.Context) ([]models.Subscriber, error)
}

// Analyzer produces a summary and opinion for one article.
type Analyzer interface {
	Analyze(ctx context.Context, title, content, url string) (string, string, error)
}

// Mailer delivers one rendered digest email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Renderer builds the digest subject and per-recipient HTML body.
// email.Render and email.Subject satisfy it via RenderFuncs.
type Renderer interface {
	Subject(now time.Time, count int) string
	Render(articles []models.Article, topic string, now time.Time, appURL, token string) (string, error)
}

// RenderFuncs adapts plain functions to the Renderer interface.
type RenderFuncs struct {
	SubjectFunc func(now time.Time, count int) string
	RenderFunc  func(articles []models.Article, topic string, now time.Time, appURL, token string) (string, error)
}

func (r RenderFuncs) Subject(now time.Time, count int) string {
	return r.SubjectFunc(now, count)
}

func (r RenderFuncs) Render(articles []models.Article, topic string, now time.Time, appURL, token string) (string, error) {
	return r.RenderFunc(articles, topic, now, appURL, token)
}

// Options tunes one digest cycle.
type Options struct {
	// MaxPerSource caps articles per source in the selection; 0 means
	// the default of 2.
	MaxPerSource int
	// CooldownDays is the topic rotation window.
	CooldownDays int
	// DryRun renders and counts but neither sends nor commits.
	DryRun bool
	// TestRecipient, when set, replaces the subscriber list with one
	// address and suppresses the commit step.
	TestRecipient string
	// AppURL is the public base URL used in unsubscribe links.
	AppURL string
	// Pace is the sleep between consecutive summarization calls.
	Pace time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

const defaultMaxPerSource = 2

// Result reports what one cycle did.
type Result struct {
	State    State
	Topic    string
	Articles int
	Sent     int
	Failed   int
}

// Cycle runs a complete digest pass: pick a topic, select articles,
// summarize the ones still missing a summary, send to every active
// subscriber, then commit. The commit (mark-sent plus rotation log)
// happens only after at least one successful send, so a crash or a
// fully failed send leaves every article eligible for the next run.
type Cycle struct {
	store    Store
	analyzer Analyzer
	mailer   Mailer
	renderer Renderer
	opts     Options
}

func NewCycle(store Store, analyzer Analyzer, mailer Mailer, renderer Renderer, opts Options) *Cycle {
	if opts.MaxPerSource <= 0 {
		opts.MaxPerSource = defaultMaxPerSource
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cycle{
		store:    store,
		analyzer: analyzer,
		mailer:   mailer,
		renderer: renderer,
		opts:     opts,
	}
}

func (c *Cycle) Run(ctx context.Context) (Result, error) {
	now := c.opts.Now()

	topic, err := ChooseTopic(ctx, c.store, now, c.opts.CooldownDays)
	if err != nil {
		return Result{}, err
	}

	// With a topic, unsummarized articles are allowed in and
	// summarized just in time below. Without one, fall back to plain
	// recency across articles that already have a summary.
	pool, err := c.store.UnsentArticles(ctx, topic, topic == "")
	if err != nil {
		return Result{}, err
	}

	selected := Select(pool, c.opts.MaxPerSource, true)
	if len(selected) == 0 {
		log.WithField("topic", topic).Info("No articles selected, skipping digest")
		return Result{State: Skipped, Topic: topic}, nil
	}

	c.summarize(ctx, selected)

	subscribers, err := c.recipients(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(subscribers) == 0 {
		log.Info("No active subscribers, skipping digest")
		return Result{State: Skipped, Topic: topic, Articles: len(selected)}, nil
	}

	result := Result{Topic: topic, Articles: len(selected)}
	subject := c.renderer.Subject(now, len(selected))

	for _, sub := range subscribers {
		if c.opts.DryRun {
			log.WithFields(log.Fields{
				"email":    sub.Email,
				"articles": len(selected),
			}).Info("Dry run, would send digest")
			result.Sent++
			continue
		}

		html, err := c.renderer.Render(selected, topic, now, c.opts.AppURL, sub.ConfirmToken)
		if err != nil {
			return Result{}, err
		}

		if err := c.mailer.Send(ctx, sub.Email, subject, html); err != nil {
			log.WithError(err).WithField("email", sub.Email).Error("Failed to send digest")
			result.Failed++
			continue
		}
		result.Sent++
	}

	if result.Sent > 0 {
		result.State = Sent
	} else {
		result.State = Failed
	}

	if result.Sent > 0 && !c.opts.DryRun && c.opts.TestRecipient == "" {
		ids := make([]int64, 0, len(selected))
		for _, a := range selected {
			ids = append(ids, a.ID)
		}
		if err := c.store.MarkSent(ctx, ids, now); err != nil {
			return result, err
		}
		if topic != "" {
			if err := c.store.AppendDigestEntry(ctx, topic, now); err != nil {
				return result, err
			}
		}
		log.WithFields(log.Fields{
			"articles": len(ids),
			"topic":    topic,
		}).Info("Digest committed")
	}

	return result, nil
}

// summarize fills in missing summaries for the selected articles, in
// selection order. A failure leaves that article with an empty summary
// and the cycle carries on.
func (c *Cycle) summarize(ctx context.Context, selected []models.Article) {
	for i := range selected {
		a := &selected[i]
		if a.Summary != "" {
			continue
		}

		summary, opinion, err := c.analyzer.Analyze(ctx, a.Title, a.Content, a.URL)
		if err != nil {
			log.WithError(err).WithField("title", a.Title).Warn("Summarization failed, sending without summary")
			continue
		}

		a.Summary = summary
		a.Opinion = opinion
		if !c.opts.DryRun {
			if err := c.store.UpdateAnalysis(ctx, a.ID, summary, opinion); err != nil {
				log.WithError(err).WithField("id", a.ID).Error("Failed to persist summary")
			}
		}

		if c.opts.Pace > 0 && i < len(selected)-1 {
			time.Sleep(c.opts.Pace)
		}
	}
}

func (c *Cycle) recipients(ctx context.Context) ([]models.Subscriber, error) {
	if c.opts.TestRecipient != "" {
		return []models.Subscriber{{Email: c.opts.TestRecipient}}, nil
	}
	return c.store.ActiveSubscribers(ctx)
}
