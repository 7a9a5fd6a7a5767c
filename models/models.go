package models

import "time"

// Topics is the closed set of digest topics. The order is significant:
// it is the tie-break order used by topic rotation.
var Topics = []string{
	"Models",
	"Agents & Tools",
	"MCP & SKILLs",
	"Safety",
	"Industry",
}

// DefaultTopic is used when classification fails or returns a label
// outside the fixed set.
const DefaultTopic = "Industry"

// IsTopic reports whether label is one of the fixed topics.
func IsTopic(label string) bool {
	for _, t := range Topics {
		if t == label {
			return true
		}
	}
	return false
}

// LogicalSource is one publication, independent of how many feed-list
// entries describe it. The fallback URL, when set, comes from the
// secondary list and is tried once if the primary feed fails.
type LogicalSource struct {
	Name        string
	PrimaryURL  string
	FallbackURL string
}

// CandidateItem is a normalized feed entry that has not been persisted
// yet. Identity for dedup purposes is the literal URL string.
type CandidateItem struct {
	URL     string
	Title   string
	Source  string
	Content string
}

// Article is the persisted news item. Topic is set once by
// classification and never changed; Summary and Opinion are set once by
// analysis; SentAt is set exactly once at digest commit and is terminal.
type Article struct {
	ID        int64
	URL       string
	Title     string
	Source    string
	Content   string
	Summary   string
	Opinion   string
	ImageURL  string
	Topic     string
	FetchedAt time.Time
	SentAt    *time.Time
}

// Subscriber is a digest recipient. Active means confirmed and not
// unsubscribed. The confirm token doubles as the unsubscribe token in
// the rendered digest footer.
type Subscriber struct {
	ID             int64
	Email          string
	ConfirmToken   string
	Confirmed      bool
	SubscribedAt   time.Time
	UnsubscribedAt *time.Time
}

// DigestEntry is one row of the append-only digest log, recording which
// topic a sent digest represented. It only exists to compute the topic
// rotation cooldown.
type DigestEntry struct {
	ID     int64
	Topic  string
	SentAt time.Time
}
