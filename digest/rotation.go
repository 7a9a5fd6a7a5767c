package digest

import (
	"context"
	"time"

	"newsy/models"
)

// RotationStore is the slice of the store the topic scheduler needs.
type RotationStore interface {
	PendingByTopic(ctx context.Context) (map[string]int, error)
	TopicsSince(ctx context.Context, cutoff time.Time) ([]string, error)
}

// ChooseTopic picks the digest topic for a cycle: the topic with the
// most unsent articles, skipping topics featured within the cooldown
// window. The cooldown is advisory — if every pending topic was used
// recently, all of them become eligible again rather than stalling the
// digest. Returns "" when no unsent article carries a topic at all, in
// which case the caller falls back to untopiced recency selection.
func ChooseTopic(ctx context.Context, store RotationStore, now time.Time, cooldownDays int) (string, error) {
	pending, err := store.PendingByTopic(ctx)
	if err != nil {
		return "", err
	}
	if len(pending) == 0 {
		return "", nil
	}

	cutoff := now.AddDate(0, 0, -cooldownDays)
	recent, err := store.TopicsSince(ctx, cutoff)
	if err != nil {
		return "", err
	}
	onCooldown := map[string]bool{}
	for _, topic := range recent {
		onCooldown[topic] = true
	}

	var eligible []string
	for _, topic := range models.Topics {
		if pending[topic] > 0 && !onCooldown[topic] {
			eligible = append(eligible, topic)
		}
	}
	if len(eligible) == 0 {
		for _, topic := range models.Topics {
			if pending[topic] > 0 {
				eligible = append(eligible, topic)
			}
		}
	}
	if len(eligible) == 0 {
		return "", nil
	}

	// Highest pending count wins; the fixed topic order breaks ties.
	best := eligible[0]
	for _, topic := range eligible[1:] {
		if pending[topic] > pending[best] {
			best = topic
		}
	}
	return best, nil
}
