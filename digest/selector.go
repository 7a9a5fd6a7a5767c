// Package digest holds the selection, rotation and send-cycle logic
// for the daily email digest.
package digest

import (
	"sort"

	"github.com/samber/lo"

	"newsy/models"
)

// UnknownSource is the bucket for articles whose feed carried no
// display name.
const UnknownSource = "Unknown"

func sourceKey(a models.Article) string {
	if a.Source == "" {
		return UnknownSource
	}
	return a.Source
}

func moreRecent(a, b models.Article) bool {
	if !a.FetchedAt.Equal(b.FetchedAt) {
		return a.FetchedAt.After(b.FetchedAt)
	}
	// Deterministic order for articles fetched in the same batch.
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.URL < b.URL
}

// Select picks at most maxPerSource articles per source from the pool
// and orders the result. With interleave off the output is strict
// recency order; with interleave on, sources take turns so no two
// consecutive articles share a source while at least two sources still
// have articles left. Selection is deterministic for a given pool.
func Select(pool []models.Article, maxPerSource int, interleave bool) []models.Article {
	if len(pool) == 0 {
		return nil
	}

	groups := lo.GroupBy(pool, sourceKey)
	for key, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return moreRecent(group[i], group[j])
		})
		if maxPerSource > 0 && len(group) > maxPerSource {
			group = group[:maxPerSource]
		}
		groups[key] = group
	}

	if !interleave {
		flat := lo.Flatten(lo.Values(groups))
		sort.SliceStable(flat, func(i, j int) bool {
			return moreRecent(flat[i], flat[j])
		})
		return flat
	}

	keys := lo.Keys(groups)
	sort.Strings(keys)

	var selected []models.Article
	for round := 0; ; round++ {
		emitted := false
		for _, key := range keys {
			if round < len(groups[key]) {
				selected = append(selected, groups[key][round])
				emitted = true
			}
		}
		if !emitted {
			return selected
		}
	}
}
