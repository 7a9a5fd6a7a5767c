package feeds

import (
	"strings"

	"github.com/samber/lo"

	"newsy/config"
	"newsy/models"
)

// Suffixes stripped when normalizing a source name for matching. The
// order matters: "Google AI Blog" loses " blog" first and then " ai".
var keySuffixes = []string{" blog", " ai", " news", " research"}

// CanonicalKey normalizes a source name so that differently named
// entries for the same publication compare equal. This is a tunable
// heuristic, not a correctness guarantee.
func CanonicalKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range keySuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
		}
	}
	return s
}

// SameSource reports whether two feed-list names refer to the same
// logical publication: equal canonical keys, one key containing the
// other, or an equal first word.
func SameSource(a, b string) bool {
	ka, kb := CanonicalKey(a), CanonicalKey(b)
	if ka == kb || strings.Contains(ka, kb) || strings.Contains(kb, ka) {
		return true
	}
	fa, fb := strings.Fields(ka), strings.Fields(kb)
	return len(fa) > 0 && len(fb) > 0 && fa[0] == fb[0]
}

// Merge combines the curated primary list with the secondary
// fallback/additional list into one registry of logical sources.
//
// Every primary entry is emitted, picking up the URL of the first
// matching secondary entry as its fallback. Secondary entries not
// consumed as fallbacks become standalone sources unless they match a
// source that was already emitted.
func Merge(primary, secondary []config.Source) []models.LogicalSource {
	merged := make([]models.LogicalSource, 0, len(primary)+len(secondary))
	consumed := make(map[int]bool, len(secondary))

	for _, p := range primary {
		src := models.LogicalSource{Name: p.Name, PrimaryURL: p.URL}
		for i, s := range secondary {
			if SameSource(p.Name, s.Name) {
				src.FallbackURL = s.URL
				consumed[i] = true
				break
			}
		}
		merged = append(merged, src)
	}

	for i, s := range secondary {
		if consumed[i] {
			continue
		}
		name := s.Name
		known := lo.SomeBy(merged, func(m models.LogicalSource) bool {
			return SameSource(m.Name, name)
		})
		if known {
			continue
		}
		merged = append(merged, models.LogicalSource{Name: s.Name, PrimaryURL: s.URL})
	}

	return merged
}
