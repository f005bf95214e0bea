// Package tagutil implements the canonical tag slug rules: normalization to
// lowercase hyphen-separated form, validation, and fuzzy similarity used for
// duplicate detection. Everything here is pure; database-backed suggestion
// queries live in the tag repository.
package tagutil

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest raw tag name accepted, in runes.
const MaxNameLength = 50

// Defaults for the similarity and suggestion endpoints.
const (
	DefaultSimilarityThreshold = 0.8
	DefaultSimilarLimit        = 5
	DefaultSuggestLimit        = 10
)

var (
	separatorRuns = regexp.MustCompile(`[\s_]+`)
	invalidChars  = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns    = regexp.MustCompile(`-+`)
)

// Normalize converts a raw tag name to its canonical slug: lowercased,
// trimmed, spaces and underscores replaced by hyphens, every other
// non-alphanumeric character dropped, hyphen runs collapsed.
// "Toy Car" becomes "toy-car"; "  TOY  " becomes "toy".
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	n := strings.ToLower(strings.TrimSpace(raw))
	n = separatorRuns.ReplaceAllString(n, "-")
	n = invalidChars.ReplaceAllString(n, "")
	n = hyphenRuns.ReplaceAllString(n, "-")
	return strings.Trim(n, "-")
}

// Validate reports whether a raw tag name is acceptable: between 1 and
// MaxNameLength runes, and non-empty once normalized. "Toy Car" is valid
// because its slug "toy-car" is; "!!!" is not because nothing survives
// normalization.
func Validate(raw string) bool {
	if raw == "" || utf8.RuneCountInString(raw) > MaxNameLength {
		return false
	}
	return Normalize(raw) != ""
}

// Similarity returns a case-insensitive ratio in [0, 1]: 1.0 for identical
// strings, 0.0 for strings with no characters in common. The ratio is
// 2*L/(len(a)+len(b)) where L is the length of the longest common
// subsequence, measured in runes.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return 2.0 * float64(prev[len(rb)]) / float64(len(ra)+len(rb))
}

// Match is one fuzzy-match candidate returned by RankSimilar.
type Match struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// RankSimilar normalizes the input, scores it against every candidate name,
// and returns those at or above threshold: highest similarity first, ties
// broken alphabetically, at most limit entries (no cap when limit <= 0).
func RankSimilar(input string, names []string, threshold float64, limit int) []Match {
	normalized := Normalize(input)
	matches := make([]Match, 0, len(names))
	for _, name := range names {
		s := Similarity(normalized, name)
		if s >= threshold {
			matches = append(matches, Match{Name: name, Similarity: s})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Name < matches[j].Name
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
