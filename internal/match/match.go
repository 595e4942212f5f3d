// Package match locates the verse a reciter spoke by approximate string
// comparison over the loaded chapter's verse texts.
//
// Both the spoken transcript and every candidate pass through
// [arabic.Normalize] before scoring. The default [Substring] scorer finds the
// transcript inside a verse, so reciting the opening words of an ayah is
// enough to locate it. A score is a dissimilarity in [0, 1]:
// 0 means identical, 1 means nothing in common. A candidate is accepted when
// its score is at or below the matcher's threshold; among accepted
// candidates the lowest score wins and ties resolve to the lowest index.
package match

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"quran-player/internal/arabic"
)

// NoMatch is the index reported when no candidate clears the threshold.
const NoMatch = -1

// DefaultThreshold is the largest accepted dissimilarity.
const DefaultThreshold = 0.3

// Algorithm selects the dissimilarity function.
type Algorithm string

const (
	// Substring scores the smallest edit distance between the query and any
	// query-length window of the candidate, divided by the query length.
	// A candidate no longer than the query is scored as [Levenshtein].
	Substring Algorithm = "substring"
	// Levenshtein scores edit distance divided by the longer rune length.
	Levenshtein Algorithm = "levenshtein"
	// JaroWinkler scores one minus Jaro-Winkler similarity.
	JaroWinkler Algorithm = "jaro-winkler"
)

// IsValid reports whether a is a known algorithm.
func (a Algorithm) IsValid() bool {
	return a == Substring || a == Levenshtein || a == JaroWinkler
}

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithThreshold sets the largest accepted dissimilarity. Default: 0.3.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// WithAlgorithm sets the scoring algorithm. Default: [Substring].
func WithAlgorithm(a Algorithm) Option {
	return func(m *Matcher) {
		m.algorithm = a
	}
}

// Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	threshold float64
	algorithm Algorithm
}

// New returns a Matcher configured with opts.
func New(opts ...Option) (*Matcher, error) {
	m := &Matcher{
		threshold: DefaultThreshold,
		algorithm: Substring,
	}
	for _, o := range opts {
		o(m)
	}
	if !m.algorithm.IsValid() {
		return nil, fmt.Errorf("match: unknown algorithm %q", m.algorithm)
	}
	if m.threshold < 0 || m.threshold > 1 {
		return nil, fmt.Errorf("match: threshold %.2f is out of range [0, 1]", m.threshold)
	}
	return m, nil
}

// Threshold returns the largest accepted dissimilarity.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Result is one accepted candidate.
type Result struct {
	Index int
	Score float64
}

// FindBestMatch returns the index of the best candidate for spoken, or
// ([NoMatch], false) when nothing clears the threshold.
func (m *Matcher) FindBestMatch(spoken string, candidates []string) (int, bool) {
	best, ok := m.best(spoken, candidates)
	if !ok {
		return NoMatch, false
	}
	return best.Index, true
}

// Best is FindBestMatch that also reports the winning score.
func (m *Matcher) Best(spoken string, candidates []string) (Result, bool) {
	return m.best(spoken, candidates)
}

func (m *Matcher) best(spoken string, candidates []string) (Result, bool) {
	query := arabic.Normalize(spoken)
	if query == "" {
		return Result{Index: NoMatch}, false
	}

	best := Result{Index: NoMatch}
	for i, c := range arabic.NormalizeAll(candidates) {
		score := m.score(query, c)
		if score > m.threshold {
			continue
		}
		// Strict comparison keeps the first of equal scores.
		if best.Index == NoMatch || score < best.Score {
			best = Result{Index: i, Score: score}
		}
	}
	return best, best.Index != NoMatch
}

// Rank returns every accepted candidate ordered by score, then index.
func (m *Matcher) Rank(spoken string, candidates []string) []Result {
	query := arabic.Normalize(spoken)
	if query == "" {
		return nil
	}

	var results []Result
	for i, c := range arabic.NormalizeAll(candidates) {
		score := m.score(query, c)
		if score <= m.threshold {
			results = append(results, Result{Index: i, Score: score})
		}
	}
	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return a.Index - b.Index
	})
	return results
}

func (m *Matcher) score(a, b string) float64 {
	if a == b {
		return 0
	}
	if a == "" || b == "" {
		return 1
	}
	switch m.algorithm {
	case JaroWinkler:
		return clamp(1 - matchr.JaroWinkler(a, b, false))
	case Levenshtein:
		return levenshtein(a, b)
	default:
		return substring(a, b)
	}
}

func levenshtein(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return clamp(float64(matchr.Levenshtein(a, b)) / float64(longest))
}

// substring slides a query-length window over candidate and keeps the
// closest window.
func substring(query, candidate string) float64 {
	q := []rune(query)
	c := []rune(candidate)
	if len(c) <= len(q) {
		return levenshtein(query, candidate)
	}

	best := len(q)
	for start := 0; start+len(q) <= len(c) && best > 0; start++ {
		best = min(best, matchr.Levenshtein(query, string(c[start:start+len(q)])))
	}
	return clamp(float64(best) / float64(len(q)))
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}

var defaultMatcher = &Matcher{threshold: DefaultThreshold, algorithm: Substring}

// FindBestMatch runs the default [Substring] matcher at [DefaultThreshold].
func FindBestMatch(spoken string, candidates []string) (int, bool) {
	return defaultMatcher.FindBestMatch(spoken, candidates)
}
