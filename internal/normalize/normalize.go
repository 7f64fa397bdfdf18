package normalize

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const DefaultThreshold = 0.7

// Normalizer snaps a near-miss query onto a known catalog name, the way a
// misspelled product name is corrected before it is embedded.
type Normalizer struct {
	names     []string
	chars     [][]string
	threshold float64
}

func New(names []string, threshold float64) *Normalizer {
	chars := make([][]string, len(names))
	for i, name := range names {
		chars[i] = strings.Split(name, "")
	}
	return &Normalizer{names: names, chars: chars, threshold: threshold}
}

// Normalize returns the best matching known name when its similarity to query
// reaches the threshold and it differs from query other than by case.
// Otherwise query is returned unchanged and the flag is false.
func (n *Normalizer) Normalize(query string) (string, bool) {
	match, _, ok := n.BestMatch(query)
	if !ok || strings.EqualFold(match, query) {
		return query, false
	}
	return match, true
}

// BestMatch returns the known name with the highest similarity ratio at or
// above the threshold. Equal ratios resolve to the lexicographically greater
// name.
func (n *Normalizer) BestMatch(query string) (string, float64, bool) {
	if len(n.names) == 0 || query == "" {
		return "", 0, false
	}

	m := difflib.NewMatcher(nil, strings.Split(query, ""))

	best, bestScore, found := "", 0.0, false
	for i, name := range n.names {
		m.SetSeq1(n.chars[i])
		if m.RealQuickRatio() < n.threshold || m.QuickRatio() < n.threshold {
			continue
		}
		score := m.Ratio()
		if score < n.threshold {
			continue
		}
		if !found || score > bestScore || (score == bestScore && name > best) {
			best, bestScore, found = name, score, true
		}
	}
	return best, bestScore, found
}
