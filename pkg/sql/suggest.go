package sql

import (
	"sort"
	"strings"
	"sync"
)

// MaxSuggestions bounds the ranked correction list for a missing table name.
const MaxSuggestions = 5

// memoLimit caps the ranker's memo before it is reset. Entries are tiny, so
// a flat reset is cheaper than eviction bookkeeping.
const memoLimit = 1024

// SuggestionRanker ranks known table names against an unmatched identifier.
// Ranking is a pure function of (target, candidates); results are memoized
// so repeated lookups within a request burst do not re-score.
type SuggestionRanker struct {
	mu   sync.Mutex
	memo map[string][]string
}

// NewSuggestionRanker creates an empty ranker.
func NewSuggestionRanker() *SuggestionRanker {
	return &SuggestionRanker{memo: make(map[string][]string)}
}

// Rank scores each candidate against target and returns at most
// MaxSuggestions names, most relevant first.
//
// Score = number of distinct characters shared with the target, plus 2 when
// the candidate starts with the target's first three characters (the whole
// target when it is shorter). Ties break by lexical order so output is
// deterministic.
func (r *SuggestionRanker) Rank(target string, candidates []string) []string {
	if len(candidates) == 0 {
		return nil
	}

	target = strings.ToUpper(target)

	sorted := make([]string, len(candidates))
	for i, c := range candidates {
		sorted[i] = strings.ToUpper(c)
	}
	sort.Strings(sorted)

	key := target + "\x00" + strings.Join(sorted, "\x1f")

	r.mu.Lock()
	if cached, ok := r.memo[key]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	scores := make(map[string]int, len(sorted))
	for _, c := range sorted {
		scores[c] = scoreCandidate(target, c)
	}

	// sorted is already in lexical order, so a stable sort by score leaves
	// ties lexically ordered.
	sort.SliceStable(sorted, func(i, j int) bool {
		return scores[sorted[i]] > scores[sorted[j]]
	})

	if len(sorted) > MaxSuggestions {
		sorted = sorted[:MaxSuggestions]
	}

	r.mu.Lock()
	if len(r.memo) >= memoLimit {
		r.memo = make(map[string][]string)
	}
	r.memo[key] = sorted
	r.mu.Unlock()

	return sorted
}

func scoreCandidate(target, candidate string) int {
	targetChars := make(map[rune]struct{}, len(target))
	for _, ch := range target {
		targetChars[ch] = struct{}{}
	}

	shared := make(map[rune]struct{})
	for _, ch := range candidate {
		if _, ok := targetChars[ch]; ok {
			shared[ch] = struct{}{}
		}
	}
	score := len(shared)

	prefix := target
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if prefix != "" && strings.HasPrefix(candidate, prefix) {
		score += 2
	}

	return score
}
