package customer

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// matchScore calculates a similarity score between two names (0-100).
// Containment is scored above edit distance: "Mary Mugge" inside
// "Mary Sue Mugge" is a stronger signal than a low Levenshtein distance
// between unrelated names.
func matchScore(s1, s2 string) int {
	s1 = strings.ToUpper(strings.TrimSpace(s1))
	s2 = strings.ToUpper(strings.TrimSpace(s2))

	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	if strings.Contains(s1, s2) {
		return 75 + (25 * len(s2) / len(s1))
	}
	if strings.Contains(s2, s1) {
		return 75 + (25 * len(s1) / len(s2))
	}

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	levScore := 100 * (maxLen - levenshteinDistance(s1, s2)) / maxLen

	// Subsequence rank as a secondary signal: earlier matches score higher.
	rankScore := 0
	if rank := fuzzy.RankMatch(s2, s1); rank >= 0 && rank < len(s1) {
		rankScore = 60 - (rank * 40 / len(s1))
	}

	if levScore > rankScore {
		return levScore
	}
	return rankScore
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}
