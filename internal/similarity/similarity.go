// Package similarity scores how alike two short texts are, for near-duplicate title detection.
package similarity

import "strings"

// Ratio returns a case-insensitive similarity score in [0, 1].
//
// The score is the Ratcliff/Obershelp ratio 2*M/T, where M counts characters
// in matching blocks and T is the combined length. Matching blocks are found
// by repeatedly taking the longest common substring and recursing on both sides.
// The greedy block choice depends on argument order, so both orders are scored
// and the larger one is returned.
func Ratio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}

	m := matches(ra, rb)
	if rev := matches(rb, ra); rev > m {
		m = rev
	}
	return 2 * float64(m) / float64(total)
}

// Duplicate reports whether two texts reach the similarity threshold.
func Duplicate(a, b string, threshold float64) bool {
	return Ratio(a, b) >= threshold
}

type span struct{ alo, ahi, blo, bhi int }

func matches(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	total := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s)
		if k == 0 {
			continue
		}
		total += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return total
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside s,
// preferring the earliest i and then the earliest j on ties.
func longestMatch(a []rune, b2j map[rune][]int, s span) (int, int, int) {
	besti, bestj, bestk := s.alo, s.blo, 0
	j2len := map[int]int{}
	for i := s.alo; i < s.ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestk
}
