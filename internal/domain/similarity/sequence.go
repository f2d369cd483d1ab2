package similarity

// autojunkMinLength is the length of b from which very frequent elements are
// ignored when seeding matches.
const autojunkMinLength = 200

// matcher finds matching blocks between two rune sequences with the
// Ratcliff/Obershelp "gestalt" approach: take the longest common block,
// then recurse on both sides of it.
type matcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newMatcher(a, b []rune) *matcher {
	m := &matcher{a: a, b: b, b2j: make(map[rune][]int)}
	for j, r := range b {
		m.b2j[r] = append(m.b2j[r], j)
	}
	if n := len(b); n >= autojunkMinLength {
		limit := n/100 + 1
		for r, idx := range m.b2j {
			if len(idx) > limit {
				delete(m.b2j, r)
			}
		}
	}
	return m
}

// longestMatch returns the longest block a[i:i+k] == b[j:j+k] inside the given bounds.
// Ties resolve to the earliest block in a, then in b.
func (m *matcher) longestMatch(alo, ahi, blo, bhi int) (besti, bestj, bestk int) {
	besti, bestj = alo, blo
	j2len := map[int]int{}
	next := map[int]int{}
	for i := alo; i < ahi; i++ {
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len, next = next, j2len
		clear(next)
	}
	// Popular elements never seed a match but may still extend one.
	for besti > alo && bestj > blo && m.a[besti-1] == m.b[bestj-1] {
		besti, bestj, bestk = besti-1, bestj-1, bestk+1
	}
	for besti+bestk < ahi && bestj+bestk < bhi && m.a[besti+bestk] == m.b[bestj+bestk] {
		bestk++
	}
	return besti, bestj, bestk
}

// matches returns the total length of all matching blocks.
func (m *matcher) matches() int {
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	total := 0
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		i, j, k := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
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

// ratio returns 2*M/T where M is the matched length and T the combined length.
// Two empty sequences are identical.
func (m *matcher) ratio() float64 {
	t := len(m.a) + len(m.b)
	if t == 0 {
		return 1.0
	}
	return 2.0 * float64(m.matches()) / float64(t)
}

// Sequence returns the matching-blocks ratio of the normalized texts.
// Either raw text empty yields 0.
func Sequence(text1, text2 string) float64 {
	if text1 == "" || text2 == "" {
		return 0.0
	}
	return newMatcher([]rune(Normalize(text1)), []rune(Normalize(text2))).ratio()
}
