package reconcile

import "github.com/vango-dev/stencil/pkg/vdom"

// record is a tentative match between a previous and a next node.
type record struct {
	prev  int // index into the previous list, -1 when unmatched
	score int
	seq   int // order in which the record was settled
}

// matcher pairs a previous sibling list with a next one.
type matcher struct {
	scores  *scorer
	profile Profile
	prev    []*vdom.Node
	next    []*vdom.Node
	recs    []record // per next index
	owner   []int    // per previous index, the next index holding it or -1
	seq     int
}

func newMatcher(s *scorer, p Profile, prev, next []*vdom.Node) *matcher {
	m := &matcher{
		scores:  s,
		profile: p,
		prev:    prev,
		next:    next,
		recs:    make([]record, len(next)),
		owner:   make([]int, len(prev)),
	}
	for i := range m.recs {
		m.recs[i].prev = -1
	}
	for i := range m.owner {
		m.owner[i] = -1
	}
	return m
}

// match fills recs and owner. Previous nodes left with owner -1 are to be
// removed; next nodes left with prev -1 are to be mounted.
func (m *matcher) match() {
	m.matchIdentity()
	m.matchKeys()

	for j, n := range m.next {
		if n.HasKey() || m.recs[j].prev >= 0 {
			continue
		}
		if j < len(m.prev) && m.owner[j] < 0 && m.eligible(j, n) {
			m.assign(j, j, m.scores.score(m.prev[j], n, m.profile))
			continue
		}
		m.place(j)
	}

	m.pullFromPool()
}

// matchIdentity pairs next nodes that are themselves previous nodes. This
// happens when a list is reconciled against itself.
func (m *matcher) matchIdentity() {
	index := make(map[*vdom.Node]int, len(m.prev))
	for i, p := range m.prev {
		if p != nil {
			index[p] = i
		}
	}
	for j, n := range m.next {
		if i, ok := index[n]; ok && m.owner[i] < 0 {
			m.assign(j, i, m.scores.score(m.prev[i], n, m.profile))
		}
	}
}

// matchKeys pairs keyed next nodes with the first unmatched previous node
// carrying an equal key and the same type.
func (m *matcher) matchKeys() {
	for j, n := range m.next {
		if !n.HasKey() || m.recs[j].prev >= 0 {
			continue
		}
		for i, p := range m.prev {
			if m.owner[i] >= 0 || !p.HasKey() || !vdom.KeysEqual(p.Key, n.Key) || !p.SameType(n) {
				continue
			}
			m.assign(j, i, m.scores.score(p, n, m.profile))
			break
		}
	}
}

// eligible reports whether previous node i may be patched into n.
func (m *matcher) eligible(i int, n *vdom.Node) bool {
	p := m.prev[i]
	return !p.HasKey() && p.SameType(n)
}

// place finds a home for next node j among the previous nodes: the best
// scoring free candidate, or a held candidate whose holder scores strictly
// lower. A displaced holder is placed again. Ties go to the lowest index.
func (m *matcher) place(j int) {
	n := m.next[j]
	best, bestScore := -1, -1
	for i := range m.prev {
		if !m.eligible(i, n) {
			continue
		}
		s := m.scores.score(m.prev[i], n, m.profile)
		if holder := m.owner[i]; holder >= 0 && (s <= m.recs[holder].score || m.next[holder] == m.prev[i]) {
			continue
		}
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return
	}

	displaced := m.owner[best]
	if displaced >= 0 {
		m.recs[displaced].prev = -1
	}
	m.assign(j, best, bestScore)
	if displaced >= 0 {
		m.place(displaced)
	}
}

// pullFromPool lets each unkeyed next node trade its match for a strictly
// better free previous node. Unmatched next nodes take the best free one.
func (m *matcher) pullFromPool() {
	for j, n := range m.next {
		if n.HasKey() {
			continue
		}
		cur := m.recs[j]
		if cur.prev >= 0 && m.prev[cur.prev] == n {
			continue
		}
		best, bestScore := -1, -1
		if cur.prev >= 0 {
			bestScore = cur.score
		}
		for i := range m.prev {
			if m.owner[i] >= 0 || !m.eligible(i, n) {
				continue
			}
			if s := m.scores.score(m.prev[i], n, m.profile); s > bestScore {
				best, bestScore = i, s
			}
		}
		if best < 0 {
			continue
		}
		if cur.prev >= 0 {
			m.owner[cur.prev] = -1
		}
		m.assign(j, best, bestScore)
	}
}

func (m *matcher) assign(j, i, score int) {
	m.recs[j] = record{prev: i, score: score, seq: m.seq}
	m.owner[i] = j
	m.seq++
}
