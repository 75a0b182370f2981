package reconcile

import (
	"fmt"

	"github.com/vango-dev/stencil/pkg/vdom"
)

// Criteria selects which similarity checks contribute to a score.
type Criteria struct {
	Kind       bool // same node kind, weight 64
	Tag        bool // same tag, weight 32
	Attrs      bool // +1 per shared attribute name, +1 more if the values match
	AttrCount  bool // +1 for an equal number of attributes
	ChildCount bool // +1 for an equal number of children
	Deep       bool // sum of ProfileNested scores over aligned children
}

// Profile names a set of Criteria.
type Profile uint8

const (
	// ProfileDefault is used when no profile is given. It scores like
	// ProfileFull.
	ProfileDefault Profile = iota
	// ProfileFull compares two sibling candidates, children included.
	ProfileFull
	// ProfileNested is used for aligned children inside a deep comparison.
	ProfileNested
)

const (
	weightKind = 64
	weightTag  = 32
)

// Criteria returns the checks enabled by p.
func (p Profile) Criteria() Criteria {
	switch p {
	case ProfileNested:
		return Criteria{Kind: true, Tag: true, Attrs: true, AttrCount: true, ChildCount: true}
	default:
		return Criteria{Kind: true, Tag: true, Attrs: true, AttrCount: true, ChildCount: true, Deep: true}
	}
}

func (p Profile) String() string {
	switch p {
	case ProfileFull:
		return "full"
	case ProfileNested:
		return "nested"
	default:
		return "default"
	}
}

// Score computes the similarity of a and b under profile p. It does not
// memoize; the reconciler keeps its own per-call cache.
func Score(a, b *vdom.Node, p Profile) int {
	return (&scorer{}).score(a, b, p)
}

type memoKey struct {
	a, b    *vdom.Node
	profile Profile
}

// scorer memoizes scores for the duration of one Reconcile call.
type scorer struct {
	memo map[memoKey]int
}

func (s *scorer) score(a, b *vdom.Node, p Profile) int {
	if a == nil || b == nil {
		return 0
	}
	key := memoKey{a, b, p}
	if v, ok := s.memo[key]; ok {
		return v
	}

	c := p.Criteria()
	total := 0
	if c.Kind && a.Kind == b.Kind {
		total += weightKind
	}
	if c.Tag && a.Tag == b.Tag {
		total += weightTag
	}
	if c.Attrs {
		for name, av := range a.Attrs {
			if bv, ok := b.Attrs[name]; ok {
				total++
				if av == bv {
					total++
				}
			}
		}
	}
	if c.AttrCount && len(a.Attrs) == len(b.Attrs) {
		total++
	}
	if c.ChildCount && len(a.Children) == len(b.Children) {
		total++
	}
	if c.Deep {
		n := min(len(a.Children), len(b.Children))
		for i := 0; i < n; i++ {
			total += s.score(a.Children[i], b.Children[i], ProfileNested)
		}
	}

	if s.memo != nil {
		s.memo[key] = total
	}
	return total
}

// ParseProfile returns the profile named s, as printed by String.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "", "default":
		return ProfileDefault, nil
	case "full":
		return ProfileFull, nil
	case "nested":
		return ProfileNested, nil
	}
	return ProfileDefault, fmt.Errorf("unknown profile %q", s)
}
