package reconcile

import (
	"log/slog"
	"slices"

	"github.com/vango-dev/stencil/internal/errors"
	"github.com/vango-dev/stencil/pkg/vdom"
)

// Stats counts the work done by one Reconcile call.
type Stats struct {
	Created int // host nodes created
	Removed int // subtrees detached
	Moved   int // existing host nodes re-inserted at a new position
	Updated int // attribute and text writes
	Reused  int // virtual nodes patched in place
}

// Mutations returns the number of host mutations, counting each created
// node once.
func (s Stats) Mutations() int {
	return s.Created + s.Removed + s.Moved + s.Updated
}

// Reconciler applies virtual trees to a Host. It is not safe for concurrent
// use; callers serialize passes over the same host subtree.
type Reconciler struct {
	host    Host
	events  EventBinder
	logger  *slog.Logger
	profile Profile
	last    Stats
}

// New creates a Reconciler for host. When host also implements EventBinder,
// node event handlers are bound on mount and on every patch.
func New(host Host, opts ...Option) *Reconciler {
	r := &Reconciler{
		host:    host,
		logger:  slog.Default(),
		profile: ProfileFull,
	}
	r.events, _ = host.(EventBinder)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Host returns the host the reconciler mutates.
func (r *Reconciler) Host() Host { return r.host }

// Stats returns the counters of the last Reconcile call.
func (r *Reconciler) Stats() Stats { return r.last }

// Reconcile makes the children of parent match next, given that prev is the
// list rendered there by the previous call. It returns the list to pass as
// prev next time. Host nodes are transferred from prev to next; prev must
// not be used afterwards.
func (r *Reconciler) Reconcile(parent any, prev, next []*vdom.Node) ([]*vdom.Node, error) {
	p := &pass{r: r, scores: &scorer{memo: make(map[memoKey]int)}}
	out, err := p.list(parent, prev, next)
	r.last = p.stats
	if err != nil {
		r.logger.Error("reconcile failed", "error", err)
		return nil, err
	}
	r.logger.Debug("reconciled",
		"nodes", len(out),
		"created", p.stats.Created,
		"removed", p.stats.Removed,
		"moved", p.stats.Moved,
		"updated", p.stats.Updated,
		"reused", p.stats.Reused,
	)
	return out, nil
}

// pass holds the state of one Reconcile call.
type pass struct {
	r      *Reconciler
	scores *scorer
	stats  Stats
}

func (p *pass) list(parent any, prev, next []*vdom.Node) ([]*vdom.Node, error) {
	prev = compact(prev)
	next = compact(next)

	if len(next) == 0 {
		for _, n := range prev {
			if err := p.remove(n); err != nil {
				return nil, err
			}
		}
		return []*vdom.Node{}, nil
	}

	if len(prev) == 0 {
		for j, n := range next {
			h, err := p.create(n)
			if err != nil {
				return nil, err
			}
			p.r.host.InsertBefore(parent, h, nil)
			n.Index = j
		}
		return next, nil
	}

	m := newMatcher(p.scores, p.r.profile, prev, next)
	m.match()

	// Check everything before the first mutation of this list.
	for _, n := range prev {
		if n.HostRef == nil {
			return nil, structural(errors.CodeMissingHostRef, n)
		}
	}
	for j, n := range next {
		if m.recs[j].prev < 0 {
			if err := checkUnmounted(n); err != nil {
				return nil, err
			}
		}
	}

	// Host nodes that stay, in their current order.
	cur := make([]any, 0, len(prev))
	for i, n := range prev {
		if m.owner[i] >= 0 {
			cur = append(cur, n.HostRef)
		}
	}

	for i, n := range prev {
		if m.owner[i] < 0 {
			if err := p.remove(n); err != nil {
				return nil, err
			}
		}
	}

	fresh := make(map[int]bool)
	for j, n := range next {
		if i := m.recs[j].prev; i >= 0 {
			if err := p.patch(prev[i], n); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := p.create(n); err != nil {
			return nil, err
		}
		fresh[j] = true
	}

	for j, n := range next {
		n.Index = j
		want := n.HostRef
		if j < len(cur) && cur[j] == want {
			continue
		}
		var ref any
		if j < len(cur) {
			ref = cur[j]
		}
		p.r.host.InsertBefore(parent, want, ref)
		if !fresh[j] {
			p.stats.Moved++
		}
		if k := slices.Index(cur, want); k >= 0 {
			cur = slices.Delete(cur, k, k+1)
		}
		cur = slices.Insert(cur, min(j, len(cur)), want)
	}
	return next, nil
}

// create builds the host subtree for n without attaching it.
func (p *pass) create(n *vdom.Node) (any, error) {
	if n.HostRef != nil {
		return nil, structural(errors.CodeAlreadyMounted, n)
	}
	host := p.r.host

	var h any
	switch n.Kind {
	case vdom.KindElement:
		h = host.CreateElement(n.Tag)
		for _, name := range vdom.SortedAttrNames(n.Attrs) {
			host.SetAttribute(h, name, n.Attrs[name])
		}
		n.Children = compact(n.Children)
		for i, c := range n.Children {
			ch, err := p.create(c)
			if err != nil {
				return nil, err
			}
			host.InsertBefore(h, ch, nil)
			c.Index = i
		}
	case vdom.KindText:
		h = host.CreateText(n.Content)
	case vdom.KindComment:
		h = host.CreateComment(n.Content)
	default:
		return nil, structural(errors.CodeUnknownKind, n)
	}

	n.HostRef = h
	p.stats.Created++
	if p.r.events != nil && len(n.Events) > 0 {
		p.r.events.BindEvents(h, n.Events)
	}
	return h, nil
}

// patch moves the host node of prev to next and writes the differences.
func (p *pass) patch(prev, next *vdom.Node) error {
	host := p.r.host
	h := prev.HostRef
	prev.HostRef = nil
	next.HostRef = h
	p.stats.Reused++

	switch next.Kind {
	case vdom.KindElement:
		for _, name := range vdom.SortedAttrNames(next.Attrs) {
			v := next.Attrs[name]
			if old, ok := prev.Attrs[name]; !ok || old != v {
				host.SetAttribute(h, name, v)
				p.stats.Updated++
			}
		}
		for _, name := range vdom.SortedAttrNames(prev.Attrs) {
			if _, ok := next.Attrs[name]; !ok {
				host.RemoveAttribute(h, name)
				p.stats.Updated++
			}
		}
		children, err := p.list(h, prev.Children, next.Children)
		if err != nil {
			return err
		}
		next.Children = children

	case vdom.KindText, vdom.KindComment:
		if prev.Content != next.Content {
			host.SetText(h, next.Content)
			p.stats.Updated++
		}
	}

	if p.r.events != nil && (len(next.Events) > 0 || len(prev.Events) > 0) {
		p.r.events.BindEvents(h, next.Events)
	}
	return nil
}

// remove detaches the host node of n and clears the refs of its subtree.
func (p *pass) remove(n *vdom.Node) error {
	if n.HostRef == nil {
		return structural(errors.CodeMissingHostRef, n)
	}
	p.r.host.Remove(n.HostRef)
	vdom.Walk([]*vdom.Node{n}, func(c *vdom.Node) bool {
		c.HostRef = nil
		return true
	})
	p.stats.Removed++
	return nil
}

func checkUnmounted(n *vdom.Node) error {
	var err error
	vdom.Walk([]*vdom.Node{n}, func(c *vdom.Node) bool {
		if err == nil && c.HostRef != nil {
			err = structural(errors.CodeAlreadyMounted, c)
		}
		return err == nil
	})
	return err
}

func structural(code string, n *vdom.Node) error {
	return errors.New(code).WithDetail(n.String())
}

// compact drops nil entries, reusing the backing array only when there are
// none.
func compact(nodes []*vdom.Node) []*vdom.Node {
	for i, n := range nodes {
		if n == nil {
			out := make([]*vdom.Node, i, len(nodes))
			copy(out, nodes[:i])
			for _, m := range nodes[i+1:] {
				if m != nil {
					out = append(out, m)
				}
			}
			return out
		}
	}
	return nodes
}
