package reconcile

import "github.com/vango-dev/stencil/pkg/vdom"

// Render keeps the current list rendered under one host parent.
type Render struct {
	r       *Reconciler
	parent  any
	current []*vdom.Node
}

// NewRender returns a Render for parent with nothing rendered yet.
func NewRender(r *Reconciler, parent any) *Render {
	return &Render{r: r, parent: parent}
}

// Render reconciles next against the current list. A nil next is a no-op
// that returns the current list, which is how a failed build keeps the
// previous tree.
//
// An error from Reconcile may leave the host partly patched while the
// current list is kept, so later calls keep failing with E301. The owner
// must be rebuilt after a structural error.
func (rd *Render) Render(next []*vdom.Node) ([]*vdom.Node, error) {
	if next == nil {
		return rd.current, nil
	}
	out, err := rd.r.Reconcile(rd.parent, rd.current, next)
	if err != nil {
		return rd.current, err
	}
	rd.current = out
	return out, nil
}

// Current returns the list rendered by the last successful call.
func (rd *Render) Current() []*vdom.Node { return rd.current }

// Parent returns the host parent.
func (rd *Render) Parent() any { return rd.parent }

// Reconciler returns the underlying reconciler.
func (rd *Render) Reconciler() *Reconciler { return rd.r }
