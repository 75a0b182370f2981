package metrics

import (
	"github.com/vango-dev/stencil/pkg/reconcile"
	"github.com/vango-dev/stencil/pkg/vdom"
)

// Host operation label values of host_mutations_total.
const (
	OpCreate     = "create"
	OpSetAttr    = "set_attribute"
	OpRemoveAttr = "remove_attribute"
	OpInsert     = "insert"
	OpRemove     = "remove"
	OpSetText    = "set_text"
)

// InstrumentHost wraps h so that every mutation is counted. The wrapper
// forwards event binding and selector queries when h supports them.
func (m *Metrics) InstrumentHost(h reconcile.Host) reconcile.Host {
	return &instrumentedHost{Host: h, m: m}
}

type instrumentedHost struct {
	reconcile.Host
	m *Metrics
}

var (
	_ reconcile.EventBinder = (*instrumentedHost)(nil)
	_ reconcile.Querier     = (*instrumentedHost)(nil)
)

func (h *instrumentedHost) count(op string) {
	h.m.hostMutations.WithLabelValues(op).Inc()
}

func (h *instrumentedHost) CreateElement(tag string) any {
	h.count(OpCreate)
	return h.Host.CreateElement(tag)
}

func (h *instrumentedHost) CreateText(content string) any {
	h.count(OpCreate)
	return h.Host.CreateText(content)
}

func (h *instrumentedHost) CreateComment(content string) any {
	h.count(OpCreate)
	return h.Host.CreateComment(content)
}

func (h *instrumentedHost) SetAttribute(node any, name, value string) {
	h.count(OpSetAttr)
	h.Host.SetAttribute(node, name, value)
}

func (h *instrumentedHost) RemoveAttribute(node any, name string) {
	h.count(OpRemoveAttr)
	h.Host.RemoveAttribute(node, name)
}

func (h *instrumentedHost) InsertBefore(parent, child, ref any) {
	h.count(OpInsert)
	h.Host.InsertBefore(parent, child, ref)
}

func (h *instrumentedHost) Remove(node any) {
	h.count(OpRemove)
	h.Host.Remove(node)
}

func (h *instrumentedHost) SetText(node any, content string) {
	h.count(OpSetText)
	h.Host.SetText(node, content)
}

func (h *instrumentedHost) BindEvents(node any, handlers map[string]vdom.Handler) {
	if b, ok := h.Host.(reconcile.EventBinder); ok {
		b.BindEvents(node, handlers)
	}
}

func (h *instrumentedHost) Query(selector string) (any, bool) {
	if q, ok := h.Host.(reconcile.Querier); ok {
		return q.Query(selector)
	}
	return nil, false
}

// Unwrap returns the wrapped host.
func (h *instrumentedHost) Unwrap() reconcile.Host { return h.Host }
