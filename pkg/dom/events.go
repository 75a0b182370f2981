package dom

import "errors"

// Event is passed to handlers as $event.
type Event struct {
	Type          string
	Target        *Node
	CurrentTarget *Node
	Detail        any

	stopped bool
}

// StopPropagation keeps the event from bubbling further.
func (e *Event) StopPropagation() { e.stopped = true }

// GetMember exposes the event to template expressions.
func (e *Event) GetMember(name string) (any, bool) {
	switch name {
	case "type":
		return e.Type, true
	case "target":
		return e.Target, true
	case "currentTarget":
		return e.CurrentTarget, true
	case "detail":
		return e.Detail, true
	case "value":
		if e.Detail != nil {
			return e.Detail, true
		}
		if e.Target != nil {
			return e.Target.GetMember("value")
		}
	case "stopPropagation":
		return func() { e.StopPropagation() }, true
	}
	return nil, false
}

// Dispatch delivers an event to target and bubbles it up through its
// ancestors. Handler errors are joined; they do not stop propagation.
func (d *Document) Dispatch(target *Node, eventType string, detail any) error {
	ev := &Event{Type: eventType, Target: target, Detail: detail}
	var errs []error
	for n := target; n != nil && !ev.stopped; n = n.parent {
		h, ok := n.handlers[eventType]
		if !ok {
			continue
		}
		ev.CurrentTarget = n
		if err := h(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DispatchSelector dispatches to the first node matching selector.
func (d *Document) DispatchSelector(selector, eventType string, detail any) error {
	n := d.QuerySelector(selector)
	if n == nil {
		return &SelectorError{Selector: selector}
	}
	return d.Dispatch(n, eventType, detail)
}

// SelectorError reports a selector that matched nothing.
type SelectorError struct {
	Selector string
}

func (e *SelectorError) Error() string {
	return "no element matches selector " + e.Selector
}
