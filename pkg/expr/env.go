package expr

import "fmt"

// Env resolves identifiers during evaluation.
type Env interface {
	// Lookup returns the value bound to name.
	Lookup(name string) (any, bool)

	// Assign rebinds name. Implementations decide whether unknown names may
	// be created.
	Assign(name string, value any) error
}

// MapEnv is an Env backed by a map. Assigning an unknown name creates it.
type MapEnv map[string]any

// Lookup implements Env.
func (m MapEnv) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Assign implements Env.
func (m MapEnv) Assign(name string, value any) error {
	m[name] = value
	return nil
}

// Extend layers vars over parent. Lookups try vars first; assignments to a
// layered name stay in the layer, everything else goes to parent.
func Extend(parent Env, vars map[string]any) Env {
	return &scopedEnv{parent: parent, vars: vars}
}

type scopedEnv struct {
	parent Env
	vars   map[string]any
}

func (s *scopedEnv) Lookup(name string) (any, bool) {
	if v, ok := s.vars[name]; ok {
		return v, true
	}
	if s.parent == nil {
		return nil, false
	}
	return s.parent.Lookup(name)
}

func (s *scopedEnv) Assign(name string, value any) error {
	if _, ok := s.vars[name]; ok {
		s.vars[name] = value
		return nil
	}
	if s.parent == nil {
		return fmt.Errorf("%s is not defined", name)
	}
	return s.parent.Assign(name, value)
}

// Getter is implemented by values exposing properties to member access.
type Getter interface {
	GetMember(name string) (any, bool)
}

// Setter is implemented by values accepting property assignment.
type Setter interface {
	SetMember(name string, value any) error
}

// Func is the preferred signature for functions callable from expressions.
type Func func(args ...any) (any, error)
