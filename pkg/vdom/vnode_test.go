package vdom

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindElement, "Element"},
		{KindText, "Text"},
		{KindComment, "Comment"},
		{Kind(255), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameType(t *testing.T) {
	tests := []struct {
		name string
		a, b *Node
		want bool
	}{
		{"same element", Element("div", nil), Element("div", nil), true},
		{"different tag", Element("div", nil), Element("span", nil), false},
		{"text vs text", Text("a"), Text("b"), true},
		{"text vs comment", Text("a"), Comment("a"), false},
		{"text vs element", Text("a"), Element("div", nil), false},
		{"nil", Element("div", nil), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.SameType(tt.b); got != tt.want {
				t.Errorf("SameType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeysEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", nil, 1, false},
		{"int vs float", 1, 1.0, true},
		{"int vs int64", 3, int64(3), true},
		{"number vs string", 1, "1", false},
		{"strings", "a", "a", true},
		{"different strings", "a", "b", false},
		{"bools", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeysEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("KeysEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{1, "1"},
		{2.5, "2.5"},
		{int64(7), "7"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := KeyString(tt.key); got != tt.want {
			t.Errorf("KeyString(%v) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestIsDynamic(t *testing.T) {
	n := Element("input", Attrs{"value": "x", "type": "text"}).MarkDynamic("value")
	if !n.IsDynamic("value") {
		t.Error("value should be dynamic")
	}
	if n.IsDynamic("type") {
		t.Error("type should not be dynamic")
	}
	if Text("x").IsDynamic("value") {
		t.Error("text nodes have no dynamic attributes")
	}
}
