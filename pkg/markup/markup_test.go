package markup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts []Option
		want []*Node
	}{
		{
			name: "bindings keep their prefixes",
			src:  `<button class="a" @click="toggle" :title="label">{{ label }}</button>`,
			want: []*Node{{
				Kind: ElementNode,
				Tag:  "button",
				Attrs: []Attr{
					{Name: "class", Value: "a"},
					{Name: "@click", Value: "toggle"},
					{Name: ":title", Value: "label"},
				},
				Children: []*Node{{Kind: TextNode, Tag: "#text", Text: "{{ label }}"}},
			}},
		},
		{
			name: "whitespace dropped",
			src:  "<ul>\n  <li>a</li>\n  <li>b</li>\n</ul>",
			want: []*Node{{
				Kind: ElementNode,
				Tag:  "ul",
				Children: []*Node{
					{Kind: ElementNode, Tag: "li", Children: []*Node{{Kind: TextNode, Tag: "#text", Text: "a"}}},
					{Kind: ElementNode, Tag: "li", Children: []*Node{{Kind: TextNode, Tag: "#text", Text: "b"}}},
				},
			}},
		},
		{
			name: "whitespace kept",
			src:  "<p> </p>",
			opts: []Option{KeepWhitespace()},
			want: []*Node{{
				Kind:     ElementNode,
				Tag:      "p",
				Children: []*Node{{Kind: TextNode, Tag: "#text", Text: " "}},
			}},
		},
		{
			name: "comments and siblings",
			src:  `<!-- note --><span>x</span>tail`,
			want: []*Node{
				{Kind: CommentNode, Tag: "#comment", Text: " note "},
				{Kind: ElementNode, Tag: "span", Children: []*Node{{Kind: TextNode, Tag: "#text", Text: "x"}}},
				{Kind: TextNode, Tag: "#text", Text: "tail"},
			},
		},
		{
			name: "raw text elements",
			src:  `<style> p { color: red } </style>`,
			want: []*Node{{
				Kind:     ElementNode,
				Tag:      "style",
				Children: []*Node{{Kind: TextNode, Tag: "#text", Text: " p { color: red } "}},
			}},
		},
		{
			name: "attribute names are lower-cased",
			src:  `<input :dataOn="x" @keyUp="onKey">`,
			want: []*Node{{
				Kind: ElementNode,
				Tag:  "input",
				Attrs: []Attr{
					{Name: ":dataon", Value: "x"},
					{Name: "@keyup", Value: "onKey"},
				},
			}},
		},
		{
			name: "empty source",
			src:  "",
			want: []*Node{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src, tt.opts...)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTableContext(t *testing.T) {
	nodes, err := Parse(`<tr><td>1</td></tr>`, WithContext("tbody"))
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].Tag != "tr" {
		t.Fatalf("nodes = %+v, want a single tr", nodes)
	}
}

func TestNodeAttr(t *testing.T) {
	n := MustParse(`<a href="/x" :key="id"></a>`)[0]
	if v, ok := n.Attr("href"); !ok || v != "/x" {
		t.Errorf("Attr(href) = %q, %v", v, ok)
	}
	if v, ok := n.Attr(":key"); !ok || v != "id" {
		t.Errorf("Attr(:key) = %q, %v", v, ok)
	}
	if _, ok := n.Attr("missing"); ok {
		t.Error("Attr(missing) should not be found")
	}
}
