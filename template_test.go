package rsxhot

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFmtedSegmentsRenderWith(t *testing.T) {
	segs := fmted(lit("hello "), dyn(1), lit(", "), dyn(0))

	got, err := segs.RenderWith([]string{"world", "there"})
	if err != nil {
		t.Fatalf("RenderWith: %v", err)
	}
	if got != "hello there, world" {
		t.Errorf("RenderWith = %q, want %q", got, "hello there, world")
	}

	if _, err := segs.RenderWith([]string{"only one"}); err == nil {
		t.Error("expected an error for an out of range segment")
	}
}

func TestTemplatePaths(t *testing.T) {
	tmpl := &HotReloadedTemplate{
		Roots: []TemplateNode{
			ElementNode("div", "", []TemplateAttribute{DynamicAttributePlaceholder(1)},
				DynamicPlaceholder(1),
				ElementNode("span", "", []TemplateAttribute{DynamicAttributePlaceholder(0)},
					DynamicTextPlaceholder(0),
				),
			),
			DynamicPlaceholder(2),
		},
	}

	wantNodes := [][]int{{0, 1, 0}, {0, 0}, {1}}
	if diff := cmp.Diff(wantNodes, tmpl.NodePaths()); diff != "" {
		t.Errorf("NodePaths mismatch (-want +got):\n%s", diff)
	}
	wantAttrs := [][]int{{0, 1}, {0}}
	if diff := cmp.Diff(wantAttrs, tmpl.AttrPaths()); diff != "" {
		t.Errorf("AttrPaths mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplateEqualAcrossWire(t *testing.T) {
	templates := mustHotReload(t, pageBody("hello"), pageBody("hello"))
	tmpl := template(t, templates, 0)

	data, err := json.Marshal(tmpl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded HotReloadedTemplate
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !tmpl.Equal(&decoded) {
		t.Error("template should equal its decoded copy")
	}

	changed := template(t, mustHotReload(t, pageBody("hello"), pageBody("bye")), 0)
	if tmpl.Equal(changed) {
		t.Error("templates with different literals should differ")
	}
}
