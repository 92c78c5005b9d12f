package commands

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/livefir/rsxhot"
	"github.com/livefir/rsxhot/internal/config"
	"github.com/livefir/rsxhot/internal/document"
	"github.com/livefir/rsxhot/rsx"
)

// ErrNotReloadable is returned when the new body cannot be hot reloaded
// into the old one.
var ErrNotReloadable = errors.New("not hot-reloadable: a full rebuild is required")

// Diff compares two template bodies and prints the hot-reload templates.
func Diff(args []string) error {
	return runDiff(os.Stdout, args)
}

func runDiff(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.SetOutput(w)
	asJSON := fs.Bool("json", false, "print templates as JSON")
	configPath := fs.String("config", "", "config file with element and attribute mappings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: rsxhot diff [-json] [-config file] <old> <new>")
	}

	templates, err := compute(*configPath, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(templates)
	}
	printReport(w, templates)
	return nil
}

// compute loads both bodies and diffs them.
func compute(configPath, oldPath, newPath string) (map[int]*rsxhot.HotReloadedTemplate, error) {
	mapping, err := loadMappings(configPath)
	if err != nil {
		return nil, err
	}
	old, err := document.ReadFile(oldPath)
	if err != nil {
		return nil, err
	}
	next, err := document.ReadFile(newPath)
	if err != nil {
		return nil, err
	}
	templates, ok := rsxhot.Compute(mapping, old, next, newPath)
	if !ok {
		return nil, ErrNotReloadable
	}
	return templates, nil
}

func loadMappings(path string) (rsx.Context, error) {
	if path == "" {
		path = config.Path(".")
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if len(cfg.Mappings.Elements) == 0 && len(cfg.Mappings.Attributes) == 0 {
		return rsx.DefaultContext{}, nil
	}
	return cfg.Mappings, nil
}

func sortedIndexes(templates map[int]*rsxhot.HotReloadedTemplate) []int {
	indexes := make([]int, 0, len(templates))
	for idx := range templates {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)
	return indexes
}

func printReport(w io.Writer, templates map[int]*rsxhot.HotReloadedTemplate) {
	fmt.Fprintln(w, styleOK.Render(fmt.Sprintf("✓ hot-reloadable (%d templates)", len(templates))))
	for _, idx := range sortedIndexes(templates) {
		tmpl := templates[idx]
		fmt.Fprintln(w)
		fmt.Fprintln(w, styleHeader.Render(fmt.Sprintf("Template %d", idx)))
		fmt.Fprintf(w, "  %s %d  %s %d  %s %d  %s %d\n",
			label("roots"), len(tmpl.Roots),
			label("dynamic nodes"), len(tmpl.DynamicNodes),
			label("dynamic attributes"), len(tmpl.DynamicAttributes),
			label("component values"), len(tmpl.ComponentValues),
		)
		if tmpl.Key != nil {
			fmt.Fprintf(w, "  %s %s\n", label("key"), describeSegments(*tmpl.Key))
		}
		for i, ref := range tmpl.DynamicNodes {
			fmt.Fprintf(w, "  %s %s\n", label(fmt.Sprintf("node %d", i)), describeNode(ref))
		}
		for i, attr := range tmpl.DynamicAttributes {
			fmt.Fprintf(w, "  %s %s\n", label(fmt.Sprintf("attribute %d", i)), describeAttribute(attr))
		}
	}
}

func describeSegments(f rsxhot.FmtedSegments) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, seg := range f.Segments {
		if seg.IsDynamic() {
			fmt.Fprintf(&b, "{#%d}", *seg.Dynamic)
			continue
		}
		b.WriteString(seg.Literal)
	}
	b.WriteByte('"')
	return b.String()
}

func describeNode(ref rsxhot.DynamicNodeRef) string {
	if ref.Kind == rsxhot.NodeFormatted && ref.Formatted != nil {
		return "text " + describeSegments(*ref.Formatted)
	}
	return fmt.Sprintf("reuses node #%d", ref.Index)
}

func describeAttribute(attr rsxhot.HotReloadDynamicAttribute) string {
	if attr.Kind != rsxhot.AttrNamed || attr.Named == nil {
		return fmt.Sprintf("reuses attribute #%d", attr.Index)
	}
	name := attr.Named.Name
	if attr.Named.Namespace != "" {
		name = attr.Named.Namespace + ":" + name
	}
	value := attr.Named.Value
	if value.Kind != rsxhot.AttrValueLiteral || value.Literal == nil {
		return fmt.Sprintf("%s = reuses value #%d", name, value.Index)
	}
	return name + " = " + describeLiteral(*value.Literal)
}

func describeLiteral(lit rsxhot.HotReloadLiteral) string {
	switch {
	case lit.Fmted != nil:
		return describeSegments(*lit.Fmted)
	case lit.Kind == rsx.LiteralInt:
		return fmt.Sprint(lit.Int)
	case lit.Kind == rsx.LiteralFloat:
		return fmt.Sprint(lit.Float)
	default:
		return fmt.Sprint(lit.Bool)
	}
}
