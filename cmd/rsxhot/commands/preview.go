package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/livefir/rsxhot"
	"github.com/livefir/rsxhot/internal/preview"
)

// Preview renders the hot-reload templates of a change to HTML and shows
// how each one differs from the old body.
func Preview(args []string) error {
	return runPreview(os.Stdout, args)
}

func runPreview(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(w)
	configPath := fs.String("config", "", "config file with element and attribute mappings")
	plain := fs.Bool("plain", false, "print the new HTML only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: rsxhot preview [-plain] [-config file] <old> <new>")
	}

	// the old body diffed against itself renders its own templates
	before, err := compute(*configPath, fs.Arg(0), fs.Arg(0))
	if err != nil {
		return err
	}
	after, err := compute(*configPath, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	dmp := diffmatchpatch.New()
	for _, idx := range sortedIndexes(after) {
		next, err := render(after[idx])
		if err != nil {
			return fmt.Errorf("template %d: %w", idx, err)
		}
		fmt.Fprintln(w, styleHeader.Render(fmt.Sprintf("Template %d", idx)))
		if *plain {
			fmt.Fprintln(w, next)
			continue
		}

		prev := ""
		if tmpl, ok := before[idx]; ok {
			if prev, err = render(tmpl); err != nil {
				return fmt.Errorf("template %d: %w", idx, err)
			}
		}
		diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(prev, next, false))
		fmt.Fprintln(w, formatDiff(diffs))
	}
	return nil
}

func render(tmpl *rsxhot.HotReloadedTemplate) (string, error) {
	return preview.Render(tmpl, preview.PlaceholderValues(tmpl))
}

func formatDiff(diffs []diffmatchpatch.Diff) string {
	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString(styleInsert.Render(d.Text))
		case diffmatchpatch.DiffDelete:
			b.WriteString(styleDelete.Render(d.Text))
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
