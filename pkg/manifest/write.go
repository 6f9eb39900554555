package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/bundlefang/pkg/jsontree"
)

// manifestFileMode is the permission set for a rewritten manifest.
const manifestFileMode = 0o644

// SetTypesVersions replaces the manifest's typesVersions field. Only that key
// is touched; the rest of the document keeps its content and key order.
func (p *PackageJSON) SetTypesVersions(table *jsontree.Object) {
	p.doc.Set("typesVersions", table)
}

// WriteFile rewrites the manifest in place with two-space indentation and a
// trailing newline, and returns a human-readable diff against the previous
// content for diagnostic logging. The diff is empty when nothing changed.
func (p *PackageJSON) WriteFile() (string, error) {
	if p.path == "" {
		return "", fmt.Errorf("manifest for %q was not loaded from disk", p.Name)
	}

	encoded, err := json.MarshalIndent(p.doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}

	encoded = append(encoded, '\n')

	writeErr := os.WriteFile(p.path, encoded, manifestFileMode)
	if writeErr != nil {
		return "", fmt.Errorf("write %s: %w", p.path, writeErr)
	}

	diff := diffText(string(p.raw), string(encoded))
	p.raw = encoded

	return diff, nil
}

// diffText renders a compact line diff between two manifest revisions.
func diffText(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()

	fromRunes, toRunes, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(fromRunes, toRunes, false), lines)

	var out []byte

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			out = append(out, prefixLines("+", d.Text)...)
		case diffmatchpatch.DiffDelete:
			out = append(out, prefixLines("-", d.Text)...)
		case diffmatchpatch.DiffEqual:
			// Unchanged regions are omitted.
		}
	}

	return string(out)
}

func prefixLines(prefix, text string) []byte {
	var out []byte

	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			out = append(out, prefix...)
			out = append(out, text[start:i+1]...)
			start = i + 1
		}
	}

	if start < len(text) {
		out = append(out, prefix...)
		out = append(out, text[start:]...)
		out = append(out, '\n')
	}

	return out
}
