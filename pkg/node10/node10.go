// Package node10 synthesizes the legacy typesVersions compatibility table
// from a package's normalized export surface. Older TypeScript resolution
// (pre-4.7) cannot read types out of the exports map; the table maps subpath
// patterns to ordered declaration-file candidate lists instead. Candidates
// are tried in list order and the first existing file wins, so both the
// order and the content of every list are part of the observable contract.
package node10

import (
	"strings"

	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
	"github.com/Sumatoshi-tech/bundlefang/pkg/jsontree"
)

// Mode selects how conditional declaration paths are written into the table.
type Mode string

const (
	// ModeCompatible unifies ".d.mts"/".d.cts" variants onto the ".d.ts"
	// sibling the pipeline emits alongside them.
	ModeCompatible Mode = "compatible"
	// ModeNode16 keeps the conditional declaration paths verbatim.
	ModeNode16 Mode = "node16"
)

// wildcardVersion is the TypeScript version pattern the table is keyed by.
const wildcardVersion = "*"

// Table is the synthesized typesVersions mapping: subpath pattern to an
// ordered, deduplicated list of declaration paths.
type Table struct {
	order   []string
	entries map[string][]string
}

// Synthesize builds the table from the full descriptor list. Descriptors must
// be in manifest order; first-seen order is preserved throughout.
func Synthesize(descs []exports.Descriptor, mode Mode) *Table {
	table := &Table{entries: make(map[string][]string)}

	// Group in manifest order. Explicit declaration entries win over paths
	// derived from code entries for the same subpath.
	type group struct {
		declarations []string
		code         []string
	}

	var subpathOrder []string

	groups := make(map[string]*group)

	for _, desc := range descs {
		if desc.Key != exports.KeyExports {
			continue
		}

		key := normalizeSubpath(desc.Subpath)

		g, seen := groups[key]
		if !seen {
			g = &group{}
			groups[key] = g
			subpathOrder = append(subpathOrder, key)
		}

		if desc.SubKey == "types" || exports.IsDeclarationPath(desc.File) {
			g.declarations = append(g.declarations, normalizeDeclaration(desc.File, mode))
		} else if desc.Type != exports.FormatNone {
			g.code = append(g.code, desc.File)
		}
	}

	for _, key := range subpathOrder {
		g := groups[key]

		paths := g.declarations
		if len(paths) == 0 {
			for _, file := range g.code {
				paths = append(paths, deriveDeclaration(file, mode))
			}
		}

		for _, path := range paths {
			table.add(key, path)
		}
	}

	return table
}

// add appends a declaration path to a subpath list, deduplicating by exact
// path equality and never reordering.
func (t *Table) add(subpath, declPath string) {
	for _, existing := range t.entries[subpath] {
		if existing == declPath {
			return
		}
	}

	if _, seen := t.entries[subpath]; !seen {
		t.order = append(t.order, subpath)
	}

	t.entries[subpath] = append(t.entries[subpath], declPath)
}

// Subpaths returns the table keys in output order: "." first, literal
// subpaths in manifest order, the "*" wildcard last.
func (t *Table) Subpaths() []string {
	out := make([]string, 0, len(t.order))

	if _, ok := t.entries["."]; ok {
		out = append(out, ".")
	}

	for _, key := range t.order {
		if key != "." && key != "*" {
			out = append(out, key)
		}
	}

	if _, ok := t.entries["*"]; ok {
		out = append(out, "*")
	}

	return out
}

// Declarations returns the ordered declaration paths for a subpath key.
func (t *Table) Declarations(subpath string) []string {
	return t.entries[subpath]
}

// Len returns the number of subpath entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Object renders the full typesVersions value: {"*": {subpath: [paths...]}}.
func (t *Table) Object() *jsontree.Object {
	inner := jsontree.NewObject()

	for _, subpath := range t.Subpaths() {
		paths := t.entries[subpath]

		items := make([]any, len(paths))
		for i, p := range paths {
			items[i] = p
		}

		inner.Set(subpath, items)
	}

	outer := jsontree.NewObject()
	outer.Set(wildcardVersion, inner)

	return outer
}

// normalizeSubpath maps a manifest subpath to its table key: the root export
// keeps ".", "./deep" drops the leading "./", "./*" becomes the wildcard.
func normalizeSubpath(subpath string) string {
	switch subpath {
	case "", ".":
		return "."
	case "./*", "*":
		return "*"
	default:
		return strings.TrimPrefix(subpath, "./")
	}
}

// normalizeDeclaration rewrites an explicit declaration path for the mode.
func normalizeDeclaration(path string, mode Mode) string {
	if mode == ModeNode16 {
		return path
	}

	switch {
	case strings.HasSuffix(path, ".d.mts"):
		return strings.TrimSuffix(path, ".d.mts") + ".d.ts"
	case strings.HasSuffix(path, ".d.cts"):
		return strings.TrimSuffix(path, ".d.cts") + ".d.ts"
	default:
		return path
	}
}

// declarationSuffixes maps code extensions to their node16 declaration siblings.
var declarationSuffixes = []struct {
	code string
	decl string
}{
	{".mjs", ".d.mts"},
	{".mts", ".d.mts"},
	{".cjs", ".d.cts"},
	{".cts", ".d.cts"},
}

// deriveDeclaration computes the declaration path emitted alongside a code
// file when the manifest declares no explicit types entry for its subpath.
func deriveDeclaration(file string, mode Mode) string {
	if mode == ModeNode16 {
		for _, m := range declarationSuffixes {
			if strings.HasSuffix(file, m.code) {
				return strings.TrimSuffix(file, m.code) + m.decl
			}
		}
	}

	return trimCodeExtension(file) + ".d.ts"
}

func trimCodeExtension(file string) string {
	for _, ext := range []string{".mjs", ".cjs", ".mts", ".cts", ".jsx", ".tsx", ".js", ".ts"} {
		if strings.HasSuffix(file, ext) {
			return strings.TrimSuffix(file, ext)
		}
	}

	return file
}
