// Package manifest reads and writes package.json documents. The decoded
// manifest keeps its original key order so that exports-map traversal and
// write-back both preserve the author's ordering.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/bundlefang/pkg/jsontree"
)

// FileName is the manifest file name inside a package directory.
const FileName = "package.json"

// ErrNoManifest is returned when a package directory has no package.json.
var ErrNoManifest = errors.New("no package.json found")

// PackageJSON is the typed view over a decoded manifest. The raw ordered
// document stays attached for traversal and write-back.
type PackageJSON struct {
	Name    string
	Version string
	// Type is the declared module system: "module", "commonjs", or empty.
	Type   string
	Main   string
	Module string
	// Types is the declaration entry point, from "types" or the legacy
	// "typings" alias.
	Types string
	// Bin maps executable names to paths. The string shorthand form is
	// normalized to a single entry keyed by the package name.
	Bin map[string]string
	// Exports is the raw conditional exports tree:
	// string | []any | *jsontree.Object.
	Exports any
	// Files is the publish allow-list, when declared.
	Files []string

	Dependencies         map[string]string
	PeerDependencies     map[string]string
	DevDependencies      map[string]string
	OptionalDependencies map[string]string

	// EnginesNode is the declared Node version range, when present.
	EnginesNode string

	doc  *jsontree.Object
	path string
	raw  []byte
}

// Load reads and parses the manifest in dir.
func Load(dir string) (*PackageJSON, error) {
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNoManifest, dir)
		}

		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	pkg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	pkg.path = path
	pkg.raw = data

	return pkg, nil
}

// Parse decodes manifest bytes into a typed view.
func Parse(data []byte) (*PackageJSON, error) {
	doc := jsontree.NewObject()

	err := json.Unmarshal(data, doc)
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	pkg := &PackageJSON{doc: doc}
	pkg.Name, _ = doc.GetString("name")
	pkg.Version, _ = doc.GetString("version")
	pkg.Type, _ = doc.GetString("type")
	pkg.Main, _ = doc.GetString("main")
	pkg.Module, _ = doc.GetString("module")

	pkg.Types, _ = doc.GetString("types")
	if pkg.Types == "" {
		pkg.Types, _ = doc.GetString("typings")
	}

	pkg.Bin = parseBin(doc, pkg.Name)
	pkg.Exports, _ = doc.Get("exports")
	pkg.Files = stringSlice(doc, "files")

	pkg.Dependencies = stringMap(doc, "dependencies")
	pkg.PeerDependencies = stringMap(doc, "peerDependencies")
	pkg.DevDependencies = stringMap(doc, "devDependencies")
	pkg.OptionalDependencies = stringMap(doc, "optionalDependencies")

	if engines, ok := doc.GetObject("engines"); ok {
		pkg.EnginesNode, _ = engines.GetString("node")
	}

	return pkg, nil
}

// Doc returns the underlying ordered document.
func (p *PackageJSON) Doc() *jsontree.Object {
	return p.doc
}

// Path returns the on-disk manifest path, when the manifest was loaded from disk.
func (p *PackageJSON) Path() string {
	return p.path
}

// Raw returns the original manifest bytes, when loaded from disk.
func (p *PackageJSON) Raw() []byte {
	return p.raw
}

// DeclaresDependency reports whether id appears in dependencies,
// peerDependencies, or optionalDependencies. devDependencies do not count:
// they are not installed for consumers.
func (p *PackageJSON) DeclaresDependency(id string) bool {
	if _, ok := p.Dependencies[id]; ok {
		return true
	}

	if _, ok := p.PeerDependencies[id]; ok {
		return true
	}

	_, ok := p.OptionalDependencies[id]

	return ok
}

// parseBin normalizes both bin forms. The string form names a single
// executable after the package itself.
func parseBin(doc *jsontree.Object, pkgName string) map[string]string {
	raw, ok := doc.Get("bin")
	if !ok {
		return nil
	}

	switch bin := raw.(type) {
	case string:
		name := pkgName
		if name == "" {
			name = "bin"
		}

		return map[string]string{name: bin}
	case *jsontree.Object:
		out := make(map[string]string, bin.Len())

		for _, key := range bin.Keys() {
			if value, isString := bin.GetString(key); isString {
				out[key] = value
			}
		}

		return out
	default:
		return nil
	}
}

func stringSlice(doc *jsontree.Object, key string) []string {
	raw, ok := doc.Get(key)
	if !ok {
		return nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))

	for _, item := range items {
		if s, isString := item.(string); isString {
			out = append(out, s)
		}
	}

	return out
}

func stringMap(doc *jsontree.Object, key string) map[string]string {
	obj, ok := doc.GetObject(key)
	if !ok {
		return nil
	}

	out := make(map[string]string, obj.Len())

	for _, k := range obj.Keys() {
		if value, isString := obj.GetString(k); isString {
			out[k] = value
		}
	}

	return out
}
