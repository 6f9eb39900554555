package build

import (
	"path"
	"strings"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/bundlefang/pkg/diagnostics"
	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
	"github.com/Sumatoshi-tech/bundlefang/pkg/manifest"
)

// Context owns the state of one build invocation: the manifest, the expected
// export surface, the artifacts both passes produced, and the diagnostic set.
// It is discarded after reporting.
type Context struct {
	Manifest    *manifest.PackageJSON
	Options     Options
	Descriptors []exports.Descriptor
	Diagnostics *diagnostics.Set
	// WarnedImports memoizes implicit-external warnings per import id for
	// the duration of the build.
	WarnedImports *diagnostics.SeenSet

	mu        sync.Mutex
	entries   []Entry
	imports   []string
	passTimes map[Pass]time.Duration
}

// NewContext creates the context for one build invocation.
func NewContext(pkg *manifest.PackageJSON, opts Options, descriptors []exports.Descriptor) *Context {
	return &Context{
		Manifest:      pkg,
		Options:       opts,
		Descriptors:   descriptors,
		Diagnostics:   diagnostics.NewSet(),
		WarnedImports: diagnostics.NewSeenSet(),
		passTimes:     make(map[Pass]time.Duration),
	}
}

// AddResult merges one pass's output into the context. Safe for concurrent
// use by both passes.
func (c *Context) AddResult(pass Pass, result Result, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, result.Entries...)
	c.imports = append(c.imports, result.Imports...)
	c.passTimes[pass] = elapsed
}

// Entries returns all artifacts emitted so far.
func (c *Context) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, len(c.entries))
	copy(out, c.entries)

	return out
}

// Imports returns the non-relative imports resolved during compilation.
func (c *Context) Imports() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.imports))
	copy(out, c.imports)

	return out
}

// PassTime returns the wall time one pass took.
func (c *Context) PassTime(pass Pass) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.passTimes[pass]
}

// EntryFor looks up an emitted artifact by package-relative path.
func (c *Context) EntryFor(file string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	want := NormalizePath(file)

	for _, entry := range c.entries {
		if NormalizePath(entry.Path) == want {
			return entry, true
		}
	}

	return Entry{}, false
}

// NormalizePath canonicalizes a package-relative path for comparison:
// "./dist/index.mjs" and "dist/index.mjs" refer to the same artifact.
func NormalizePath(p string) string {
	return path.Clean(strings.TrimPrefix(p, "./"))
}
