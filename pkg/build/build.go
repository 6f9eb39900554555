// Package build orchestrates one bundler invocation: it owns the build
// context shared by the two compilation passes, the backend contract the
// transform engines implement, and the post-build reporting surface.
package build

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
	"github.com/Sumatoshi-tech/bundlefang/pkg/node10"
)

// Pass identifies one of the two independent compilation passes.
type Pass int

const (
	// PassBundle compiles the code bundles.
	PassBundle Pass = iota
	// PassDeclaration compiles the type-declaration bundles.
	PassDeclaration
)

// String implements fmt.Stringer.
func (p Pass) String() string {
	switch p {
	case PassBundle:
		return "bundle"
	case PassDeclaration:
		return "declaration"
	default:
		return fmt.Sprintf("pass(%d)", int(p))
	}
}

// Entry records one emitted artifact, as reported by the compilation backend.
type Entry struct {
	// Path is the package-relative output path, e.g. "./dist/index.mjs".
	Path string
	// Bytes is the artifact size.
	Bytes int64
	// Format is the artifact's module format, when it is code.
	Format exports.Format
	// Exports are the module's export names, "default" included.
	Exports []string
	// Chunks are the shared chunk files the entry pulls in.
	Chunks []string
	// Modules are the source modules bundled into the entry.
	Modules []string
	// Pass is the compilation pass that produced the entry.
	Pass Pass
}

// Result is the outcome of one compilation pass.
type Result struct {
	Entries []Entry
	// Imports are the non-relative module ids resolved while compiling,
	// consumed by the dependency validator.
	Imports []string
}

// TransformCache memoizes backend output across builds, keyed by content
// digest. The two passes claim disjoint keys by file identity, so the cache
// needs no coordination beyond its own internal locking.
type TransformCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, data []byte) error
}

// CompileRequest carries everything a backend needs for one pass.
type CompileRequest struct {
	RootDir     string
	OutDir      string
	Pass        Pass
	Descriptors []exports.Descriptor
	Cache       TransformCache
	CJSInterop  bool
}

// Backend is a swappable transform engine. Implementations compile one pass
// and report the artifacts they emitted; they must not touch the manifest.
type Backend interface {
	Name() string
	Compile(ctx context.Context, req CompileRequest) (Result, error)
}

// Options are the build invocation options, resolved from config and flags.
type Options struct {
	RootDir string
	OutDir  string
	// Declaration selects declaration output: "true", "false", "compatible",
	// or "node16".
	Declaration DeclarationMode
	CJSInterop  bool
	FailOnWarn  bool
	// Stub skips real compilation and generates lazy dev-time shims; stub
	// builds bypass reconciliation entirely.
	Stub bool
	// Node10WriteToManifest writes the synthesized typesVersions table back
	// into package.json. The table is echoed to the console either way.
	Node10Enabled         bool
	Node10WriteToManifest bool
	// Externals are import ids exempted from dependency validation.
	Externals []string
	// ChartPath, when set, is where the bundle-size chart is written.
	ChartPath string
}

// DeclarationMode is the declaration-generation setting.
type DeclarationMode string

const (
	// DeclarationOff disables declaration output.
	DeclarationOff DeclarationMode = "false"
	// DeclarationOn emits declarations with compatible unification.
	DeclarationOn DeclarationMode = "true"
	// DeclarationCompatible emits conditional declarations plus unified
	// ".d.ts" siblings for legacy resolvers.
	DeclarationCompatible DeclarationMode = "compatible"
	// DeclarationNode16 emits conditional declarations only.
	DeclarationNode16 DeclarationMode = "node16"
)

// ErrBadDeclarationMode reports an unrecognized declaration setting.
var ErrBadDeclarationMode = fmt.Errorf("declaration must be one of true, false, compatible, node16")

// ParseDeclarationMode validates a raw declaration setting.
func ParseDeclarationMode(raw string) (DeclarationMode, error) {
	switch DeclarationMode(raw) {
	case DeclarationOff, DeclarationOn, DeclarationCompatible, DeclarationNode16:
		return DeclarationMode(raw), nil
	case "":
		return DeclarationOn, nil
	default:
		return "", fmt.Errorf("%w, got %q", ErrBadDeclarationMode, raw)
	}
}

// Enabled reports whether declaration output is generated at all.
func (m DeclarationMode) Enabled() bool {
	return m != DeclarationOff
}

// Node10Mode maps the declaration setting to the typesVersions synthesis mode.
func (m DeclarationMode) Node10Mode() node10.Mode {
	if m == DeclarationNode16 {
		return node10.ModeNode16
	}

	return node10.ModeCompatible
}
