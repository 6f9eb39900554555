// Package exports normalizes a package manifest's export surface into a flat
// list of output descriptors. The conditional exports map is a loosely-typed
// recursive structure (string | array | nested condition object); this package
// resolves it by recursive descent and infers the module format of every
// entry. All functions are pure transformations over decoded manifest data.
package exports

import "strings"

// Format is the inferred module format of an output file.
type Format string

const (
	// FormatNone marks an entry whose format could not be inferred, or a
	// non-code file such as a type declaration.
	FormatNone Format = ""
	// FormatCJS is CommonJS.
	FormatCJS Format = "cjs"
	// FormatESM is an ECMAScript module.
	FormatESM Format = "esm"
)

// SourceKey records which manifest field a descriptor was derived from.
type SourceKey string

const (
	// KeyExports marks entries derived from the exports map.
	KeyExports SourceKey = "exports"
	// KeyMain marks the main shorthand field.
	KeyMain SourceKey = "main"
	// KeyModule marks the module shorthand field.
	KeyModule SourceKey = "module"
	// KeyTypes marks the types/typings shorthand field.
	KeyTypes SourceKey = "types"
	// KeyBin marks executable entries from the bin field.
	KeyBin SourceKey = "bin"
)

// Descriptor is the normalized, provenance-tagged record for one expected
// output artifact. Descriptors are created once per manifest parse and are
// immutable afterwards.
type Descriptor struct {
	// File is the package-relative output path, e.g. "./dist/index.mjs".
	File string
	// Key is the manifest field the descriptor came from.
	Key SourceKey
	// SubKey is the condition name the entry sits under, when that name is a
	// recognized resolver condition. Custom condition tags are recursed but
	// leave SubKey empty.
	SubKey string
	// Subpath is the exports subpath the entry belongs to: "." for the root
	// export, "deep" style keys with the leading "./" intact, "*" for array
	// fallback lists.
	Subpath string
	// Type is the inferred module format, or FormatNone for non-code files.
	Type Format
	// FieldName is the dotted manifest field path, used in diagnostics.
	FieldName string
	// IsExecutable marks entries sourced from the bin field.
	IsExecutable bool
}

// knownConditions are the resolver condition names recorded as SubKey.
// Custom runtime tags (e.g. "react-server") recurse without one.
var knownConditions = map[string]struct{}{
	"browser":     {},
	"default":     {},
	"deno":        {},
	"development": {},
	"import":      {},
	"node":        {},
	"node-addons": {},
	"production":  {},
	"require":     {},
	"types":       {},
}

// IsKnownCondition reports whether name is a recognized resolver condition.
func IsKnownCondition(name string) bool {
	_, ok := knownConditions[name]

	return ok
}

// IsDeclarationPath reports whether path names a TypeScript declaration file.
func IsDeclarationPath(path string) bool {
	return strings.HasSuffix(path, ".d.ts") ||
		strings.HasSuffix(path, ".d.mts") ||
		strings.HasSuffix(path, ".d.cts")
}
