// Package interop decides what glue a compiled module needs at the
// CommonJS/ESM boundary. A module authored with both a default and named
// exports cannot be expressed as a plain CommonJS exports object without
// breaking Node's default-import convention for dual-format packages; this
// package classifies the export shape and synthesizes the shim code and
// declaration rewrites that keep require() and import consumers both correct.
package interop

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
)

// Shape classifies a module's export surface. The four states are closed and
// always decidable: a module either has a default export or not, and either
// has named exports or not.
type Shape int

const (
	// ShapeNone is an empty module: no default, no named exports.
	ShapeNone Shape = iota
	// ShapeDefaultOnly has a default export and nothing else.
	ShapeDefaultOnly
	// ShapeNamedOnly has named exports and no default.
	ShapeNamedOnly
	// ShapeMixed has a default export and named exports simultaneously.
	ShapeMixed
)

// String implements fmt.Stringer.
func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeDefaultOnly:
		return "default-only"
	case ShapeNamedOnly:
		return "named-only"
	case ShapeMixed:
		return "mixed"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// defaultExport is the binding name of a module's default export.
const defaultExport = "default"

// Classify determines the export shape from a module's export names, as
// reported by the compilation backend.
func Classify(exportNames []string) Shape {
	hasDefault := false
	hasNamed := false

	for _, name := range exportNames {
		if name == defaultExport {
			hasDefault = true
		} else {
			hasNamed = true
		}
	}

	switch {
	case hasDefault && hasNamed:
		return ShapeMixed
	case hasDefault:
		return ShapeDefaultOnly
	case hasNamed:
		return ShapeNamedOnly
	default:
		return ShapeNone
	}
}

// Named returns the sorted named exports, excluding the default binding and
// identifiers that cannot appear as bare names in generated code.
func Named(exportNames []string) []string {
	var named []string

	for _, name := range exportNames {
		if name == defaultExport || strings.HasPrefix(name, "__") || reservedWords[name] {
			continue
		}

		named = append(named, name)
	}

	sort.Strings(named)

	return named
}

// RequiresShim reports whether a compiled module needs CommonJS interop glue:
// only a mixed-shape module emitted as CommonJS with interop enabled does.
// ESM output natively expresses every shape, and single-shape CommonJS
// modules already round-trip through require().
func RequiresShim(shape Shape, format exports.Format, interopEnabled bool) bool {
	return interopEnabled && format == exports.FormatCJS && shape == ShapeMixed
}

// reservedWords are JavaScript keywords that cannot appear as bare
// identifiers in generated export statements.
var reservedWords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "delete": true,
	"do": true, "else": true, "enum": true, "export": true, "extends": true,
	"finally": true, "for": true, "function": true, "if": true,
	"implements": true, "import": true, "in": true, "instanceof": true,
	"interface": true, "let": true, "new": true, "package": true,
	"private": true, "protected": true, "public": true, "return": true,
	"static": true, "super": true, "switch": true, "this": true,
	"throw": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true,
}
