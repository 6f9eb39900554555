package interop

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
)

// Plan holds the synthesized glue for one compiled module. Empty fields mean
// no rewrite is required for that artifact.
type Plan struct {
	// CJSExports replaces the module's CommonJS export assignments.
	CJSExports string
	// CJSDeclaration is the body of the ".d.cts" declaration exports.
	CJSDeclaration string
	// ESMDeclaration is the body of the ".d.mts"/".d.ts" declaration exports.
	ESMDeclaration string
}

// BuildPlan synthesizes the interop glue for a module. defaultLocal is the
// local identifier holding the default export in the compiled output;
// exportNames is the module's full export list. The result is purely a
// function of the export shape, the target format, and the interop flag.
func BuildPlan(defaultLocal string, exportNames []string, format exports.Format, interopEnabled bool) Plan {
	shape := Classify(exportNames)
	named := Named(exportNames)

	plan := Plan{
		ESMDeclaration: esmDeclaration(shape, named),
	}

	if format != exports.FormatCJS {
		return plan
	}

	plan.CJSExports = cjsExports(shape, defaultLocal, named, interopEnabled)
	plan.CJSDeclaration = cjsDeclaration(shape, defaultLocal, named, interopEnabled)

	return plan
}

// cjsExports renders the CommonJS export assignments. With interop enabled,
// a mixed module assigns the default to module.exports and attaches every
// named export as a property on that same object, matching Node's CJS
// default-import convention for dual-format packages.
func cjsExports(shape Shape, defaultLocal string, named []string, interopEnabled bool) string {
	var sb strings.Builder

	switch {
	case shape == ShapeMixed && interopEnabled:
		fmt.Fprintf(&sb, "module.exports = %s;\n", defaultLocal)

		for _, name := range named {
			fmt.Fprintf(&sb, "module.exports.%s = %s;\n", name, name)
		}
	case shape == ShapeDefaultOnly:
		fmt.Fprintf(&sb, "module.exports = %s;\n", defaultLocal)
	default:
		// Named-only, empty, and mixed-without-interop modules keep the
		// plain exports object.
		if shape == ShapeMixed {
			fmt.Fprintf(&sb, "exports.default = %s;\n", defaultLocal)
		}

		for _, name := range named {
			fmt.Fprintf(&sb, "exports.%s = %s;\n", name, name)
		}
	}

	return sb.String()
}

// cjsDeclaration renders the ".d.cts" exports. A single declaration file
// cannot express a callable default plus named members except through
// "export =" with a separate named re-statement block.
func cjsDeclaration(shape Shape, defaultLocal string, named []string, interopEnabled bool) string {
	if shape == ShapeMixed && interopEnabled {
		var sb strings.Builder

		fmt.Fprintf(&sb, "export = %s;\n", defaultLocal)
		fmt.Fprintf(&sb, "export { %s };\n", strings.Join(named, ", "))

		return sb.String()
	}

	if shape == ShapeDefaultOnly {
		return fmt.Sprintf("export = %s;\n", defaultLocal)
	}

	return esmDeclaration(shape, named)
}

// esmDeclaration renders the ESM declaration exports. ESM natively supports
// every shape, so no special casing is needed.
func esmDeclaration(shape Shape, named []string) string {
	bindings := make([]string, 0, len(named)+1)

	if shape == ShapeMixed || shape == ShapeDefaultOnly {
		bindings = append(bindings, defaultExport)
	}

	bindings = append(bindings, named...)

	if len(bindings) == 0 {
		return "export {};\n"
	}

	return fmt.Sprintf("export { %s };\n", strings.Join(bindings, ", "))
}
