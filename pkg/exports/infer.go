package exports

import "strings"

// InferExportTypeFromFileName infers the module format from a file extension.
// ".js"/".ts" are ambiguous and return FormatNone; declaration files are
// non-code and also return FormatNone.
func InferExportTypeFromFileName(filename string) Format {
	if IsDeclarationPath(filename) {
		return FormatNone
	}

	switch {
	case strings.HasSuffix(filename, ".mjs"), strings.HasSuffix(filename, ".mts"):
		return FormatESM
	case strings.HasSuffix(filename, ".cjs"), strings.HasSuffix(filename, ".cts"):
		return FormatCJS
	default:
		return FormatNone
	}
}

// PackageFormat returns the format implied by a manifest's top-level "type"
// field: "module" means ESM, anything else (including absent) means CommonJS.
func PackageFormat(packageType string) Format {
	if packageType == "module" {
		return FormatESM
	}

	return FormatCJS
}

// InferExportType resolves the module format of one export entry.
//
// Precedence: an explicit "import"/"require" condition outranks the file
// extension, which outranks the package's declared type. A "default" (or any
// other) condition with an ambiguous extension resolves using the nearest
// enclosing "import"/"require" in the accumulated conditions path, falling
// back to the package type.
func InferExportType(condition string, previousConditions []string, filename, packageType string) Format {
	if format := conditionFormat(condition); format != FormatNone {
		return format
	}

	if format := InferExportTypeFromFileName(filename); format != FormatNone {
		return format
	}

	for i := len(previousConditions) - 1; i >= 0; i-- {
		if format := conditionFormat(previousConditions[i]); format != FormatNone {
			return format
		}
	}

	return PackageFormat(packageType)
}

// conditionFormat maps the two format-bearing condition names.
func conditionFormat(condition string) Format {
	switch condition {
	case "import":
		return FormatESM
	case "require":
		return FormatCJS
	default:
		return FormatNone
	}
}
