package exports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/bundlefang/pkg/jsontree"
)

// ConfigError reports a contradictory manifest declaration: an export entry
// whose file cannot be loaded under the format the manifest declares for it.
// It is fatal at parse time, before any compilation starts.
type ConfigError struct {
	// File is the conflicting export path.
	File string
	// Declared is the format the manifest promises for the entry.
	Declared Format
	// Inferred is the format implied by the entry itself.
	Inferred Format
	// Field is the dotted manifest field path of the entry.
	Field string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf(
		"conflicting module formats in %s: %q is %s but the manifest declares %s",
		e.Field, e.File, e.Inferred, e.Declared,
	)
}

// ExtractExportFilenames normalizes an exports field into descriptors.
//
// The field may be nil (no exports, no error), a bare path string, an array
// of fallback path strings, or a nested conditional object whose keys are
// subpaths or condition names. Object values are resolved by recursive
// descent: string and array values are leaves, object values recurse with
// their key appended to the conditions path. Subpath and condition keys are
// never distinguished structurally; real manifests mix them and the parser
// must stay permissive.
//
// Entries pointing at ".json" files are pass-through data exports and never
// produce descriptors. When declaration is false, branches under the "types"
// condition are pruned entirely.
func ExtractExportFilenames(exportsField any, packageType string, declaration bool, conditions []string) ([]Descriptor, error) {
	switch field := exportsField.(type) {
	case nil:
		return nil, nil
	case string:
		desc, err := leafDescriptor(field, "", conditions, packageType, len(conditions) == 0)
		if err != nil {
			return nil, err
		}

		if desc == nil {
			return nil, nil
		}

		if len(conditions) == 0 {
			desc.Subpath = "."
		}

		return []Descriptor{*desc}, nil
	case []any:
		return extractFromArray(field, packageType, declaration, conditions)
	case *jsontree.Object:
		return extractFromObject(field.Keys(), field, packageType, declaration, conditions)
	case map[string]any:
		// Plain decoded maps lose document order; fall back to sorted keys so
		// the result is at least deterministic.
		keys := make([]string, 0, len(field))
		for key := range field {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		return extractFromObject(keys, mapGetter(field), packageType, declaration, conditions)
	default:
		return nil, nil
	}
}

// getter abstracts ordered and unordered object access during descent.
type getter interface {
	Get(key string) (any, bool)
}

// mapGetter adapts a plain map to the getter interface.
type mapGetter map[string]any

func (m mapGetter) Get(key string) (any, bool) {
	v, ok := m[key]

	return v, ok
}

// extractFromObject walks one level of a conditional exports object.
func extractFromObject(keys []string, values getter, packageType string, declaration bool, conditions []string) ([]Descriptor, error) {
	var descriptors []Descriptor

	for _, key := range keys {
		if key == "types" && !declaration {
			continue
		}

		value, _ := values.Get(key)

		switch leaf := value.(type) {
		case string:
			desc, err := leafDescriptor(leaf, key, conditions, packageType, false)
			if err != nil {
				return nil, err
			}

			if desc != nil {
				descriptors = append(descriptors, *desc)
			}
		case []any:
			for _, item := range leaf {
				file, ok := item.(string)
				if !ok {
					continue
				}

				desc, err := leafDescriptor(file, key, conditions, packageType, false)
				if err != nil {
					return nil, err
				}

				if desc != nil {
					descriptors = append(descriptors, *desc)
				}
			}
		default:
			nested, err := ExtractExportFilenames(value, packageType, declaration, append(conditions[:len(conditions):len(conditions)], key))
			if err != nil {
				return nil, err
			}

			descriptors = append(descriptors, nested...)
		}
	}

	return descriptors, nil
}

// extractFromArray handles the top-level fallback array form. Members behave
// like bare string exports and collapse onto the "*" wildcard subpath.
func extractFromArray(field []any, packageType string, declaration bool, conditions []string) ([]Descriptor, error) {
	var descriptors []Descriptor

	for _, item := range field {
		switch member := item.(type) {
		case string:
			desc, err := leafDescriptor(member, "", conditions, packageType, len(conditions) == 0)
			if err != nil {
				return nil, err
			}

			if desc != nil {
				if len(conditions) == 0 {
					desc.Subpath = "./*"
				}

				descriptors = append(descriptors, *desc)
			}
		default:
			nested, err := ExtractExportFilenames(item, packageType, declaration, conditions)
			if err != nil {
				return nil, err
			}

			descriptors = append(descriptors, nested...)
		}
	}

	return descriptors, nil
}

// leafDescriptor builds the descriptor for one resolved path string.
// bareForm marks the unconditioned string/array export forms, where the file
// extension must agree with the manifest's declared package type.
func leafDescriptor(file, condition string, conditions []string, packageType string, bareForm bool) (*Descriptor, error) {
	if strings.HasSuffix(file, ".json") {
		return nil, nil
	}

	desc := Descriptor{
		File:      file,
		Key:       KeyExports,
		Subpath:   subpathOf(condition, conditions),
		FieldName: fieldPath(condition, conditions),
	}

	if IsKnownCondition(condition) {
		desc.SubKey = condition
	}

	if !isCodePath(file) {
		return &desc, nil
	}

	inferred := InferExportType(condition, conditions, file, packageType)

	err := checkFormatConsistency(&desc, condition, conditions, file, packageType, bareForm)
	if err != nil {
		return nil, err
	}

	desc.Type = inferred

	return &desc, nil
}

// checkFormatConsistency enforces the descriptor invariant that an inferred
// type must match the file's extension-implied format. A violated entry
// cannot be loaded as declared, so it is a hard configuration error.
func checkFormatConsistency(desc *Descriptor, condition string, conditions []string, file, packageType string, bareForm bool) error {
	extSignal := InferExportTypeFromFileName(file)
	pkgSignal := PackageFormat(packageType)
	condSignal := chainFormat(condition, conditions)

	switch {
	case condSignal != FormatNone && extSignal != FormatNone && condSignal != extSignal:
		return &ConfigError{File: file, Declared: condSignal, Inferred: extSignal, Field: desc.FieldName}
	case condSignal != FormatNone && extSignal == FormatNone && condSignal != pkgSignal:
		return &ConfigError{File: file, Declared: condSignal, Inferred: pkgSignal, Field: desc.FieldName}
	case bareForm && condSignal == FormatNone && extSignal != FormatNone && extSignal != pkgSignal:
		return &ConfigError{File: file, Declared: pkgSignal, Inferred: extSignal, Field: desc.FieldName}
	default:
		return nil
	}
}

// chainFormat resolves the format promised by the condition path, nearest
// condition first.
func chainFormat(condition string, conditions []string) Format {
	if format := conditionFormat(condition); format != FormatNone {
		return format
	}

	for i := len(conditions) - 1; i >= 0; i-- {
		if format := conditionFormat(conditions[i]); format != FormatNone {
			return format
		}
	}

	return FormatNone
}

// subpathOf finds the exports subpath an entry belongs to: the first
// "."-prefixed key in the conditions path, or the root export.
func subpathOf(condition string, conditions []string) string {
	for _, key := range conditions {
		if strings.HasPrefix(key, ".") {
			return key
		}
	}

	if strings.HasPrefix(condition, ".") {
		return condition
	}

	return "."
}

// fieldPath renders the dotted manifest field path for diagnostics,
// e.g. `exports["."].import.types`.
func fieldPath(condition string, conditions []string) string {
	var sb strings.Builder

	sb.WriteString("exports")

	for _, key := range conditions {
		writeFieldSegment(&sb, key)
	}

	if condition != "" {
		writeFieldSegment(&sb, condition)
	}

	return sb.String()
}

func writeFieldSegment(sb *strings.Builder, key string) {
	if strings.HasPrefix(key, ".") {
		fmt.Fprintf(sb, "[%q]", key)

		return
	}

	sb.WriteString(".")
	sb.WriteString(key)
}

// codeExtensions are the extensions compiled entries may carry. Anything else
// (assets, declarations) is non-code and stays format-free.
var codeExtensions = []string{".mjs", ".cjs", ".mts", ".cts", ".js", ".ts", ".jsx", ".tsx"}

func isCodePath(file string) bool {
	if IsDeclarationPath(file) {
		return false
	}

	for _, ext := range codeExtensions {
		if strings.HasSuffix(file, ext) {
			return true
		}
	}

	return false
}
