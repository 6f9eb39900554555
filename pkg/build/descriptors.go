package build

import (
	"fmt"
	"sort"

	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
	"github.com/Sumatoshi-tech/bundlefang/pkg/manifest"
)

// CollectDescriptors derives the full expected export surface of a manifest:
// the conditional exports map plus the shorthand main/module/types fields and
// the executables. When declaration is false, type entries are pruned.
func CollectDescriptors(pkg *manifest.PackageJSON, declaration bool) ([]exports.Descriptor, error) {
	descs, err := exports.ExtractExportFilenames(pkg.Exports, pkg.Type, declaration, nil)
	if err != nil {
		return nil, fmt.Errorf("resolve exports: %w", err)
	}

	if pkg.Main != "" {
		descs = append(descs, shorthandDescriptor(pkg.Main, exports.KeyMain, "main", pkg.Type))
	}

	if pkg.Module != "" {
		// The module field is ESM by convention regardless of extension.
		descs = append(descs, exports.Descriptor{
			File:      pkg.Module,
			Key:       exports.KeyModule,
			Subpath:   ".",
			Type:      exports.FormatESM,
			FieldName: "module",
		})
	}

	if declaration && pkg.Types != "" {
		descs = append(descs, exports.Descriptor{
			File:      pkg.Types,
			Key:       exports.KeyTypes,
			SubKey:    "types",
			Subpath:   ".",
			FieldName: "types",
		})
	}

	binNames := make([]string, 0, len(pkg.Bin))
	for name := range pkg.Bin {
		binNames = append(binNames, name)
	}

	sort.Strings(binNames)

	for _, name := range binNames {
		desc := shorthandDescriptor(pkg.Bin[name], exports.KeyBin, "bin."+name, pkg.Type)
		desc.IsExecutable = true
		descs = append(descs, desc)
	}

	return descs, nil
}

func shorthandDescriptor(file string, key exports.SourceKey, fieldName, packageType string) exports.Descriptor {
	format := exports.InferExportTypeFromFileName(file)
	if format == exports.FormatNone && !exports.IsDeclarationPath(file) {
		format = exports.PackageFormat(packageType)
	}

	return exports.Descriptor{
		File:      file,
		Key:       key,
		Subpath:   ".",
		Type:      format,
		FieldName: fieldName,
	}
}
