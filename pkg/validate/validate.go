// Package validate reconciles the export surface a manifest promises against
// what the compilation pipeline actually produced. It never aborts: every
// finding is appended to the build's diagnostic set and a single end-of-build
// policy check decides the outcome.
package validate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
)

// Options are the per-field validation toggles. Every check defaults on;
// manifests with intentional oddities can opt out field by field.
type Options struct {
	Bin           bool
	Dependencies  bool
	Exports       bool
	Files         bool
	Main          bool
	Module        bool
	Name          bool
	Types         bool
	TypesVersions bool
}

// DefaultOptions enables every check.
func DefaultOptions() Options {
	return Options{
		Bin:           true,
		Dependencies:  true,
		Exports:       true,
		Files:         true,
		Main:          true,
		Module:        true,
		Name:          true,
		Types:         true,
		TypesVersions: true,
	}
}

// ValidatePackage cross-checks the expected descriptor set against the
// emitted artifacts and the manifest's shorthand fields. Findings go to the
// build context's diagnostic set; nothing is silently dropped.
func ValidatePackage(bctx *build.Context, opts Options) {
	pkg := bctx.Manifest

	if opts.Name && pkg.Name == "" {
		bctx.Diagnostics.Warnf("name", "package has no name; publishing will fail")
	}

	if opts.Exports {
		validateDescriptors(bctx)
		validateOrphans(bctx)
	}

	if opts.Main && pkg.Main != "" {
		// main follows the package's declared type: an ESM-first package may
		// legitimately point main at its ESM entry.
		validateShorthand(bctx, "main", pkg.Main, exports.PackageFormat(pkg.Type))
	}

	if opts.Module && pkg.Module != "" {
		validateShorthand(bctx, "module", pkg.Module, exports.FormatESM)
	}

	if opts.Types && pkg.Types != "" {
		validateTypesField(bctx, pkg.Types)
	}

	if opts.Bin {
		validateBin(bctx)
	}

	if opts.Files {
		validateFiles(bctx)
	}
}

// validateDescriptors confirms a matching artifact exists for every
// descriptor the parser derived from the exports map.
func validateDescriptors(bctx *build.Context) {
	for _, desc := range bctx.Descriptors {
		// Shorthand fields have dedicated checks below. Wildcard patterns
		// cannot be matched against single artifacts.
		if desc.Key != exports.KeyExports || strings.Contains(desc.File, "*") {
			continue
		}

		entry, found := bctx.EntryFor(desc.File)
		if !found && !fileExists(bctx.Options.RootDir, desc.File) {
			bctx.Diagnostics.Errorf(desc.FieldName, "promised artifact %q was not built", desc.File)

			continue
		}

		if found && desc.Type != exports.FormatNone && entry.Format != exports.FormatNone && entry.Format != desc.Type {
			bctx.Diagnostics.Errorf(desc.FieldName,
				"artifact %q was built as %s but the manifest declares %s",
				desc.File, entry.Format, desc.Type)
		}
	}
}

// validateOrphans reports emitted entry points no manifest field claims.
func validateOrphans(bctx *build.Context) {
	promised := make(map[string]struct{}, len(bctx.Descriptors))

	for _, desc := range bctx.Descriptors {
		promised[build.NormalizePath(desc.File)] = struct{}{}
	}

	pkg := bctx.Manifest
	for _, shorthand := range []string{pkg.Main, pkg.Module, pkg.Types} {
		if shorthand != "" {
			promised[build.NormalizePath(shorthand)] = struct{}{}
		}
	}

	for _, binPath := range pkg.Bin {
		promised[build.NormalizePath(binPath)] = struct{}{}
	}

	for _, entry := range bctx.Entries() {
		if _, ok := promised[build.NormalizePath(entry.Path)]; !ok {
			bctx.Diagnostics.Warnf("exports", "built %q but no manifest field exposes it", entry.Path)
		}
	}
}

// validateShorthand checks existence and format consistency of a top-level
// path field. Missing artifacts break the build; a format disagreement is a
// warning because legacy resolvers may still load the file.
func validateShorthand(bctx *build.Context, field, file string, want exports.Format) {
	if _, found := bctx.EntryFor(file); !found && !fileExists(bctx.Options.RootDir, file) {
		bctx.Diagnostics.Errorf(field, "promised artifact %q was not built", file)

		return
	}

	got := exports.InferExportTypeFromFileName(file)
	if got == exports.FormatNone {
		got = exports.PackageFormat(bctx.Manifest.Type)
	}

	if got != want {
		bctx.Diagnostics.Warnf(field, "%q resolves as %s; the %s field is expected to be %s", file, got, field, want)
	}
}

// validateTypesField checks the declaration entry point.
func validateTypesField(bctx *build.Context, file string) {
	if !exports.IsDeclarationPath(file) {
		bctx.Diagnostics.Warnf("types", "%q is not a declaration file", file)
	}

	if _, found := bctx.EntryFor(file); !found && !fileExists(bctx.Options.RootDir, file) {
		bctx.Diagnostics.Errorf("types", "promised declaration %q was not built", file)
	}
}

// validateBin checks executables: a missing target breaks the build, a
// missing shebang is only a warning because `node path/to/bin` still works.
func validateBin(bctx *build.Context) {
	for name, binPath := range bctx.Manifest.Bin {
		field := "bin." + name

		_, found := bctx.EntryFor(binPath)
		onDisk := fileExists(bctx.Options.RootDir, binPath)

		if !found && !onDisk {
			bctx.Diagnostics.Errorf(field, "promised executable %q was not built", binPath)

			continue
		}

		if onDisk && !hasShebang(filepath.Join(bctx.Options.RootDir, binPath)) {
			bctx.Diagnostics.Warnf(field, "%q has no shebang line", binPath)
		}
	}
}

// validateFiles warns about publish allow-list entries that match nothing.
func validateFiles(bctx *build.Context) {
	for _, pattern := range bctx.Manifest.Files {
		cleaned := strings.TrimSuffix(strings.TrimPrefix(pattern, "./"), "/")
		if cleaned == "" || strings.ContainsAny(cleaned, "*?[") {
			// Glob patterns are matched by the package manager at pack time.
			continue
		}

		if !fileExists(bctx.Options.RootDir, cleaned) {
			bctx.Diagnostics.Warnf("files", "%q is listed but does not exist", pattern)
		}
	}
}

func fileExists(rootDir, file string) bool {
	if rootDir == "" {
		return false
	}

	_, err := os.Stat(filepath.Join(rootDir, build.NormalizePath(file)))

	return err == nil
}

// hasShebang reports whether the file starts with "#!".
func hasShebang(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var head [2]byte

	n, err := f.Read(head[:])
	if err != nil || n < 2 {
		return false
	}

	return head[0] == '#' && head[1] == '!'
}
