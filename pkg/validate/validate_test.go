package validate_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
	"github.com/Sumatoshi-tech/bundlefang/pkg/diagnostics"
	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
	"github.com/Sumatoshi-tech/bundlefang/pkg/manifest"
	"github.com/Sumatoshi-tech/bundlefang/pkg/validate"
)

func newTestContext(t *testing.T, manifestJSON string, opts build.Options) *build.Context {
	t.Helper()

	pkg, err := manifest.Parse([]byte(manifestJSON))
	require.NoError(t, err)

	descs, err := exports.ExtractExportFilenames(pkg.Exports, pkg.Type, true, nil)
	require.NoError(t, err)

	return build.NewContext(pkg, opts, descs)
}

func addEntries(bctx *build.Context, entries ...build.Entry) {
	bctx.AddResult(build.PassBundle, build.Result{Entries: entries}, time.Millisecond)
}

func messages(bctx *build.Context, severity diagnostics.Severity) []string {
	var out []string

	for _, d := range bctx.Diagnostics.Items() {
		if d.Severity == severity {
			out = append(out, d.String())
		}
	}

	return out
}

func TestValidatePackage_MissingArtifactIsError(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{
		"name": "pkg",
		"exports": {".": {"import": "./dist/index.mjs"}}
	}`, build.Options{})

	validate.ValidatePackage(bctx, validate.DefaultOptions())

	errs := messages(bctx, diagnostics.SeverityError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `exports["."].import`)
	assert.Contains(t, errs[0], "./dist/index.mjs")
}

func TestValidatePackage_MatchingArtifactPasses(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{
		"name": "pkg",
		"exports": {".": {"import": "./dist/index.mjs"}}
	}`, build.Options{})

	addEntries(bctx, build.Entry{Path: "./dist/index.mjs", Format: exports.FormatESM})

	validate.ValidatePackage(bctx, validate.DefaultOptions())

	assert.False(t, bctx.Diagnostics.HasErrors())
}

func TestValidatePackage_FormatMismatchIsError(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{
		"name": "pkg",
		"exports": {".": {"import": "./dist/index.mjs"}}
	}`, build.Options{})

	addEntries(bctx, build.Entry{Path: "./dist/index.mjs", Format: exports.FormatCJS})

	validate.ValidatePackage(bctx, validate.DefaultOptions())

	assert.True(t, bctx.Diagnostics.HasErrors())
}

func TestValidatePackage_OrphanedEntryIsWarning(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{
		"name": "pkg",
		"exports": {".": {"import": "./dist/index.mjs"}}
	}`, build.Options{})

	addEntries(bctx,
		build.Entry{Path: "./dist/index.mjs", Format: exports.FormatESM},
		build.Entry{Path: "./dist/extra.mjs", Format: exports.FormatESM},
	)

	validate.ValidatePackage(bctx, validate.DefaultOptions())

	warns := messages(bctx, diagnostics.SeverityWarn)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "./dist/extra.mjs")
}

func TestValidatePackage_ExportsCheckCanBeDisabled(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{
		"name": "pkg",
		"exports": {".": {"import": "./dist/index.mjs"}}
	}`, build.Options{})

	opts := validate.DefaultOptions()
	opts.Exports = false

	validate.ValidatePackage(bctx, opts)

	assert.False(t, bctx.Diagnostics.HasErrors())
}

func TestValidatePackage_BinShebang(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0o755))

	withShebang := filepath.Join(dir, "dist", "cli.cjs")
	require.NoError(t, os.WriteFile(withShebang, []byte("#!/usr/bin/env node\n"), 0o755))

	withoutShebang := filepath.Join(dir, "dist", "plain.cjs")
	require.NoError(t, os.WriteFile(withoutShebang, []byte("module.exports = 1;\n"), 0o755))

	bctx := newTestContext(t, `{
		"name": "pkg",
		"bin": {"cli": "./dist/cli.cjs", "plain": "./dist/plain.cjs", "ghost": "./dist/ghost.cjs"}
	}`, build.Options{RootDir: dir})

	validate.ValidatePackage(bctx, validate.DefaultOptions())

	warns := messages(bctx, diagnostics.SeverityWarn)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "./dist/plain.cjs")
	assert.Contains(t, warns[0], "shebang")

	errs := messages(bctx, diagnostics.SeverityError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "./dist/ghost.cjs")
}

func TestValidatePackage_ShorthandFields(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{
		"name": "pkg",
		"main": "./dist/index.cjs",
		"module": "./dist/index.cjs"
	}`, build.Options{})

	addEntries(bctx, build.Entry{Path: "./dist/index.cjs", Format: exports.FormatCJS})

	validate.ValidatePackage(bctx, validate.DefaultOptions())

	// main is satisfied; module points at a CJS file and warns.
	assert.False(t, bctx.Diagnostics.HasErrors())

	warns := messages(bctx, diagnostics.SeverityWarn)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "module")
}

func TestValidatePackage_ESMPackageMainMayBeESM(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{
		"name": "pkg",
		"type": "module",
		"main": "./dist/index.mjs"
	}`, build.Options{})

	addEntries(bctx, build.Entry{Path: "./dist/index.mjs", Format: exports.FormatESM})

	validate.ValidatePackage(bctx, validate.DefaultOptions())

	assert.False(t, bctx.Diagnostics.HasErrors())
	assert.False(t, bctx.Diagnostics.HasWarnings())
}

func TestValidatePackage_ESMPackageCJSMainWarns(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{
		"name": "pkg",
		"type": "module",
		"main": "./dist/index.cjs"
	}`, build.Options{})

	addEntries(bctx, build.Entry{Path: "./dist/index.cjs", Format: exports.FormatCJS})

	validate.ValidatePackage(bctx, validate.DefaultOptions())

	warns := messages(bctx, diagnostics.SeverityWarn)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "main")
}

func TestValidateDependencies_OneWarningPerUniqueImport(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{
		"name": "pkg",
		"dependencies": {"declared": "^1.0.0"}
	}`, build.Options{})

	bctx.AddResult(build.PassBundle, build.Result{
		Imports: []string{
			"ghost-pkg", "ghost-pkg/deep", "ghost-pkg",
			"declared", "declared/sub",
			"node:fs", "fs/promises", "path",
			"./relative", "../up",
		},
	}, time.Millisecond)

	validate.ValidateDependencies(bctx, validate.DefaultOptions())

	warns := messages(bctx, diagnostics.SeverityWarn)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "ghost-pkg")
}

func TestValidateDependencies_ExternalsAndScopedPackages(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{"name": "pkg"}`, build.Options{
		Externals: []string{"@scope/allowed"},
	})

	bctx.AddResult(build.PassBundle, build.Result{
		Imports: []string{"@scope/allowed/util", "@scope/ghost/util"},
	}, time.Millisecond)

	validate.ValidateDependencies(bctx, validate.DefaultOptions())

	warns := messages(bctx, diagnostics.SeverityWarn)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "@scope/ghost")
}

func TestValidateDependencies_Disabled(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{"name": "pkg"}`, build.Options{})
	bctx.AddResult(build.PassBundle, build.Result{Imports: []string{"ghost-pkg"}}, time.Millisecond)

	opts := validate.DefaultOptions()
	opts.Dependencies = false

	validate.ValidateDependencies(bctx, opts)

	assert.False(t, bctx.Diagnostics.HasWarnings())
}
