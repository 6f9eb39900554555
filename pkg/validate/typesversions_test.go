package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
	"github.com/Sumatoshi-tech/bundlefang/pkg/diagnostics"
	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
	"github.com/Sumatoshi-tech/bundlefang/pkg/node10"
	"github.com/Sumatoshi-tech/bundlefang/pkg/validate"
)

func synthTable() *node10.Table {
	return node10.Synthesize([]exports.Descriptor{
		{File: "./dist/index.d.ts", Key: exports.KeyExports, Subpath: ".", SubKey: "types"},
	}, node10.ModeCompatible)
}

func TestCheckTypesVersions_MissingTableWarns(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{"name": "pkg"}`, build.Options{})

	validate.CheckTypesVersions(bctx, synthTable(), validate.DefaultOptions())

	warns := messages(bctx, diagnostics.SeverityWarn)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "typesVersions")
}

func TestCheckTypesVersions_WriteBackSilencesMissing(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{"name": "pkg"}`, build.Options{Node10WriteToManifest: true})

	validate.CheckTypesVersions(bctx, synthTable(), validate.DefaultOptions())

	assert.False(t, bctx.Diagnostics.HasWarnings())
}

func TestCheckTypesVersions_StaleTableWarns(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{
		"name": "pkg",
		"typesVersions": {"*": {"old": ["./dist/old.d.ts"]}}
	}`, build.Options{})

	validate.CheckTypesVersions(bctx, synthTable(), validate.DefaultOptions())

	warns := messages(bctx, diagnostics.SeverityWarn)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "stale")
}

func TestCheckTypesVersions_UpToDateTableIsSilent(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{
		"name": "pkg",
		"typesVersions": {"*": {".": ["./dist/index.d.ts"]}}
	}`, build.Options{})

	validate.CheckTypesVersions(bctx, synthTable(), validate.DefaultOptions())

	assert.False(t, bctx.Diagnostics.HasWarnings())
}

func TestCheckTypesVersions_EmptyTableIsSilent(t *testing.T) {
	t.Parallel()

	bctx := newTestContext(t, `{"name": "pkg"}`, build.Options{})

	table := node10.Synthesize(nil, node10.ModeCompatible)

	validate.CheckTypesVersions(bctx, table, validate.DefaultOptions())

	assert.False(t, bctx.Diagnostics.HasWarnings())
}
