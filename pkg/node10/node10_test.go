package node10_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
	"github.com/Sumatoshi-tech/bundlefang/pkg/jsontree"
	"github.com/Sumatoshi-tech/bundlefang/pkg/node10"
)

func parseExports(t *testing.T, raw, packageType string) []exports.Descriptor {
	t.Helper()

	obj := jsontree.NewObject()
	require.NoError(t, json.Unmarshal([]byte(raw), obj))

	descs, err := exports.ExtractExportFilenames(obj, packageType, true, nil)
	require.NoError(t, err)

	return descs
}

func TestSynthesize_UnifiesConditionalDeclarationsInCompatibleMode(t *testing.T) {
	t.Parallel()

	descs := parseExports(t, `{
		".": {
			"import": {"default": "./dist/index.mjs", "types": "./dist/index.d.mts"},
			"require": {"default": "./dist/index.cjs", "types": "./dist/index.d.cts"}
		}
	}`, "commonjs")

	table := node10.Synthesize(descs, node10.ModeCompatible)

	assert.Equal(t, []string{"."}, table.Subpaths())
	assert.Equal(t, []string{"./dist/index.d.ts"}, table.Declarations("."))
}

func TestSynthesize_Node16KeepsConditionalVariants(t *testing.T) {
	t.Parallel()

	descs := parseExports(t, `{
		".": {
			"import": {"types": "./dist/index.d.mts"},
			"require": {"types": "./dist/index.d.cts"}
		}
	}`, "commonjs")

	table := node10.Synthesize(descs, node10.ModeNode16)

	assert.Equal(t, []string{"./dist/index.d.mts", "./dist/index.d.cts"}, table.Declarations("."))
}

func TestSynthesize_SubpathKeyNormalization(t *testing.T) {
	t.Parallel()

	descs := parseExports(t, `{
		".": {"types": "./dist/index.d.ts"},
		"./deep": {"types": "./dist/deep.d.ts"},
		"./*": {"types": "./dist/*.d.ts"}
	}`, "commonjs")

	table := node10.Synthesize(descs, node10.ModeCompatible)

	assert.Equal(t, []string{".", "deep", "*"}, table.Subpaths())
	assert.Equal(t, []string{"./dist/deep.d.ts"}, table.Declarations("deep"))
	assert.Equal(t, []string{"./dist/*.d.ts"}, table.Declarations("*"))
}

func TestSynthesize_SubpathOrderStable(t *testing.T) {
	t.Parallel()

	// The wildcard comes last and the root first regardless of manifest
	// position; literal subpaths keep manifest order.
	descs := parseExports(t, `{
		"./*": {"types": "./dist/*.d.ts"},
		"./b": {"types": "./dist/b.d.ts"},
		".": {"types": "./dist/index.d.ts"},
		"./a": {"types": "./dist/a.d.ts"}
	}`, "commonjs")

	table := node10.Synthesize(descs, node10.ModeCompatible)

	assert.Equal(t, []string{".", "b", "a", "*"}, table.Subpaths())
}

func TestSynthesize_MergesEnvironmentVariants(t *testing.T) {
	t.Parallel()

	descs := parseExports(t, `{
		"./env": {
			"browser": {"types": "./dist/env.browser.d.ts"},
			"node": {"types": "./dist/env.node.d.ts"}
		}
	}`, "commonjs")

	table := node10.Synthesize(descs, node10.ModeCompatible)

	assert.Equal(t,
		[]string{"./dist/env.browser.d.ts", "./dist/env.node.d.ts"},
		table.Declarations("env"),
	)
}

func TestSynthesize_DeduplicatesIdenticalPaths(t *testing.T) {
	t.Parallel()

	descs := parseExports(t, `{
		"./x": {
			"import": {"types": "./dist/x.d.mts"},
			"require": {"types": "./dist/x.d.cts"}
		}
	}`, "commonjs")

	// Compatible mode maps both variants onto the same unified path; the
	// list must contain it once.
	table := node10.Synthesize(descs, node10.ModeCompatible)

	assert.Equal(t, []string{"./dist/x.d.ts"}, table.Declarations("x"))
}

func TestSynthesize_DerivesDeclarationFromCodeEntries(t *testing.T) {
	t.Parallel()

	descs := parseExports(t, `{
		"./lib": {"import": "./dist/lib.mjs"}
	}`, "module")

	compatible := node10.Synthesize(descs, node10.ModeCompatible)
	assert.Equal(t, []string{"./dist/lib.d.ts"}, compatible.Declarations("lib"))

	node16 := node10.Synthesize(descs, node10.ModeNode16)
	assert.Equal(t, []string{"./dist/lib.d.mts"}, node16.Declarations("lib"))
}

func TestSynthesize_ArrayFormCollapsesToWildcard(t *testing.T) {
	t.Parallel()

	descs, err := exports.ExtractExportFilenames([]any{"./dist/a.mjs", "./dist/b.mjs"}, "module", true, nil)
	require.NoError(t, err)

	table := node10.Synthesize(descs, node10.ModeCompatible)

	assert.Equal(t, []string{"*"}, table.Subpaths())
	assert.Equal(t, []string{"./dist/a.d.ts", "./dist/b.d.ts"}, table.Declarations("*"))
}

func TestTable_ObjectShape(t *testing.T) {
	t.Parallel()

	descs := parseExports(t, `{".": {"types": "./dist/index.d.ts"}}`, "commonjs")
	table := node10.Synthesize(descs, node10.ModeCompatible)

	encoded, err := json.Marshal(table.Object())
	require.NoError(t, err)

	assert.JSONEq(t, `{"*": {".": ["./dist/index.d.ts"]}}`, string(encoded))
}

func TestTable_RenderStableOrder(t *testing.T) {
	t.Parallel()

	descs := parseExports(t, `{
		"./z": {"types": "./dist/z.d.ts"},
		".": {"types": "./dist/index.d.ts"}
	}`, "commonjs")

	table := node10.Synthesize(descs, node10.ModeCompatible)
	rendered := table.Render()

	rootIdx := indexOf(t, rendered, `"."`)
	zIdx := indexOf(t, rendered, `"z"`)
	assert.Less(t, rootIdx, zIdx, "root export must render first")
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()

	idx := -1

	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			idx = i

			break
		}
	}

	require.GreaterOrEqual(t, idx, 0, "missing %q in %q", needle, haystack)

	return idx
}
