package exports_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/bundlefang/pkg/exports"
)

func TestInferExportTypeFromFileName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		filename string
		want     exports.Format
	}{
		{"./dist/index.mjs", exports.FormatESM},
		{"./dist/index.mts", exports.FormatESM},
		{"./dist/index.cjs", exports.FormatCJS},
		{"./dist/index.cts", exports.FormatCJS},
		{"./dist/index.js", exports.FormatNone},
		{"./dist/index.ts", exports.FormatNone},
		{"./dist/index.d.ts", exports.FormatNone},
		{"./dist/index.d.mts", exports.FormatNone},
		{"./dist/index.d.cts", exports.FormatNone},
		{"./styles.css", exports.FormatNone},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, exports.InferExportTypeFromFileName(tc.filename), tc.filename)
	}
}

func TestInferExportType_ConditionOutranksExtensionAmbiguity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exports.FormatESM, exports.InferExportType("import", nil, "./dist/index.js", "commonjs"))
	assert.Equal(t, exports.FormatCJS, exports.InferExportType("require", nil, "./dist/index.js", "module"))
}

func TestInferExportType_ExtensionOutranksPackageType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exports.FormatCJS, exports.InferExportType("node", nil, "./dist/index.cjs", "module"))
	assert.Equal(t, exports.FormatESM, exports.InferExportType("node", nil, "./dist/index.mjs", "commonjs"))
}

func TestInferExportType_DefaultWalksEnclosingConditions(t *testing.T) {
	t.Parallel()

	// {".": {"import": {"default": "./dist/index.js"}}} in an ESM package.
	got := exports.InferExportType("default", []string{".", "import"}, "./dist/index.js", "module")
	assert.Equal(t, exports.FormatESM, got)

	// Nearest enclosing condition wins over an outer one.
	got = exports.InferExportType("default", []string{"import", "require"}, "./dist/index.js", "module")
	assert.Equal(t, exports.FormatCJS, got)
}

func TestInferExportType_FallsBackToPackageType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exports.FormatESM, exports.InferExportType("default", nil, "./dist/index.js", "module"))
	assert.Equal(t, exports.FormatCJS, exports.InferExportType("default", nil, "./dist/index.js", "commonjs"))
	assert.Equal(t, exports.FormatCJS, exports.InferExportType("default", nil, "./dist/index.js", ""))
}
