package validate

import (
	"encoding/json"

	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
	"github.com/Sumatoshi-tech/bundlefang/pkg/node10"
)

// CheckTypesVersions compares the manifest's existing typesVersions field
// against the freshly synthesized table. A stale table is only a warning:
// the build still echoes the correct table to the console, and write-back
// mode fixes the manifest automatically.
func CheckTypesVersions(bctx *build.Context, table *node10.Table, opts Options) {
	if !opts.TypesVersions || table.Len() == 0 {
		return
	}

	existing, ok := bctx.Manifest.Doc().Get("typesVersions")
	if !ok {
		if !bctx.Options.Node10WriteToManifest {
			bctx.Diagnostics.Warnf("typesVersions",
				"manifest has no typesVersions table; older TypeScript resolvers will not find subpath declarations")
		}

		return
	}

	if bctx.Options.Node10WriteToManifest {
		return
	}

	existingJSON, err := json.Marshal(existing)
	if err != nil {
		return
	}

	wantJSON, err := json.Marshal(table.Object())
	if err != nil {
		return
	}

	if string(existingJSON) != string(wantJSON) {
		bctx.Diagnostics.Warnf("typesVersions", "typesVersions is stale; copy the echoed table or enable write-back")
	}
}
