package node10

import (
	"encoding/json"
	"fmt"
)

// Render returns the console-visible form of the table: indented JSON with
// the stable subpath order. It is echoed even when the table is not written
// back to the manifest, so users can copy it manually.
func (t *Table) Render() string {
	encoded, err := json.MarshalIndent(t.Object(), "", "  ")
	if err != nil {
		// The table contains only strings and slices; encoding cannot fail
		// short of memory corruption.
		return fmt.Sprintf("<unrenderable typesVersions: %v>", err)
	}

	return string(encoded)
}
