package build

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderSummary formats the per-entry build report as a text table: one row
// per emitted artifact plus a per-pass timing footer.
func RenderSummary(bctx *Context) string {
	entries := bctx.Entries()

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Pass != sorted[j].Pass {
			return sorted[i].Pass < sorted[j].Pass
		}

		return sorted[i].Path < sorted[j].Path
	})

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	// Keep the footer row verbatim; the default style uppercases it.
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"File", "Format", "Size", "Exports"})

	var total int64

	for _, entry := range sorted {
		format := string(entry.Format)
		if format == "" {
			format = "-"
		}

		tw.AppendRow(table.Row{
			entry.Path,
			format,
			humanize.Bytes(uint64(entry.Bytes)),
			len(entry.Exports),
		})

		total += entry.Bytes
	}

	tw.AppendFooter(table.Row{"total", "", humanize.Bytes(uint64(total)), ""})

	var sb strings.Builder

	sb.WriteString(tw.Render())
	sb.WriteString("\n")

	for _, pass := range []Pass{PassBundle, PassDeclaration} {
		if elapsed := bctx.PassTime(pass); elapsed > 0 {
			fmt.Fprintf(&sb, "%s pass: %s\n", pass, elapsed.Round(time.Millisecond))
		}
	}

	return sb.String()
}
