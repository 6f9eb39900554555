package build

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const chartXAxisRotate = 60

// WriteChart renders an HTML bar chart of emitted artifact sizes, largest
// first, to the given path.
func WriteChart(path string, entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Bytes > sorted[j].Bytes })

	labels := make([]string, len(sorted))
	data := make([]opts.BarData, len(sorted))

	for i, entry := range sorted {
		labels[i] = entry.Path
		data[i] = opts.BarData{Value: entry.Bytes}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Bundle size"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: chartXAxisRotate, Interval: "0"},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "bytes"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("bytes", data)

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer out.Close()

	renderErr := bar.Render(out)
	if renderErr != nil {
		return fmt.Errorf("render chart: %w", renderErr)
	}

	return nil
}
