package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/listdelta/internal/bench"
)

const (
	chartWidth  = "100%"
	chartHeight = "480px"
)

// Bench writes a table of bench results.
func Bench(w io.Writer, results []bench.Result) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Workload", "Mode", "Operations", "Events", "Blocks", "Duration", "Ops/s", "Batch p50", "Batch p99"})

	for _, r := range results {
		tbl.AppendRow(table.Row{
			r.Workload,
			r.Mode,
			humanize.Comma(int64(r.Operations)),
			humanize.Comma(int64(r.Events)),
			humanize.Comma(int64(r.Blocks)),
			r.Duration.String(),
			humanize.SIWithDigits(r.OpsPerSecond(), 1, ""),
			r.Batch.P50.String(),
			r.Batch.P99.String(),
		})
	}

	tbl.Render()
}

// BenchChart writes an HTML bar chart of throughput per workload, one
// series per store mode.
func BenchChart(w io.Writer, results []bench.Result) error {
	var workloads, modes []string

	seen := make(map[string]bool)
	values := make(map[string]map[string]float64)

	for _, r := range results {
		if !seen["w:"+r.Workload] {
			seen["w:"+r.Workload] = true
			workloads = append(workloads, r.Workload)
		}

		if !seen["m:"+r.Mode] {
			seen["m:"+r.Mode] = true
			modes = append(modes, r.Mode)
			values[r.Mode] = make(map[string]float64)
		}

		values[r.Mode][r.Workload] = r.OpsPerSecond()
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight, PageTitle: "listdelta bench"}),
		charts.WithTitleOpts(opts.Title{Title: "Event assembly throughput", Subtitle: "operations per second"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ops/s"}),
	)
	bar.SetXAxis(workloads)

	for _, mode := range modes {
		data := make([]opts.BarData, len(workloads))
		for i, wl := range workloads {
			data[i] = opts.BarData{Value: values[mode][wl]}
		}

		bar.AddSeries(mode, data)
	}

	err := bar.Render(w)
	if err != nil {
		return fmt.Errorf("render bench chart: %w", err)
	}

	return nil
}
