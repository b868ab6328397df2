package output

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/corpusarch/carch/internal/models"
	"github.com/corpusarch/carch/internal/storage"
)

// GrowthCharts builds the corpus growth charts: document count and summed
// document size over the version sequence.
func GrowthCharts(repository string, versions []models.Version) []components.Charter {
	labels := make([]string, len(versions))
	counts := make([]opts.LineData, len(versions))
	sizes := make([]opts.LineData, len(versions))
	for i, v := range versions {
		labels[i] = v.DateFrom.Format(dateFormat)
		counts[i] = opts.LineData{Value: v.DocumentCount}
		sizes[i] = opts.LineData{Value: v.SizeSum}
	}

	countChart := newLineChart(
		fmt.Sprintf("Documents in %s over time", repository), "Documents", labels)
	countChart.AddSeries("Documents", counts,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	sizeChart := newLineChart(
		fmt.Sprintf("Corpus size of %s over time", repository), "Bytes", labels)
	sizeChart.AddSeries("Sum of document sizes", sizes,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return []components.Charter{countChart, sizeChart}
}

// HistoryChart builds the size series of one document. Versions where the
// document is absent become gaps in the line.
func HistoryChart(name string, samples []storage.DocumentSample) components.Charter {
	labels := make([]string, len(samples))
	data := make([]opts.LineData, len(samples))
	for i, sample := range samples {
		labels[i] = sample.DateFrom.Format(dateFormat)
		if sample.Size != nil {
			data[i] = opts.LineData{Value: *sample.Size}
		} else {
			data[i] = opts.LineData{Value: "-"}
		}
	}

	chart := newLineChart(fmt.Sprintf("Size of %s over time", name), "Bytes", labels)
	chart.AddSeries(name, data)
	return chart
}

// WritePage renders charts into a single HTML page at path.
func WritePage(path string, charters ...components.Charter) error {
	page := components.NewPage()
	page.AddCharts(charters...)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}

func newLineChart(title, yAxisLabel string, labels []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yAxisLabel}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(labels)
	return line
}
