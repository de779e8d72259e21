package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/imcf-data/morphometry.report/internal/objects"
	"github.com/imcf-data/morphometry.report/internal/units"
)

// WriteVolumeChart renders a bar chart of the surviving objects' volumes
// to a standalone HTML file.
func WriteVolumeChart(path, imageID, unit string, records []objects.Measurement) error {
	xs := make([]string, len(records))
	ys := make([]opts.BarData, len(records))
	for i, r := range records {
		xs[i] = fmt.Sprintf("%d", r.ObjectIndex)
		ys[i] = opts.BarData{Value: r.Volume}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Object volumes", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Object volumes",
			Subtitle: fmt.Sprintf("image=%s objects=%d", imageID, len(records)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "object"}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("volume (%s)", units.Powered(unit, 3))}),
	)
	bar.SetXAxis(xs).AddSeries("volume", ys)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create chart: %w", err)
	}
	defer f.Close()
	if err := bar.Render(f); err != nil {
		return fmt.Errorf("report: render chart: %w", err)
	}
	return nil
}
