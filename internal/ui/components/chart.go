package components

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/ui/styles"
)

// UsageSeries splits history points into five-hour and seven-day series.
// Points without a seven-day reading repeat the previous value so both
// series stay aligned.
func UsageSeries(points []models.UsagePoint) (fiveHour, sevenDay []float64) {
	fiveHour = make([]float64, len(points))
	sevenDay = make([]float64, len(points))
	last := 0.0
	for i, p := range points {
		fiveHour[i] = float64(p.FiveHourPercent)
		if p.SevenDayPercent != nil {
			last = float64(*p.SevenDayPercent)
		}
		sevenDay[i] = last
	}
	return fiveHour, sevenDay
}

// RenderUsageChart plots utilization history. The y axis is fixed to
// 0-100 so charts for different accounts compare directly.
func RenderUsageChart(points []models.UsagePoint, width, height int, caption string) string {
	if len(points) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	fiveHour, sevenDay := UsageSeries(points)
	if len(points) == 1 {
		fiveHour = append(fiveHour, fiveHour[0])
		sevenDay = append(sevenDay, sevenDay[0])
	}

	return asciigraph.PlotMany([][]float64{fiveHour, sevenDay},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
	)
}

// RenderPeakBars renders one horizontal bar per day of peak five-hour
// utilization.
func RenderPeakBars(peaks []models.DailyPeak, width int) string {
	if len(peaks) == 0 {
		return ""
	}

	barWidth := max(width-20, 10)
	lines := make([]string, 0, len(peaks))
	for _, p := range peaks {
		seven := "  --"
		if p.SevenDayPeak != nil {
			seven = fmt.Sprintf("%3d%%", *p.SevenDayPeak)
		}
		lines = append(lines, fmt.Sprintf("%s │%s %3d%%  7d %s",
			p.Day, RenderUsageBar(p.FiveHourPeak, barWidth), p.FiveHourPeak, seven))
	}
	return strings.Join(lines, "\n")
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline sparkline of percentages.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	var result strings.Builder
	step := max(float64(len(values))/float64(width), 1)

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		idx := clampInt(int(val/100*float64(len(sparkChars)-1)), 0, len(sparkChars)-1)
		result.WriteRune(sparkChars[idx])
	}

	return result.String()
}
