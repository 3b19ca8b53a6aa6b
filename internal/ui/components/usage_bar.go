// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/ui/styles"
)

const (
	barLowColor  = "#51cf66"
	barHighColor = "#ff6b6b"
)

// RenderUsageBar renders a bar filled to percent. Filled cells shade from
// green to red across the bar's width.
func RenderUsageBar(percent, width int) string {
	if width < 1 {
		return ""
	}

	filled := clampInt(width*percent/100, 0, width)

	var b strings.Builder
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(barLowColor, barHighColor, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

// FormatPercent renders a utilization percentage styled by level.
func FormatPercent(percent int) string {
	return styles.GetUsageStyle(percent).Render(fmt.Sprintf("%d%%", percent))
}

// LabeledUsageBar renders "label [bar] NN%" within width.
func LabeledUsageBar(label string, percent, width int) string {
	percentWidth := 5
	barWidth := max(width-lipgloss.Width(label)-percentWidth-4, 5)

	percentStr := styles.GetUsageStyle(percent).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%d%%", percent))

	return fmt.Sprintf("%s [%s] %s", styles.LabelStyle.Render(label), RenderUsageBar(percent, barWidth), percentStr)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// UsageBarText renders an unstyled bar, for places like table cells where
// embedded color codes would throw off width calculations.
func UsageBarText(percent, width int) string {
	if width < 1 {
		return ""
	}
	filled := clampInt(width*percent/100, 0, width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
