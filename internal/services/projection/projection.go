// Package projection estimates when an account's five-hour quota runs out
// from its recorded usage.
package projection

import (
	"fmt"
	"math"
	"time"

	"github.com/j-veylop/claude-tracker/internal/models"
)

const (
	window           = 5 * time.Hour
	minElapsed       = 5 * time.Minute
	lowConfThreshold = 6
	medConfThreshold = 24
)

// Calculate projects the five-hour window of the latest point in points,
// which must be in ascending FetchedAt order. Readings from an earlier
// window are ignored.
func Calculate(points []models.UsagePoint, now time.Time) models.Projection {
	proj := models.Projection{
		Status:     models.ProjectionUnknown,
		Confidence: "low",
		HoursLeft:  math.Inf(1),
	}
	if len(points) == 0 {
		return proj
	}

	current := currentWindow(points)
	first, last := current[0], current[len(current)-1]

	proj.Current = last.FiveHourPercent
	proj.ResetsAt = last.FiveHourResets
	proj.DataPoints = len(current)
	proj.Confidence = confidence(len(current))

	elapsed := last.FetchedAt.Sub(first.FetchedAt)
	if elapsed < minElapsed {
		return proj
	}

	proj.Rate = float64(last.FiveHourPercent-first.FiveHourPercent) / elapsed.Hours()
	if proj.Rate <= 0 {
		proj.Rate = 0
		proj.Status = models.ProjectionSafe
		return proj
	}

	remaining := float64(max(100-last.FiveHourPercent, 0))
	proj.HoursLeft = remaining / proj.Rate
	proj.DepleteAt = last.FetchedAt.Add(time.Duration(proj.HoursLeft * float64(time.Hour)))
	left := proj.DepleteAt.Sub(now)

	switch {
	case proj.ResetsAt != nil && !proj.ResetsAt.After(now):
		// The window has already reset upstream.
		proj.Status = models.ProjectionSafe
	case proj.ResetsAt != nil && !proj.DepleteAt.Before(*proj.ResetsAt):
		proj.Status = models.ProjectionSafe
	case left < time.Hour:
		proj.WillDepleteBefore = true
		proj.Status = models.ProjectionCritical
	default:
		proj.WillDepleteBefore = true
		proj.Status = models.ProjectionWarning
	}

	return proj
}

// currentWindow returns the trailing points that belong to the same
// five-hour window as the last point. Windows are matched by reset time
// when known and otherwise by age.
func currentWindow(points []models.UsagePoint) []models.UsagePoint {
	last := points[len(points)-1]
	start := len(points) - 1
	for i := len(points) - 2; i >= 0; i-- {
		p := points[i]
		if last.FiveHourResets != nil && p.FiveHourResets != nil {
			if !p.FiveHourResets.Equal(*last.FiveHourResets) {
				break
			}
		} else if last.FetchedAt.Sub(p.FetchedAt) > window {
			break
		}
		if p.FiveHourPercent > last.FiveHourPercent {
			// Utilization dropped, so a reset happened in between.
			break
		}
		start = i
	}
	return points[start:]
}

func confidence(points int) string {
	switch {
	case points < lowConfThreshold:
		return "low"
	case points < medConfThreshold:
		return "medium"
	default:
		return "high"
	}
}

// Summary renders a one-line description of proj relative to now.
func Summary(proj models.Projection, now time.Time) string {
	switch proj.Status {
	case models.ProjectionUnknown:
		return "Not enough data to project"
	case models.ProjectionSafe:
		if proj.Rate == 0 {
			return "No usage growth this window"
		}
		return fmt.Sprintf("Lasts until reset at %.1f%%/h", proj.Rate)
	default:
		left := max(proj.DepleteAt.Sub(now), 0)
		return fmt.Sprintf("Runs out in %s at %.1f%%/h (%s confidence)",
			formatHours(left), proj.Rate, proj.Confidence)
	}
}

func formatHours(d time.Duration) string {
	d = d.Round(time.Minute)
	if h := int(d.Hours()); h > 0 {
		return fmt.Sprintf("%dh %02dm", h, int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
