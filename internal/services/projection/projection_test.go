package projection

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/claude-tracker/internal/models"
)

var base = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

// series builds one reading every 10 minutes with the given utilizations.
func series(reset *time.Time, percents ...int) []models.UsagePoint {
	points := make([]models.UsagePoint, len(percents))
	for i, p := range percents {
		points[i] = models.UsagePoint{
			Account:         "work",
			FetchedAt:       base.Add(time.Duration(i) * 10 * time.Minute),
			FiveHourPercent: p,
			FiveHourResets:  reset,
		}
	}
	return points
}

func at(d time.Duration) *time.Time {
	t := base.Add(d)
	return &t
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name       string
		points     []models.UsagePoint
		nowOffset  time.Duration
		wantStatus models.ProjectionStatus
		wantRate   float64
		wantBefore bool
	}{
		{
			name:       "no data",
			wantStatus: models.ProjectionUnknown,
		},
		{
			name:       "single reading",
			points:     series(at(4*time.Hour), 20),
			wantStatus: models.ProjectionUnknown,
		},
		{
			name:       "flat usage",
			points:     series(at(4*time.Hour), 20, 20, 20),
			nowOffset:  20 * time.Minute,
			wantStatus: models.ProjectionSafe,
		},
		{
			// 30 points per hour runs out at 2h40m, after the 2h reset.
			name:       "lasts until reset",
			points:     series(at(2*time.Hour), 20, 25, 30),
			nowOffset:  20 * time.Minute,
			wantStatus: models.ProjectionSafe,
			wantRate:   30,
		},
		{
			// 60 points per hour leaves 50m from 50%.
			name:       "critical",
			points:     series(at(4*time.Hour), 30, 40, 50),
			nowOffset:  20 * time.Minute,
			wantStatus: models.ProjectionCritical,
			wantRate:   60,
			wantBefore: true,
		},
		{
			// 12 points per hour leaves 5h from 40%; reset in 7h.
			name:       "warning",
			points:     series(at(7*time.Hour), 30, 32, 34, 36, 38, 40),
			nowOffset:  50 * time.Minute,
			wantStatus: models.ProjectionWarning,
			wantRate:   12,
			wantBefore: true,
		},
		{
			name:       "window already reset",
			points:     series(at(15*time.Minute), 30, 40, 50),
			nowOffset:  20 * time.Minute,
			wantStatus: models.ProjectionSafe,
			wantRate:   60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj := Calculate(tt.points, base.Add(tt.nowOffset))
			if proj.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", proj.Status, tt.wantStatus)
			}
			if math.Abs(proj.Rate-tt.wantRate) > 0.01 {
				t.Errorf("Rate = %.2f, want %.2f", proj.Rate, tt.wantRate)
			}
			if proj.WillDepleteBefore != tt.wantBefore {
				t.Errorf("WillDepleteBefore = %v, want %v", proj.WillDepleteBefore, tt.wantBefore)
			}
		})
	}
}

func TestCalculate_IgnoresPreviousWindow(t *testing.T) {
	old := series(at(-time.Hour), 80, 90)
	current := series(at(4*time.Hour), 10, 20, 30)
	for i := range current {
		current[i].FetchedAt = current[i].FetchedAt.Add(30 * time.Minute)
	}

	proj := Calculate(append(old, current...), base.Add(time.Hour))
	if proj.DataPoints != 3 {
		t.Errorf("DataPoints = %d, want 3", proj.DataPoints)
	}
	if proj.Current != 30 {
		t.Errorf("Current = %d, want 30", proj.Current)
	}
	if math.Abs(proj.Rate-60) > 0.01 {
		t.Errorf("Rate = %.2f, want 60", proj.Rate)
	}
}

func TestCalculate_UnknownResetUsesDrop(t *testing.T) {
	points := series(nil, 70, 80, 5, 10)
	proj := Calculate(points, base.Add(30*time.Minute))
	if proj.DataPoints != 2 {
		t.Errorf("DataPoints = %d, want 2", proj.DataPoints)
	}
	if proj.ResetsAt != nil {
		t.Error("ResetsAt should be nil")
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		points int
		want   string
	}{
		{0, "low"},
		{5, "low"},
		{6, "medium"},
		{23, "medium"},
		{24, "high"},
	}
	for _, tt := range tests {
		if got := confidence(tt.points); got != tt.want {
			t.Errorf("confidence(%d) = %q, want %q", tt.points, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	now := base.Add(20 * time.Minute)

	if got := Summary(Calculate(nil, now), now); !strings.Contains(got, "Not enough data") {
		t.Errorf("unknown summary = %q", got)
	}
	if got := Summary(Calculate(series(at(4*time.Hour), 20, 20, 20), now), now); !strings.Contains(got, "No usage growth") {
		t.Errorf("flat summary = %q", got)
	}

	critical := Calculate(series(at(4*time.Hour), 30, 40, 50), now)
	if got := Summary(critical, now); !strings.Contains(got, "Runs out in 50m") {
		t.Errorf("critical summary = %q", got)
	}
}
