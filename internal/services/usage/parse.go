package usage

import (
	"encoding/json"
	"math"
	"time"

	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/models"
)

type rawBucket struct {
	Utilization *float64 `json:"utilization"`
	ResetsAt    *string  `json:"resets_at"`
}

type usageResponse struct {
	FiveHour *rawBucket `json:"five_hour"`
	SevenDay *rawBucket `json:"seven_day"`
}

// parseUsage decodes a usage body. five_hour is required; seven_day is
// optional and null counts as absent.
func parseUsage(op string, body []byte) (*models.UsageSnapshot, error) {
	var resp usageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, failure.New(failure.KindOther, op, "invalid usage response: %v", err)
	}
	if resp.FiveHour == nil {
		return nil, failure.New(failure.KindOther, op, "usage response has no five_hour bucket")
	}

	snap := &models.UsageSnapshot{FiveHour: resp.FiveHour.bucket()}
	if resp.SevenDay != nil {
		b := resp.SevenDay.bucket()
		snap.SevenDay = &b
	}
	return snap, nil
}

func (r *rawBucket) bucket() models.Bucket {
	return models.Bucket{
		Utilization: parseUtilization(r.Utilization),
		ResetsAt:    parseResetsAt(r.ResetsAt),
	}
}

// parseUtilization normalizes a utilization value to a percentage. Values in
// (0, 1] are fractions; everything else, including 0, is already a
// percentage. Missing means 0.
func parseUtilization(v *float64) int {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	f := *v
	if f > 0 && f <= 1 {
		f *= 100
	}
	if f < 0 {
		return 0
	}
	return int(math.Round(f))
}

// parseResetsAt parses an RFC3339 reset time. Missing or invalid gives nil.
func parseResetsAt(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}
