package models

import "time"

// Bucket is one quota window: percent used and when it resets.
type Bucket struct {
	ResetsAt    *time.Time
	Utilization int
}

// Effective returns the utilization to display at now. A window whose reset
// time has passed has been refilled upstream even if not yet re-fetched.
func (b Bucket) Effective(now time.Time) int {
	if b.ResetsAt != nil && !b.ResetsAt.After(now) {
		return 0
	}
	return b.Utilization
}

// UsageSnapshot is one successful usage reading for an account.
type UsageSnapshot struct {
	SevenDay *Bucket
	FiveHour Bucket
}

// Clone returns a deep copy of the snapshot.
func (u UsageSnapshot) Clone() UsageSnapshot {
	clone := UsageSnapshot{FiveHour: cloneBucket(u.FiveHour)}
	if u.SevenDay != nil {
		b := cloneBucket(*u.SevenDay)
		clone.SevenDay = &b
	}
	return clone
}

func cloneBucket(b Bucket) Bucket {
	if b.ResetsAt != nil {
		t := *b.ResetsAt
		b.ResetsAt = &t
	}
	return b
}

// UsagePoint is a stored usage reading used for history charts.
type UsagePoint struct {
	FetchedAt       time.Time
	FiveHourResets  *time.Time
	SevenDayResets  *time.Time
	SevenDayPercent *int
	Account         string
	ID              int64
	FiveHourPercent int
}

// Snapshot converts the stored point back to a UsageSnapshot.
func (p UsagePoint) Snapshot() UsageSnapshot {
	snap := UsageSnapshot{
		FiveHour: Bucket{Utilization: p.FiveHourPercent, ResetsAt: p.FiveHourResets},
	}
	if p.SevenDayPercent != nil {
		snap.SevenDay = &Bucket{Utilization: *p.SevenDayPercent, ResetsAt: p.SevenDayResets}
	}
	return snap
}

// DailyPeak is the highest utilization seen on one day.
type DailyPeak struct {
	SevenDayPeak *int
	Day          string
	FiveHourPeak int
	Samples      int
}
