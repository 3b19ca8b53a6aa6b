package models

import "time"

// ProjectionStatus indicates how urgent quota depletion is.
type ProjectionStatus string

// Projection statuses.
const (
	ProjectionSafe     ProjectionStatus = "SAFE"
	ProjectionWarning  ProjectionStatus = "WARNING"
	ProjectionCritical ProjectionStatus = "CRITICAL"
	ProjectionUnknown  ProjectionStatus = "UNKNOWN"
)

// Projection estimates when the five-hour window runs out at the pace seen
// since the window started.
type Projection struct {
	DepleteAt         time.Time        // zero when the pace never reaches 100%
	ResetsAt          *time.Time       // reset of the window the estimate covers
	Status            ProjectionStatus // SAFE, WARNING, CRITICAL, UNKNOWN
	Confidence        string           // "low", "medium", "high"
	Rate              float64          // percentage points per hour
	HoursLeft         float64          // +Inf when usage is flat or falling
	Current           int              // latest utilization
	DataPoints        int              // readings in the window
	WillDepleteBefore bool             // depletes before the window resets
}
