// Package alerts raises desktop notifications for notable usage changes.
package alerts

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/models"
)

const (
	// HighUsageThreshold is the short-window percentage that triggers a
	// warning when crossed upwards.
	HighUsageThreshold = 90
	// ResetDrop is the fall in percentage points treated as a window reset.
	ResetDrop = 20
)

// Kind identifies why an alert fired.
type Kind int

const (
	// KindHighUsage fires when the five-hour window crosses the threshold.
	KindHighUsage Kind = iota
	// KindReset fires when a window's utilization drops sharply.
	KindReset
	// KindUnauthorized fires when an account's credential stops working.
	KindUnauthorized
)

// Alert is one notification.
type Alert struct {
	Account string
	Title   string
	Body    string
	Kind    Kind
}

// Notifier delivers alerts.
type Notifier interface {
	Notify(title, body string) error
}

// Desktop sends OS notifications.
type Desktop struct{}

// Notify implements Notifier.
func (Desktop) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}

type previous struct {
	sevenDay     *int
	fiveHour     int
	hasUsage     bool
	unauthorized bool
}

// Checker compares each applied result with the previous one for the same
// account. It is used from the registry owner only.
type Checker struct {
	notifier Notifier
	last     map[string]previous
	enabled  bool
}

// NewChecker returns a Checker. When enabled is false, Observe still tracks
// state but never notifies.
func NewChecker(notifier Notifier, enabled bool) *Checker {
	if notifier == nil {
		notifier = Desktop{}
	}
	return &Checker{
		notifier: notifier,
		last:     make(map[string]previous),
		enabled:  enabled,
	}
}

// Observe records a fetch outcome for account and returns the alerts it
// triggered. Usage alerts need a previous reading; the unauthorized alert
// fires on the first unauthorized result after any other outcome.
func (c *Checker) Observe(account string, snap *models.UsageSnapshot, err error) []Alert {
	prev, seen := c.last[account]
	next := prev

	var alerts []Alert
	if err != nil {
		unauthorized := failure.Is(err, failure.KindUnauthorized)
		if unauthorized && !prev.unauthorized {
			alerts = append(alerts, Alert{
				Account: account,
				Kind:    KindUnauthorized,
				Title:   "Credential expired: " + account,
				Body:    "Re-import the account to keep tracking usage.",
			})
		}
		next.unauthorized = unauthorized
	} else if snap != nil {
		if seen && prev.hasUsage {
			alerts = append(alerts, usageAlerts(account, prev, snap)...)
		}
		next = previous{fiveHour: snap.FiveHour.Utilization, hasUsage: true}
		if snap.SevenDay != nil {
			v := snap.SevenDay.Utilization
			next.sevenDay = &v
		}
	}
	c.last[account] = next

	if c.enabled {
		for _, a := range alerts {
			go c.deliver(a)
		}
	}
	return alerts
}

func usageAlerts(account string, prev previous, snap *models.UsageSnapshot) []Alert {
	var alerts []Alert
	now := snap.FiveHour.Utilization

	if now >= HighUsageThreshold && prev.fiveHour < HighUsageThreshold {
		alerts = append(alerts, Alert{
			Account: account,
			Kind:    KindHighUsage,
			Title:   "High usage: " + account,
			Body:    fmt.Sprintf("5-hour window is at %d%%", now),
		})
	}

	if prev.fiveHour-now >= ResetDrop {
		alerts = append(alerts, Alert{
			Account: account,
			Kind:    KindReset,
			Title:   "Quota reset: " + account,
			Body:    fmt.Sprintf("5-hour window dropped to %d%%", now),
		})
	}

	if prev.sevenDay != nil && snap.SevenDay != nil && *prev.sevenDay-snap.SevenDay.Utilization >= ResetDrop {
		alerts = append(alerts, Alert{
			Account: account,
			Kind:    KindReset,
			Title:   "Weekly quota reset: " + account,
			Body:    fmt.Sprintf("7-day window dropped to %d%%", snap.SevenDay.Utilization),
		})
	}
	return alerts
}

func (c *Checker) deliver(a Alert) {
	if err := c.notifier.Notify(a.Title, a.Body); err != nil {
		logger.Warn("failed to send notification", "account", a.Account, "error", err)
	}
}

// Rename carries state from oldName to newName.
func (c *Checker) Rename(oldName, newName string) {
	if prev, ok := c.last[oldName]; ok {
		delete(c.last, oldName)
		c.last[newName] = prev
	}
}

// Forget drops state for account, e.g. after deletion or re-import.
func (c *Checker) Forget(account string) {
	delete(c.last, account)
}
