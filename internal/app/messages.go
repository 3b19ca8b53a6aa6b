package app

import (
	"time"

	"github.com/j-veylop/claude-tracker/internal/registry"
	"github.com/j-veylop/claude-tracker/internal/services"
)

// TickMsg is sent periodically to expire notifications and start polls.
type TickMsg struct {
	Time time.Time
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Duration time.Duration
	Type     NotificationType
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// RefreshMsg requests a usage refresh of every account, or only the
// selected one.
type RefreshMsg struct {
	All bool
}

// ImportMsg requests an import of Claude Code's current credential.
type ImportMsg struct{}

// AddAccountMsg requests a new session-key account.
type AddAccountMsg struct {
	Name   string
	Secret string
	OrgID  string
}

// EditAccountMsg requests a rename or credential update. Empty Secret or
// OrgID keep the current values.
type EditAccountMsg struct {
	Name   string
	Secret string
	OrgID  string
	Index  int
}

// DeleteAccountMsg requests deletion of the account at Index.
type DeleteAccountMsg struct {
	Index int
}

// SwapAccountMsg requests making the account at Index active for Claude Code.
type SwapAccountMsg struct {
	Index int
}

// MoveSelectionMsg moves the selection cursor by Delta rows.
type MoveSelectionMsg struct {
	Delta int
}

// SecretPersistedMsg reports the secret-store outcome of a prepared
// registry mutation. The update loop commits or aborts it.
type SecretPersistedMsg struct {
	Warning  error
	Err      error
	Mutation registry.Mutation
}

// AccountsChangedMsg tells tabs the registry changed.
type AccountsChangedMsg struct{}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
