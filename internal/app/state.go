// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/claude-tracker/internal/config"
	"github.com/j-veylop/claude-tracker/internal/registry"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing status message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Duration  time.Duration
	Type      NotificationType
}

// IsExpiredAt reports whether the notification has expired at now.
// Notifications without a duration never expire.
func (n *Notification) IsExpiredAt(now time.Time) bool {
	if n.Duration <= 0 {
		return false
	}
	return now.Sub(n.CreatedAt) > n.Duration
}

// State is the shared application state. The registry inside it is only
// touched from the Bubble Tea update loop; the mutex guards notifications
// and fetch bookkeeping, which tabs may read while rendering.
type State struct {
	registry        *registry.Registry
	fetching        map[string]bool
	now             func() time.Time
	configPath      string
	notifications   []Notification
	pollSecs        uint64
	notificationSeq int
	mu              sync.RWMutex
}

// NewState wraps reg. Mutations are persisted to configPath with the given
// poll interval; an empty configPath disables persistence.
func NewState(reg *registry.Registry, configPath string, pollSecs uint64) *State {
	if pollSecs < config.MinPollIntervalSecs {
		pollSecs = config.MinPollIntervalSecs
	}
	return &State{
		registry:   reg,
		configPath: configPath,
		pollSecs:   pollSecs,
		fetching:   make(map[string]bool),
		now:        time.Now,
	}
}

// Registry returns the account registry.
func (s *State) Registry() *registry.Registry {
	return s.registry
}

// PollInterval returns the time between automatic polls.
func (s *State) PollInterval() time.Duration {
	return time.Duration(s.pollSecs) * time.Second
}

// ConfigPath returns where the config file is saved.
func (s *State) ConfigPath() string {
	return s.configPath
}

// Save writes the registry's accounts and active cursor to the config file.
func (s *State) Save() error {
	if s.configPath == "" {
		return nil
	}
	return config.SaveFile(s.configPath, s.registry.ToFile(s.pollSecs))
}

// PollDue reports whether an automatic poll should start at now.
func (s *State) PollDue(now time.Time) bool {
	if s.AnyFetching() {
		return false
	}
	return now.Sub(s.registry.LastPoll()) >= s.PollInterval()
}

// MarkFetching records that fetches for names are in flight.
func (s *State) MarkFetching(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		s.fetching[name] = true
	}
}

// FetchDone records that the fetch for name finished or no longer matters.
func (s *State) FetchDone(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fetching, name)
}

// IsFetching reports whether a fetch for name is in flight.
func (s *State) IsFetching(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetching[name]
}

// AnyFetching reports whether any fetch is in flight.
func (s *State) AnyFetching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fetching) > 0
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.notificationSeq++
	id := now.Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: now,
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpiredAt(now) {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all unexpired notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpiredAt(now) {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets the loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: s.now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}
