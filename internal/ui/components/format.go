package components

import (
	"fmt"
	"time"

	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/models"
)

// MaxErrorWidth is the widest an error shown in the status column may be.
const MaxErrorWidth = 30

// liveWindow is how recent a fetch must be to read as "Live".
const liveWindow = 2 * time.Minute

// FormatCountdown renders the time until a window resets.
func FormatCountdown(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs <= 0 {
		return "now"
	}

	days := secs / 86400
	hours := (secs % 86400) / 3600
	mins := (secs % 3600) / 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %02dm", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm %02ds", mins, secs%60)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// FormatResetsAt renders the countdown to resetsAt, or "--" if unknown.
func FormatResetsAt(resetsAt *time.Time, now time.Time) string {
	if resetsAt == nil {
		return "--"
	}
	return FormatCountdown(resetsAt.Sub(now))
}

// FormatAgo renders how long ago a fetch happened.
func FormatAgo(fetched, now time.Time) string {
	ago := now.Sub(fetched)
	switch {
	case ago < liveWindow:
		return "Live"
	case ago < time.Hour:
		return fmt.Sprintf("%dm ago", int(ago.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(ago.Hours()))
	}
}

// TruncateError shortens msg to MaxErrorWidth characters.
func TruncateError(msg string) string {
	runes := []rune(msg)
	if len(runes) <= MaxErrorWidth {
		return msg
	}
	return string(runes[:MaxErrorWidth-3]) + "..."
}

// StatusKind classifies a status cell for styling.
type StatusKind int

const (
	StatusMuted StatusKind = iota
	StatusLoggedIn
	StatusFresh
	StatusStale
	StatusError
)

// Status is the text and class of an account's status cell.
type Status struct {
	Text string
	Kind StatusKind
}

// AccountStatus builds the status cell for acc. loggedIn is the name of the
// account Claude Code is logged in as, if known.
func AccountStatus(acc models.Account, loggedIn string, now time.Time) Status {
	switch acc.State.Status.Kind {
	case models.StatusError:
		return Status{Text: TruncateError(failure.Guidance(acc.State.Status.Err)), Kind: StatusError}
	case models.StatusOK:
		if loggedIn != "" && loggedIn == acc.Config.Name {
			return Status{Text: "Logged In", Kind: StatusLoggedIn}
		}
		if acc.State.LastFetched.IsZero() {
			return Status{Text: "--", Kind: StatusMuted}
		}
		if now.Sub(acc.State.LastFetched) < liveWindow {
			return Status{Text: "Live", Kind: StatusFresh}
		}
		return Status{Text: FormatAgo(acc.State.LastFetched, now), Kind: StatusStale}
	default:
		return Status{Text: "Idle", Kind: StatusMuted}
	}
}
