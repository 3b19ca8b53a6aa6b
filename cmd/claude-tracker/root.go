package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/claude-tracker/internal/app"
	"github.com/j-veylop/claude-tracker/internal/services"
	"github.com/j-veylop/claude-tracker/internal/ui/tabs/accounts"
	"github.com/j-veylop/claude-tracker/internal/ui/tabs/history"
	"github.com/j-veylop/claude-tracker/internal/ui/tabs/info"
)

const rootLong = `Track usage quotas across several Claude accounts and choose which one
Claude Code uses.

Run without a subcommand to open the dashboard.

Keyboard shortcuts:
  1-3, Tab/Shift+Tab  Switch tabs (Accounts, History, Info)
  j/k, Up/Down        Move the selection
  r / R               Refresh all / refresh selected
  a / e / d           Add, edit, delete an account
  s, Enter            Swap the selected account into Claude Code
  i                   Import Claude Code's current login
  ?                   Toggle help
  q, Ctrl+C           Quit

Environment:
  CLAUDE_TRACKER_CONFIG_DIR     Config directory (default ~/.config/claude-tracker)
  CLAUDE_TRACKER_DB_PATH        Usage history database
  CLAUDE_TRACKER_LOG_PATH       Log file
  CLAUDE_TRACKER_LOG_LEVEL      debug, info, warn or error
  CLAUDE_TRACKER_POLL_INTERVAL  Poll interval override, e.g. 5m
  CLAUDE_TRACKER_NOTIFY         Desktop notifications (default true)`

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "claude-tracker",
		Short:         "Track usage quotas across Claude accounts",
		Long:          rootLong,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context())
		},
	}

	root.AddCommand(
		newListCommand(),
		newAddCommand(),
		newImportCommand(),
		newSwapCommand(),
		newHistoryCommand(),
		newVersionCommand(),
	)

	return root
}

// runTUI opens a session and runs the dashboard until the user quits or
// ctx is cancelled.
func runTUI(ctx context.Context) error {
	s, err := openSession(services.Deps{})
	if err != nil {
		return err
	}
	defer s.Close()

	model := app.NewModel(s.state, s.mgr)
	model.SetTabs([]app.Tab{
		accounts.New(s.state),
		history.New(s.state, s.mgr),
		info.New(s.state, s.cfg, s.mgr),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
