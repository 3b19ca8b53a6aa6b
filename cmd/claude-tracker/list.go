package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/models"
	"github.com/j-veylop/claude-tracker/internal/registry"
	"github.com/j-veylop/claude-tracker/internal/services"
	"github.com/j-veylop/claude-tracker/internal/ui/components"
)

func newListCommand() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List accounts with their latest usage",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(services.Deps{NoWatch: true})
			if err != nil {
				return err
			}
			defer s.Close()

			s.detect()

			failed := 0
			if refresh && s.reg.Len() > 0 {
				failed = s.refresh(cmd.Context())
			}

			printAccounts(cmd.OutOrStdout(), s.reg, time.Now())

			if failed > 0 {
				return wrapExit(ExitPartial, fmt.Errorf("%d of %d fetches failed", failed, s.reg.Len()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "Fetch current usage before listing")
	return cmd
}

// printAccounts writes the account table, or a hint when there are none.
func printAccounts(w io.Writer, reg *registry.Registry, now time.Time) {
	if reg.Len() == 0 {
		_, _ = fmt.Fprintln(w, "No accounts configured. Run 'claude-tracker import' or 'claude-tracker add'.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "NAME", "METHOD", "5H", "5H RESET", "7D", "7D RESET", "STATUS")

	loggedIn := reg.LoggedIn()
	for i, acc := range reg.Accounts() {
		t.Row(listRow(i, i == reg.Active(), acc, loggedIn, now)...)
	}
	_, _ = fmt.Fprintln(w, t.Render())

	for _, acc := range reg.Accounts() {
		if acc.State.Status.IsError() {
			_, _ = fmt.Fprintf(w, "%s: %s\n", acc.Config.Name, failure.Guidance(acc.State.Status.Err))
		}
	}
}

func listRow(index int, active bool, acc models.Account, loggedIn string, now time.Time) []string {
	name := acc.Config.Name
	if active {
		name += " *"
	}

	fivePct, fiveReset, sevenPct, sevenReset := "--", "--", "--", "--"
	if u := acc.State.Usage; u != nil {
		fivePct = components.FormatPercent(u.FiveHour.Effective(now))
		fiveReset = components.FormatResetsAt(u.FiveHour.ResetsAt, now)
		if u.SevenDay != nil {
			sevenPct = components.FormatPercent(u.SevenDay.Effective(now))
			sevenReset = components.FormatResetsAt(u.SevenDay.ResetsAt, now)
		}
	}

	return []string{
		strconv.Itoa(index + 1),
		name,
		acc.Config.AuthMethod.String(),
		fivePct,
		fiveReset,
		sevenPct,
		sevenReset,
		components.AccountStatus(acc, loggedIn, now).Text,
	}
}
