package main

import (
	"fmt"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/j-veylop/claude-tracker/internal/services"
	"github.com/j-veylop/claude-tracker/internal/services/projection"
	"github.com/j-veylop/claude-tracker/internal/swap"
	"github.com/j-veylop/claude-tracker/internal/ui/components"
	"github.com/j-veylop/claude-tracker/internal/version"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import the account Claude Code is logged in as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(services.Deps{NoWatch: true})
			if err != nil {
				return err
			}
			defer s.Close()

			name, created, err := s.importCredential(cmd.Context())
			if err != nil {
				return err
			}
			verb := "Updated"
			if created {
				verb = "Imported"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, name)
			return nil
		},
	}
}

func newSwapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "swap NAME",
		Short: "Make an account the one Claude Code uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(services.Deps{NoWatch: true})
			if err != nil {
				return err
			}
			defer s.Close()

			idx, err := s.find(args[0])
			if err != nil {
				return err
			}
			acc, _ := s.reg.Account(idx)

			err = s.mgr.SwapNow(swap.Request{
				Name:   acc.Config.Name,
				OrgID:  acc.Config.OrgID,
				Index:  idx,
				Method: acc.Config.AuthMethod,
			})
			if err != nil {
				return wrapExit(exitCode(err), fmt.Errorf("failed to switch account: %w", err))
			}

			s.reg.SetActive(idx)
			if err := s.save(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s\n", acc.Config.Name)
			return nil
		},
	}
}

func newHistoryCommand() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "history NAME",
		Short: "Plot recorded usage for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return wrapExit(ExitUserError, fmt.Errorf("--days must be at least 1"))
			}

			s, err := openSession(services.Deps{NoWatch: true})
			if err != nil {
				return err
			}
			defer s.Close()

			idx, err := s.find(args[0])
			if err != nil {
				return err
			}
			acc, _ := s.reg.Account(idx)
			name := acc.Config.Name

			points, err := s.mgr.History(name, time.Now().Add(-time.Duration(days)*24*time.Hour))
			if err != nil {
				return wrapExit(ExitIOFailure, err)
			}
			out := cmd.OutOrStdout()
			if len(points) == 0 {
				_, _ = fmt.Fprintf(out, "No usage recorded for %s in the last %d days.\n", name, days)
				return nil
			}

			fiveHour, sevenDay := components.UsageSeries(points)
			if len(fiveHour) == 1 {
				fiveHour = append(fiveHour, fiveHour[0])
				sevenDay = append(sevenDay, sevenDay[0])
			}
			_, _ = fmt.Fprintln(out, asciigraph.PlotMany([][]float64{fiveHour, sevenDay},
				asciigraph.Height(10),
				asciigraph.Width(60),
				asciigraph.LowerBound(0),
				asciigraph.UpperBound(100),
				asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
				asciigraph.SeriesLegends("5-hour", "7-day"),
				asciigraph.Caption(fmt.Sprintf("%s, last %d days (%d samples)", name, days, len(points))),
			))

			now := time.Now()
			_, _ = fmt.Fprintf(out, "\nProjection: %s\n", projection.Summary(projection.Calculate(points, now), now))

			peaks, err := s.mgr.DailyPeaks(name, days)
			if err != nil {
				return wrapExit(ExitIOFailure, err)
			}
			if len(peaks) > 0 {
				_, _ = fmt.Fprintln(out)
				_, _ = fmt.Fprintln(out, components.RenderPeakBars(peaks, 60))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", 7, "Number of days to show")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
