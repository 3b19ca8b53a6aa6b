package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/j-veylop/claude-tracker/internal/services"
)

// addInput is a session-key account to add.
type addInput struct {
	Name   string
	Secret string
	OrgID  string
}

func (in addInput) complete() bool {
	return in.Name != "" && in.Secret != "" && in.OrgID != ""
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// addForm prompts for whatever in is missing.
func addForm(in *addInput) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("A unique label for this account").
				Value(&in.Name).
				Validate(notBlank("name")),
			huh.NewInput().
				Title("Session key").
				Description("The sessionKey cookie from claude.ai").
				EchoMode(huh.EchoModePassword).
				Value(&in.Secret).
				Validate(notBlank("session key")),
			huh.NewInput().
				Title("Organization ID").
				Value(&in.OrgID).
				Validate(notBlank("organization ID")),
		),
	)
}

func newAddCommand() *cobra.Command {
	var in addInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a session-key account",
		Long: `Add a session-key account. Missing values are prompted for; pass all
three flags to run non-interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !in.complete() {
				if err := addForm(&in).RunWithContext(cmd.Context()); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return nil
					}
					return wrapExit(ExitUserError, err)
				}
			}

			s, err := openSession(services.Deps{NoWatch: true})
			if err != nil {
				return err
			}
			defer s.Close()

			name := strings.TrimSpace(in.Name)
			idx, err := s.reg.Add(name, strings.TrimSpace(in.Secret), strings.TrimSpace(in.OrgID))
			if err != nil {
				return wrapExit(exitCode(err), err)
			}
			s.reg.Select(idx)
			if err := s.save(); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Name, "name", "n", "", "Account name")
	cmd.Flags().StringVarP(&in.Secret, "session-key", "k", "", "claude.ai session key")
	cmd.Flags().StringVarP(&in.OrgID, "org", "o", "", "Organization ID")
	return cmd
}
