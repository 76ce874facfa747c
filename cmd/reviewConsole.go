package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"insiden/internal/bootstrap"
	"insiden/internal/bootstrap/logging"
	domainincident "insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
	"insiden/internal/usecase/reviewconsole"
)

var consoleReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Start the incident review queue console",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, deps appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		email, _ := cmd.Flags().GetString("actor")
		scope, _ := cmd.Flags().GetString("scope")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 5 * time.Second
		}

		user, err := deps.Users.GetUserByEmail(ctx, email)
		if err != nil {
			return errs.Wrapf(err, "resolve console actor %s", email)
		}
		actor := ports.Actor{
			ID:    user.ID,
			Email: user.Email,
			Roles: domainincident.NormalizeRoles(user.Roles),
		}

		model := reviewconsole.NewReviewModel(ctx, deps.Incidents, reviewconsole.ReviewOptions{
			Actor:           actor,
			Scope:           scope,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run review console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleReviewCmd)
	consoleReviewCmd.Flags().String("actor", "mutu@rsua.local", "Email of the reviewing user")
	consoleReviewCmd.Flags().String("scope", "", "Queue scope (pj|mutu); defaults by actor role")
	consoleReviewCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
}
