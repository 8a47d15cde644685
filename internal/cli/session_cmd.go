package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/cli/formatter"
	"github.com/alexanderramin/caseflow/internal/domain"
)

func newSessionCmd(a *App, opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Close therapy sessions",
	}
	cmd.AddCommand(newSessionDecideCmd(a, opts))
	return cmd
}

func newSessionDecideCmd(a *App, opts *globalOptions) *cobra.Command {
	var decision, reason string
	var session int

	cmd := &cobra.Command{
		Use:   "decide <case-id>",
		Short: "Complete the therapy or continue with a new session",
		Long: "Closes the open session at stage 7 and archives it as a therapy report.\n" +
			"'complete' ends the therapy and makes the case read-only; 'continue'\n" +
			"starts a new session at stage 5.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			d, err := domain.ParseDecision(decision)
			if err != nil {
				return domain.Validationf(err.Error())
			}
			report, err := a.Lifecycle.DecideSessionOutcome(context.Background(), caller, app.DecisionRequest{
				CaseID:        args[0],
				Decision:      d,
				Reason:        reason,
				SessionNumber: session,
			})
			if err != nil {
				return err
			}
			return opts.print(cmd, report, func() string {
				msg := fmt.Sprintf("Session %d closed: therapy completed.\n", report.SessionNumber)
				if d == domain.DecisionContinue {
					msg = fmt.Sprintf("Session %d closed. Session %d starts at stage %d.\n",
						report.SessionNumber, report.SessionNumber+1, domain.RestartStage)
				}
				return msg + formatter.FormatReport(report) + "\n"
			})
		},
	}

	cmd.Flags().StringVar(&decision, "decision", "", "complete or continue")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason for the decision (required to complete)")
	cmd.Flags().IntVar(&session, "session", 0, "Session being decided (defaults to the open one)")
	_ = cmd.MarkFlagRequired("decision")

	return cmd
}
