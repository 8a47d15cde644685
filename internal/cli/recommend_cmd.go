package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/caseflow/internal/cli/formatter"
	"github.com/alexanderramin/caseflow/internal/domain"
)

func newRecommendCmd(app *App, opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Teacher and parent recommendations for the evaluation",
	}

	cmd.AddCommand(
		newRecommendSubmitCmd(app, opts),
		newRecommendListCmd(app, opts),
	)

	return cmd
}

func newRecommendSubmitCmd(app *App, opts *globalOptions) *cobra.Command {
	var rec domain.StakeholderRecommendation

	cmd := &cobra.Command{
		Use:   "submit <case-id>",
		Short: "Submit or replace your recommendation for the open session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			out, err := app.Recommendations.Submit(context.Background(), caller, args[0], rec)
			if err != nil {
				return err
			}
			return opts.print(cmd, out, func() string {
				return fmt.Sprintf("Recommendation saved for session %d.\n", out.SessionNumber)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&rec.Observations, "observations", "", "What you observed")
	f.StringVar(&rec.Recommendations, "recommendations", "", "What you recommend")
	f.StringVar(&rec.Concerns, "concerns", "", "Concerns")
	f.StringVar(&rec.PositiveChanges, "positive-changes", "", "Positive changes")
	f.StringVar(&rec.SupportNeeded, "support-needed", "", "Support needed")
	_ = cmd.MarkFlagRequired("observations")
	_ = cmd.MarkFlagRequired("recommendations")

	return cmd
}

func newRecommendListCmd(app *App, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <case-id>",
		Short: "List recommendations of the open session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			recs, err := app.Recommendations.List(context.Background(), caller, args[0])
			if err != nil {
				return err
			}
			if recs == nil {
				recs = []domain.StakeholderRecommendation{}
			}
			return opts.print(cmd, recs, func() string {
				return formatter.FormatRecommendations(recs)
			})
		},
	}
}
