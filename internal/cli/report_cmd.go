package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/cli/formatter"
	"github.com/alexanderramin/caseflow/internal/domain"
)

func newReportCmd(a *App, opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Browse the therapy report archive",
	}

	cmd.AddCommand(
		newReportListCmd(a, opts),
		newReportShowCmd(a, opts),
	)

	return cmd
}

func newReportListCmd(a *App, opts *globalOptions) *cobra.Command {
	var ongoing bool

	cmd := &cobra.Command{
		Use:   "list <case-id>",
		Short: "List therapy reports of a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			reports, err := a.Archive.ListReports(context.Background(), caller, app.ReportQuery{
				CaseID:         args[0],
				IncludeOngoing: ongoing,
			})
			if err != nil {
				return err
			}
			if reports == nil {
				reports = []domain.TherapyReport{}
			}
			return opts.print(cmd, reports, func() string {
				return formatter.FormatReportList(reports)
			})
		},
	}

	cmd.Flags().BoolVar(&ongoing, "include-ongoing", false, "Append a projection of the open session")

	return cmd
}

func newReportShowCmd(a *App, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <case-id> <session>",
		Short: "Show one therapy report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			session, err := strconv.Atoi(args[1])
			if err != nil {
				return domain.Validationf(fmt.Sprintf("session %q is not a number", args[1]))
			}
			report, err := a.Archive.GetReport(context.Background(), caller, args[0], session)
			if err != nil {
				return err
			}
			return opts.print(cmd, report, func() string {
				return formatter.FormatReport(report) + "\n"
			})
		},
	}
}
