package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/caseflow/internal/cli/formatter"
	"github.com/alexanderramin/caseflow/internal/contract"
	"github.com/alexanderramin/caseflow/internal/domain"
)

func newCaseCmd(app *App, opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Open, inspect and manage cases",
	}

	cmd.AddCommand(
		newCaseCreateCmd(app, opts),
		newCaseListCmd(app, opts),
		newCaseShowCmd(app, opts),
		newCaseLinkCmd(app, opts),
		newCaseUnlinkCmd(app, opts),
		newCaseTerminateCmd(app, opts),
	)

	return cmd
}

func newCaseCreateCmd(app *App, opts *globalOptions) *cobra.Command {
	var req contract.CreateCaseRequest
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a case for a student",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			if file != "" {
				data, err := readDocument(cmd, file)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &req); err != nil {
					return domain.Validationf(fmt.Sprintf("%s: %v", file, err))
				}
			}
			in, err := req.ToApp()
			if err != nil {
				return err
			}
			c, err := app.Cases.Create(context.Background(), caller, in)
			if err != nil {
				return err
			}
			summary := contract.NewCaseSummary(c)
			return opts.print(cmd, summary, func() string {
				return fmt.Sprintf("Opened case %s for %s.\n", c.ID, formatter.Bold(c.Student.Name))
			})
		},
	}

	cmd.Flags().StringVar(&req.StudentName, "student", "", "Student name")
	cmd.Flags().StringVar(&req.Birthday, "birthday", "", "Birthday (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.School, "school", "", "School")
	cmd.Flags().StringVar(&req.Grade, "grade", "", "Grade")
	cmd.Flags().StringVar(&req.Gender, "gender", "", "Gender (male, female or other)")
	cmd.Flags().StringSliceVar(&req.DoctorIDs, "doctor", nil, "Doctor user id to link (repeatable)")
	cmd.Flags().StringSliceVar(&req.ParentIDs, "parent", nil, "Parent user id to link (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the case from a YAML or JSON file")

	return cmd
}

func newCaseListCmd(app *App, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the cases you are linked to",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			cases, err := app.Cases.List(context.Background(), caller)
			if err != nil {
				return err
			}
			summaries := contract.NewCaseSummaries(cases)
			return opts.print(cmd, summaries, func() string {
				return formatter.FormatCaseList(summaries)
			})
		},
	}
}

func newCaseShowCmd(app *App, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show a case and the status of every stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			view, err := app.Cases.View(context.Background(), caller, args[0])
			if err != nil {
				return err
			}
			out := contract.NewCaseView(view)
			return opts.print(cmd, out, func() string {
				return formatter.FormatCaseView(out)
			})
		},
	}
}

func newCaseLinkCmd(app *App, opts *globalOptions) *cobra.Command {
	var userID, role string

	cmd := &cobra.Command{
		Use:   "link <case-id>",
		Short: "Link a doctor or parent to a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			if err := app.Cases.AddMember(context.Background(), caller, args[0], userID, domain.Role(role)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked %s as %s.\n", userID, role)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id")
	cmd.Flags().StringVar(&role, "role", "", "Role (teacher, doctor or parent)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func newCaseUnlinkCmd(app *App, opts *globalOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "unlink <case-id>",
		Short: "Remove a member from a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			if err := app.Cases.RemoveMember(context.Background(), caller, args[0], userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unlinked %s.\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newCaseTerminateCmd(app *App, opts *globalOptions) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "terminate-progress <case-id>",
		Short: "Wipe all progress and restart the case at stage 1",
		Long: "Deletes every stage payload, recommendation and therapy report of the case\n" +
			"and resets it to stage 1 of session 1. Student details and members are kept.\n" +
			"This cannot be undone.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			ctx := context.Background()
			confirmed := confirm
			if confirmed && app.interactive() && app.Confirm != nil {
				confirmed, err = confirmTwice(app, args[0])
				if err != nil {
					return err
				}
			}
			st, err := app.Lifecycle.TerminateProgress(ctx, caller, args[0], confirmed)
			if err != nil {
				return err
			}
			out := contract.NewCaseState(*st)
			return opts.print(cmd, out, func() string {
				return "Progress terminated. The case is back at stage 1.\n" + formatter.FormatCaseState(out)
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the irreversible reset")

	return cmd
}

// confirmTwice asks for the reset twice; both answers must be yes.
func confirmTwice(app *App, caseID string) (bool, error) {
	ok, err := app.Confirm(
		fmt.Sprintf("Terminate progress for case %s?", caseID),
		"All stage data, recommendations and therapy reports will be deleted.",
	)
	if err != nil || !ok {
		return false, err
	}
	return app.Confirm("Are you absolutely sure?", "This cannot be undone.")
}
