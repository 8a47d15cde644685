package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/caseflow/internal/cli/formatter"
	"github.com/alexanderramin/caseflow/internal/domain"
)

func newProgressCmd(app *App, opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Track activity progress during therapy",
	}
	cmd.AddCommand(
		newProgressRecordCmd(app, opts),
		newProgressUpdateCmd(app, opts),
		newProgressHistoryCmd(app, opts),
	)
	return cmd
}

func newProgressRecordCmd(app *App, opts *globalOptions) *cobra.Command {
	var entry domain.ProgressEntry
	var file string

	cmd := &cobra.Command{
		Use:   "record <case-id>",
		Short: "Append one activity progress entry to stage 6",
		Args:  cobra.ExactArgs(1),
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
				entry = domain.ProgressEntry{}
				if err := json.Unmarshal(data, &entry); err != nil {
					return domain.Validationf(fmt.Sprintf("%s: %v", file, err))
				}
			}
			stored, err := app.Progress.RecordActivityProgress(context.Background(), caller, args[0], entry)
			if err != nil {
				return err
			}
			return printPayload(cmd, opts, stored)
		},
	}

	f := cmd.Flags()
	f.StringVar(&entry.ActivityID, "activity", "", "Activity id from stage 5")
	f.StringVar(&entry.SessionDate, "date", "", "Practice date (YYYY-MM-DD)")
	f.StringVar(&entry.Status, "status", "completed", "completed, in_progress, missed or paused")
	f.IntVar(&entry.DurationActual, "minutes", 0, "Minutes actually spent")
	f.Float64Var(&entry.CompletionPercentage, "completion", 0, "Completion percentage (0-100)")
	f.IntVar(&entry.StudentEngagement, "engagement", 5, "Student engagement (1-10)")
	f.IntVar(&entry.DifficultyLevel, "difficulty", 5, "Perceived difficulty (1-10)")
	f.StringVar(&entry.Notes, "notes", "", "Notes")
	f.StringVar(&entry.Challenges, "challenges", "", "Challenges observed")
	f.StringVar(&entry.Improvements, "improvements", "", "Improvements observed")
	f.StringVarP(&file, "file", "f", "", "Read the entry from a YAML or JSON file instead")

	return cmd
}

func newProgressUpdateCmd(app *App, opts *globalOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update <case-id> <entry-id>",
		Short: "Replace one of your stage 6 progress entries",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			data, err := readDocument(cmd, file)
			if err != nil {
				return err
			}
			var entry domain.ProgressEntry
			if err := json.Unmarshal(data, &entry); err != nil {
				return domain.Validationf(fmt.Sprintf("%s: %v", file, err))
			}
			entry.ID = args[1]
			stored, err := app.Progress.UpdateActivityProgress(context.Background(), caller, args[0], entry)
			if err != nil {
				return err
			}
			return printPayload(cmd, opts, stored)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON file with the full entry (- for stdin)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newProgressHistoryCmd(app *App, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <case-id> <activity-id>",
		Short: "Show the progress recorded for one activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			entries, err := app.Progress.ActivityProgressHistory(context.Background(), caller, args[0], args[1])
			if err != nil {
				return err
			}
			return opts.print(cmd, entries, func() string {
				return formatter.FormatProgressHistory(args[1], entries)
			})
		},
	}
}
