package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/cli/formatter"
	"github.com/alexanderramin/caseflow/internal/contract"
	"github.com/alexanderramin/caseflow/internal/domain"
)

func newStageCmd(app *App, opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Read, fill and complete case stages",
	}

	cmd.AddCommand(
		newStageShowCmd(app, opts),
		newStageSubmitCmd(app, opts),
		newStageCompleteCmd(app, opts),
		newStageAnalyzeCmd(app, opts),
	)

	return cmd
}

func newStageShowCmd(app *App, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <case-id> <stage>",
		Short: "Show a stage and its saved payload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			stage, err := stageArg(args[1])
			if err != nil {
				return err
			}
			view, err := app.Progress.GetStagePayload(context.Background(), caller, args[0], stage)
			if err != nil {
				return err
			}
			out, err := contract.NewStageView(view)
			if err != nil {
				return err
			}
			return opts.print(cmd, out, func() string {
				return formatter.FormatStageView(out)
			})
		},
	}
}

func newStageSubmitCmd(app *App, opts *globalOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "submit <case-id> <stage>",
		Short: "Save the payload of the current stage",
		Long: "Reads the stage payload from a YAML or JSON file (or stdin with -f -) and\n" +
			"saves it as the draft of the stage. Submitting again replaces the draft.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			stage, err := stageArg(args[1])
			if err != nil {
				return err
			}
			data, err := readDocument(cmd, file)
			if err != nil {
				return err
			}
			payload, err := domain.DecodePayload(stage, data)
			if err != nil {
				return err
			}
			stored, err := app.Progress.SubmitStagePayload(context.Background(), caller, args[0], stage, payload)
			if err != nil {
				return err
			}
			return printPayload(cmd, opts, stored)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Payload file (YAML or JSON, - for stdin)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func printPayload(cmd *cobra.Command, opts *globalOptions, p *domain.StagePayload) error {
	out, err := contract.NewStagePayload(p)
	if err != nil {
		return err
	}
	return opts.print(cmd, out, func() string {
		return formatter.FormatStagePayload(out)
	})
}

func newStageCompleteCmd(app *App, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <case-id> <stage>",
		Short: "Complete the current stage and unlock the next one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			stage, err := stageArg(args[1])
			if err != nil {
				return err
			}
			done, err := app.Progress.CompleteStage(context.Background(), caller, args[0], stage)
			if err != nil {
				return err
			}
			out := contract.NewCaseState(done.State)
			return opts.print(cmd, out, func() string {
				return fmt.Sprintf("Stage %d completed.\n", stage) + formatter.FormatCaseState(out)
			})
		},
	}
}

func newStageAnalyzeCmd(a *App, opts *globalOptions) *cobra.Command {
	var image string

	cmd := &cobra.Command{
		Use:   "analyze <case-id>",
		Short: "Classify a handwriting sample and save it as the stage 1 draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.require()
			if err != nil {
				return err
			}
			if a.Handwriting == nil {
				return fmt.Errorf("handwriting classifier is not configured")
			}
			data, err := os.ReadFile(image)
			if err != nil {
				return fmt.Errorf("reading %s: %w", image, err)
			}
			sample := app.HandwritingSample{
				Filename:    filepath.Base(image),
				ContentType: mime.TypeByExtension(filepath.Ext(image)),
				Data:        data,
			}

			var stored *domain.StagePayload
			analyze := func() error {
				var err error
				stored, err = a.Handwriting.AnalyzeHandwriting(context.Background(), caller, args[0], sample)
				return err
			}
			if a.interactive() && !opts.json {
				err = formatter.RunWithSpinner("Analyzing handwriting...", analyze)
			} else {
				err = analyze()
			}
			if err != nil {
				return err
			}
			return printPayload(cmd, opts, stored)
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "Handwriting image file")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}
