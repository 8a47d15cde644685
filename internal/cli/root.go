package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/caseflow/internal/service"
)

// App holds the services and terminal hooks used by CLI commands.
type App struct {
	Cases           service.CaseService
	Progress        service.ProgressionService
	Lifecycle       service.LifecycleService
	Archive         service.ArchiveService
	Recommendations service.RecommendationService
	// Handwriting is nil when no classifier is configured.
	Handwriting service.HandwritingService

	// Serve runs the HTTP API until ctx is done. Nil disables "serve".
	Serve func(ctx context.Context, addr string) error

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
	// Confirm asks a yes/no question. It is only called when interactive.
	Confirm func(title, description string) (bool, error)
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	caller callerValue
	json   bool
}

// NewRootCmd creates the top-level "caseflow" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	opts := &globalOptions{}
	if as := os.Getenv("CASEFLOW_AS"); as != "" {
		_ = opts.caller.Set(as)
	}

	root := &cobra.Command{
		Use:           "caseflow",
		Short:         "Dyslexia assessment and therapy case tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Var(&opts.caller, "as", "Act as role:user (defaults to $CASEFLOW_AS)")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "Print JSON instead of formatted output")

	root.AddCommand(
		newCaseCmd(app, opts),
		newStageCmd(app, opts),
		newProgressCmd(app, opts),
		newRecommendCmd(app, opts),
		newSessionCmd(app, opts),
		newReportCmd(app, opts),
		newServeCmd(app),
	)
	return root
}
