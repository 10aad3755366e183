// Command catalogctl runs catalog maintenance tasks against the configured
// store: PDF exports and YAML seed imports.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lunajoyas/catalogo/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Catalog maintenance: export PDFs and import seed files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			app.LoadDotEnv(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)), envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file loaded outside production")

	root.AddCommand(newExportCmd(openApp), newImportCmd(openApp))
	return root
}

// openApp builds the application from the environment.
func openApp() (*app.App, error) {
	application, err := app.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return application, nil
}
