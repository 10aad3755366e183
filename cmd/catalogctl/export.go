package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/lunajoyas/catalogo/app"
	"github.com/lunajoyas/catalogo/internal/services"
)

const progressTemplate = `{{ string . "prefix" }} {{ bar . " " "━" "━" " " " " }} {{ counters . }} {{ rtime . }}`

func newExportCmd(open func() (*app.App, error)) *cobra.Command {
	var (
		query     services.Query
		output    string
		noBar     bool
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the published catalog as a PDF",
		Example: `  catalogctl export --locale en --category rings -o rings.pdf
  catalogctl export --search plata --sort price_asc --dir ./exports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := open()
			if err != nil {
				return err
			}
			defer application.Close()

			var bar *pb.ProgressBar
			if !noBar {
				bar = pb.New(0).
					SetTemplateString(progressTemplate).
					Set("prefix", "Exporting").
					SetWriter(cmd.ErrOrStderr()).
					Start()
				defer bar.Finish()
			}

			result, err := application.Exports.Export(cmd.Context(), query, func(done, total int) {
				if bar == nil {
					return
				}
				bar.SetTotal(int64(total))
				bar.SetCurrent(int64(done))
			})
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = filepath.Join(outputDir, result.Filename)
			}
			if err := os.WriteFile(path, result.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d pages, %d bytes)\n", path, result.Pages, len(result.Data))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&query.Categories, "category", nil, "category ids to include (repeatable)")
	flags.StringSliceVar(&query.Tags, "tag", nil, "tag ids to include (repeatable)")
	flags.StringVar(&query.Collection, "collection", "", "collection id to include")
	flags.StringVar(&query.Search, "search", "", "text to search in titles and descriptions")
	flags.StringVar(&query.Sort, "sort", services.SortNewest, "newest, popular, price_asc or price_desc")
	flags.StringVar(&query.Locale, "locale", "", "document language (es or en)")
	flags.StringVarP(&output, "output", "o", "", "output file; defaults to the dated catalog name")
	flags.StringVar(&outputDir, "dir", ".", "directory for the default output file")
	flags.BoolVar(&noBar, "no-progress", false, "hide the progress bar")
	return cmd
}
