package main

import (
	"github.com/spf13/cobra"

	"github.com/banshee-data/paramstudy/internal/fsutil"
	"github.com/banshee-data/paramstudy/internal/plotting"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot STUDY",
		Short: "Scatter plot two numeric parameters of a study",
		Long: `Scatter plot two numeric parameters of a persisted study against each
other, to check how well a sample covers the parameter space.

The output is an interactive HTML page for .html or .htm files and a PNG
image otherwise.

Examples:
  paramstudy plot study.arrow --x width --y height -o coverage.png
  paramstudy plot study.db --x width --y height -o coverage.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, _ := cmd.Flags().GetString("x")
			y, _ := cmd.Flags().GetString("y")
			out, _ := cmd.Flags().GetString("output-file")

			st, err := loadStudy(cmd, args[0])
			if err != nil {
				return err
			}
			if err := plotting.WriteScatter(fsutil.OSFileSystem{}, st, x, y, out); err != nil {
				return err
			}
			logger(cmd, false)("wrote %s against %s to %s", y, x, out)
			return nil
		},
	}
	cmd.Flags().String("x", "", "Parameter on the horizontal axis")
	cmd.Flags().String("y", "", "Parameter on the vertical axis")
	cmd.Flags().StringP("output-file", "o", "", "Plot file (.png or .html)")
	cmd.Flags().String("file-type", "", "Study file format: arrow or sqlite (default: from extension)")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	_ = cmd.MarkFlagRequired("output-file")
	return cmd
}
