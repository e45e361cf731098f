package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/banshee-data/paramstudy/internal/fsutil"
	"github.com/banshee-data/paramstudy/internal/paramstudy"
	"github.com/banshee-data/paramstudy/internal/paramstudy/storage"
)

// loadStudy reads a persisted study, honouring an explicit --file-type.
func loadStudy(cmd *cobra.Command, path string) (*paramstudy.Study, error) {
	store := storage.NewStore(fsutil.OSFileSystem{}, logger(cmd, false))
	if ft, _ := cmd.Flags().GetString("file-type"); ft != "" {
		f, err := storage.ParseFormat(ft)
		if err != nil {
			return nil, err
		}
		store.Format = f
	}
	return store.Load(path)
}

func newPrintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print STUDY",
		Short: "Print a persisted parameter study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			st, err := loadStudy(cmd, args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch format {
			case "table":
				return storage.WriteTable(w, st)
			case "csv":
				return storage.WriteCSV(w, st)
			case "yaml":
				return storage.WriteYAML(w, st)
			}
			return fmt.Errorf("invalid format: %s (must be table, csv, or yaml)", format)
		},
	}
	cmd.Flags().String("format", "table", "Output format: table, csv or yaml")
	cmd.Flags().String("file-type", "", "Study file format: arrow or sqlite (default: from extension)")
	return cmd
}

var (
	summaryHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	summaryCell   = lipgloss.NewStyle().Padding(0, 1)
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe STUDY",
		Short: "Summarise each parameter of a persisted study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStudy(cmd, args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Study %s: %d parameter sets, method %s\n", st.ID(), st.Len(), st.Method())

			rows := make([][]string, 0, len(st.ParameterNames()))
			for _, s := range paramstudy.Describe(st) {
				row := []string{s.Name, s.Kind.String(), strconv.Itoa(s.Count), strconv.Itoa(s.Distinct), "", "", "", ""}
				if s.Kind.IsNumeric() && s.Count > 0 {
					row[4] = formatStat(s.Min)
					row[5] = formatStat(s.Max)
					row[6] = formatStat(s.Mean)
					row[7] = formatStat(s.StdDev)
				}
				rows = append(rows, row)
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("parameter", "kind", "count", "distinct", "min", "max", "mean", "stddev").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return summaryHeader
					}
					return summaryCell
				})
			_, err = fmt.Fprintln(w, t.Render())
			return err
		},
	}
	cmd.Flags().String("file-type", "", "Study file format: arrow or sqlite (default: from extension)")
	return cmd
}

func formatStat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
