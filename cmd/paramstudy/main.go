// Command paramstudy generates parameter studies from a schema file and
// inspects persisted studies.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/paramstudy/internal/monitoring"
	"github.com/banshee-data/paramstudy/internal/paramstudy"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitSchemaError = 2
	exitFileFormat  = 3
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "paramstudy",
		Short: "Generate and inspect parameter studies",
		Long: `paramstudy expands a parameter schema into a named, hashed table of
parameter sets.

Sets are named from a template (parameter_set0, parameter_set1, ...) and
identified by a hash of their content. Regenerating against a previous study
keeps the names of sets that already existed, so extending a schema only adds
new sets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress diagnostic messages")

	rootCmd.AddCommand(
		newGenerateCmd(),
		newMethodCmd(paramstudy.MethodCartesianProduct, "Full factorial study over listed parameter values"),
		newMethodCmd(paramstudy.MethodLatinHypercube, "Latin hypercube sample of parameter distributions"),
		newMethodCmd(paramstudy.MethodSobolSequence, "Sobol quasi-random sample of parameter distributions"),
		newMethodCmd(paramstudy.MethodCustomStudy, "Study from explicitly listed parameter samples"),
		newPrintCmd(),
		newDescribeCmd(),
		newPlotCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var se *paramstudy.SchemaError
	var ffe *paramstudy.FileFormatError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &se):
		return exitSchemaError
	case errors.As(err, &ffe):
		return exitFileFormat
	}
	return exitFailure
}

// logger returns the diagnostic sink for a command: stderr unless quiet.
func logger(cmd *cobra.Command, quiet bool) monitoring.Logf {
	if q, _ := cmd.Flags().GetBool("quiet"); q || quiet {
		return monitoring.Discard
	}
	return monitoring.New(cmd.ErrOrStderr(), "paramstudy: ")
}
