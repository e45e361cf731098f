package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/paramstudy/internal/config"
	"github.com/banshee-data/paramstudy/internal/fsutil"
	"github.com/banshee-data/paramstudy/internal/monitoring"
	"github.com/banshee-data/paramstudy/internal/paramstudy"
	"github.com/banshee-data/paramstudy/internal/paramstudy/storage"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate SCHEMA",
		Short: "Generate a parameter study from a schema file",
		Long: `Generate a parameter study from a YAML or JSON schema file.

The sampling method comes from the schema's method key, or is inferred from
the parameter domains when the key is absent.

Examples:
  paramstudy generate schema.yaml                      # print YAML to stdout
  paramstudy generate schema.yaml -o study.arrow       # write an Arrow file
  paramstudy generate schema.yaml -o study.db \
      -p study.db                                      # extend an existing study`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], "")
		},
	}
	addGenerateFlags(cmd)
	return cmd
}

// newMethodCmd returns a generate command that forces one sampling method.
func newMethodCmd(m paramstudy.Method, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   strings.ReplaceAll(string(m), "_", "-") + " SCHEMA",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], m)
		},
	}
	addGenerateFlags(cmd)
	return cmd
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output-file", "o", "", "Study file to write (default: YAML on stdout)")
	cmd.Flags().String("output-file-type", "", "Output format: arrow, sqlite, yaml or csv (default: from extension)")
	cmd.Flags().StringP("previous-parameter-study", "p", "", "Study file to merge with")
	cmd.Flags().Bool("require-previous", false, "Fail when the previous study does not exist")
	cmd.Flags().Bool("require-unique", false, "Fail on duplicate parameter sets instead of dropping them")
	cmd.Flags().String("set-name-template", string(paramstudy.DefaultSetNameTemplate), "Set name template containing @number")
	cmd.Flags().Bool("overwrite", false, "Write the output file even when it is unchanged")
	cmd.Flags().Bool("dry-run", false, "Print the study to stdout without writing any file")
	cmd.Flags().String("output-file-template", "", "Also write one YAML file per set, named with @number or @set_name")
	cmd.Flags().Bool("write-meta", false, "List per-set files in "+storage.MetaFileName)
	cmd.Flags().String("config", "", "Settings file (.json, .yaml or .yml); flags override its values")
}

// flagConfig collects the flags the user set explicitly, so that they
// override the config file without unset flags clobbering it.
func flagConfig(cmd *cobra.Command) *config.StudyConfig {
	fc := &config.StudyConfig{}
	str := func(name string, dst **string) {
		if cmd.Flags().Changed(name) {
			v, _ := cmd.Flags().GetString(name)
			*dst = &v
		}
	}
	boolean := func(name string, dst **bool) {
		if cmd.Flags().Changed(name) {
			v, _ := cmd.Flags().GetBool(name)
			*dst = &v
		}
	}
	str("output-file", &fc.OutputFile)
	str("output-file-type", &fc.OutputFileType)
	str("previous-parameter-study", &fc.PreviousParameterStudy)
	boolean("require-previous", &fc.RequirePrevious)
	boolean("require-unique", &fc.RequireUnique)
	str("set-name-template", &fc.SetNameTemplate)
	boolean("overwrite", &fc.Overwrite)
	str("output-file-template", &fc.OutputFileTemplate)
	boolean("write-meta", &fc.WriteMeta)
	boolean("quiet", &fc.Quiet)
	return fc
}

// resolveConfig loads the --config file, if any, and applies flag values.
func resolveConfig(cmd *cobra.Command) (*config.StudyConfig, error) {
	cfg := &config.StudyConfig{}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadStudyConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Merge(flagConfig(cmd))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, schemaPath string, method paramstudy.Method) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logf := logger(cmd, cfg.GetQuiet())
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	schema, err := config.LoadSchema(schemaPath, method)
	if err != nil {
		return err
	}

	fsys := fsutil.OSFileSystem{}
	out := cfg.GetOutputFile()
	loader := storage.NewStore(fsys, monitoring.Prefixed(logf, "previous: "))
	// A previous study at the output path was written in the output format;
	// any other previous study follows its extension.
	if prev := cfg.GetPreviousParameterStudy(); prev != "" && out != "" && filepath.Clean(prev) == filepath.Clean(out) {
		loader.Format = cfg.GetOutputFormat()
	}
	st, err := paramstudy.Generate(schema, cfg.StudyOptions(loader, logf))
	if err != nil {
		return err
	}
	logf("generated %d parameter sets (%s)", st.Len(), st.Method())

	if dryRun || out == "" {
		if dryRun && out != "" {
			logf("dry run: not writing %s", out)
		}
		return storage.WriteYAML(cmd.OutOrStdout(), st)
	}

	store := storage.NewStore(fsys, logf)
	store.Format = cfg.GetOutputFormat()
	if _, err := store.Write(st, out, cfg.GetOverwrite()); err != nil {
		return err
	}

	if tmpl := cfg.GetOutputFileTemplate(); tmpl != "" {
		if _, err := store.WriteSetFiles(st, tmpl, filepath.Dir(out), cfg.GetWriteMeta()); err != nil {
			return err
		}
	}
	return nil
}
