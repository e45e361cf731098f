package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/paramstudy/internal/paramstudy"
	"github.com/banshee-data/paramstudy/internal/paramstudy/storage"
	"github.com/banshee-data/paramstudy/internal/testutil"
)

const cartesianSchema = "A: [1, 2]\nB: [x]\n"

// run executes the root command and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGenerate_Stdout(t *testing.T) {
	schema := testutil.WriteFile(t, "schema.yaml", cartesianSchema)

	stdout, _, err := run(t, "generate", schema, "--quiet")
	require.NoError(t, err)
	assert.Equal(t, "parameter_set0:\n  A: 1\n  B: x\nparameter_set1:\n  A: 2\n  B: x\n", stdout)
}

func TestGenerate_WriteAndExtend(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.yaml")
	out := filepath.Join(dir, "study.arrow")
	require.NoError(t, os.WriteFile(schema, []byte(cartesianSchema), 0o644))

	_, _, err := run(t, "generate", schema, "-o", out, "-q")
	require.NoError(t, err)
	first := testutil.ModTime(t, out)

	_, stderr, err := run(t, "generate", schema, "-o", out, "-p", out)
	require.NoError(t, err)
	testutil.AssertContains(t, stderr, "up to date")
	assert.Equal(t, first, testutil.ModTime(t, out), "unchanged study must not be rewritten")

	require.NoError(t, os.WriteFile(schema, []byte("A: [1, 2, 3]\nB: [x]\n"), 0o644))
	_, _, err = run(t, "generate", schema, "-o", out, "-p", out, "-q")
	require.NoError(t, err)

	stdout, _, err := run(t, "print", out, "--format", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "parameter_set0:\n  A: 1\n  B: x\nparameter_set1:\n  A: 2\n  B: x\nparameter_set2:\n  A: 3\n  B: x\n", stdout)
}

func TestGenerate_ExplicitOutputTypeReadsPrevious(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.yaml")
	out := filepath.Join(dir, "study.arrow")
	require.NoError(t, os.WriteFile(schema, []byte(cartesianSchema), 0o644))

	args := []string{"generate", schema, "-q", "--output-file-type", "sqlite", "-o", out, "-p", out}
	_, _, err := run(t, args...)
	require.NoError(t, err)
	_, _, err = run(t, args...)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("SQLite format 3")))

	stdout, _, err := run(t, "print", out, "--file-type", "sqlite", "--format", "csv", "-q")
	require.NoError(t, err)
	testutil.AssertContains(t, stdout, "parameter_set1,")
}

func TestGenerate_DryRun(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.yaml")
	out := filepath.Join(dir, "study.arrow")
	require.NoError(t, os.WriteFile(schema, []byte(cartesianSchema), 0o644))

	stdout, stderr, err := run(t, "cartesian-product", schema, "-o", out, "--dry-run")
	require.NoError(t, err)
	testutil.AssertContains(t, stdout, "parameter_set1:")
	testutil.AssertContains(t, stderr, "dry run")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "dry run must not write %s", out)
}

func TestGenerate_ForcedMethodSQLite(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.yaml")
	out := filepath.Join(dir, "study.db")
	doc := "num_samples: 5\nseed: 7\nwidth: {distribution: uniform, bounds: [1, 2]}\nheight: {distribution: uniform, bounds: [10, 20]}\n"
	require.NoError(t, os.WriteFile(schema, []byte(doc), 0o644))

	_, _, err := run(t, "latin-hypercube", schema, "-o", out, "-q")
	require.NoError(t, err)

	stdout, _, err := run(t, "describe", out, "-q")
	require.NoError(t, err)
	testutil.AssertContains(t, stdout, "5 parameter sets, method latin_hypercube")
	testutil.AssertContains(t, stdout, "width")
	testutil.AssertContains(t, stdout, "height")

	stdout, _, err = run(t, "print", out, "--format", "csv", "-q")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Len(t, lines, 6)
	assert.Contains(t, lines[0], "width")
}

func TestGenerate_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schema, []byte(cartesianSchema), 0o644))
	cfg := filepath.Join(dir, "paramstudy.yaml")
	cfgDoc := fmt.Sprintf("output_file: %s\nset_name_template: run@number\nquiet: true\n", filepath.Join(dir, "from-config.arrow"))
	require.NoError(t, os.WriteFile(cfg, []byte(cfgDoc), 0o644))

	_, stderr, err := run(t, "generate", schema, "--config", cfg)
	require.NoError(t, err)
	assert.Empty(t, stderr)

	stdout, _, err := run(t, "print", filepath.Join(dir, "from-config.arrow"), "--format", "csv", "-q")
	require.NoError(t, err)
	testutil.AssertContains(t, stdout, "run0,")

	override := filepath.Join(dir, "from-flag.arrow")
	_, _, err = run(t, "generate", schema, "--config", cfg, "-o", override)
	require.NoError(t, err)
	_, err = os.Stat(override)
	assert.NoError(t, err)
}

func TestGenerate_SetFiles(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schema, []byte(cartesianSchema), 0o644))

	_, _, err := run(t, "generate", schema, "-q",
		"-o", filepath.Join(dir, "study.arrow"),
		"--output-file-template", "@set_name.yaml",
		"--write-meta")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "parameter_set1.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "A: 2\nB: x\n", string(data))

	meta, err := os.ReadFile(filepath.Join(dir, storage.MetaFileName))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(meta), "\n"))
}

func TestPlot(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.yaml")
	study := filepath.Join(dir, "study.arrow")
	require.NoError(t, os.WriteFile(schema, []byte("A: [1, 2]\nB: [3.5, 4.5]\n"), 0o644))
	_, _, err := run(t, "generate", schema, "-o", study, "-q")
	require.NoError(t, err)

	png := filepath.Join(dir, "coverage.png")
	_, _, err = run(t, "plot", study, "--x", "A", "--y", "B", "-o", png, "-q")
	require.NoError(t, err)
	data, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	_, _, err = run(t, "plot", study, "--x", "A", "--y", "missing", "-o", png, "-q")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	testutil.AssertContains(t, stdout, "paramstudy dev")

	stdout, _, err = run(t, "version", "--json")
	require.NoError(t, err)
	testutil.AssertContains(t, stdout, `"version":"dev"`)
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	badSchema := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badSchema, []byte("A: []\n"), 0o644))
	corrupt := filepath.Join(dir, "corrupt.arrow")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a study"), 0o644))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"schema error", []string{"generate", badSchema, "-q"}, exitSchemaError},
		{"file format error", []string{"print", corrupt, "-q"}, exitFileFormat},
		{"missing schema", []string{"generate", filepath.Join(dir, "missing.yaml"), "-q"}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(err))
		})
	}

	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitSchemaError, exitCode(fmt.Errorf("wrapped: %w", &paramstudy.SchemaError{Constraint: "x"})))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}
