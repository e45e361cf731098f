package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/paramstudy/internal/paramstudy"
	"github.com/banshee-data/paramstudy/internal/paramstudy/storage"
)

func ptrString(v string) *string { return &v }
func ptrBool(v bool) *bool       { return &v }

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestEmptyStudyConfigDefaults(t *testing.T) {
	cfg := &StudyConfig{}

	if cfg.GetSetNameTemplate() != paramstudy.DefaultSetNameTemplate {
		t.Errorf("Expected default template, got %q", cfg.GetSetNameTemplate())
	}
	if cfg.GetOutputFormat() != "" {
		t.Errorf("Expected empty format, got %q", cfg.GetOutputFormat())
	}
	if cfg.GetOverwrite() || cfg.GetRequirePrevious() || cfg.GetWriteMeta() || cfg.GetQuiet() {
		t.Error("Expected boolean settings to default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Empty config should be valid: %v", err)
	}
}

func TestLoadStudyConfig_JSON(t *testing.T) {
	path := writeFile(t, "study.json", `{
  "output_file": "study.arrow",
  "output_file_type": "sqlite",
  "set_name_template": "run@number",
  "overwrite": true
}`)

	cfg, err := LoadStudyConfig(path)
	if err != nil {
		t.Fatalf("LoadStudyConfig failed: %v", err)
	}
	if cfg.GetOutputFile() != "study.arrow" {
		t.Errorf("Expected output_file study.arrow, got %q", cfg.GetOutputFile())
	}
	if cfg.GetOutputFormat() != storage.FormatSQLite {
		t.Errorf("Expected sqlite format, got %q", cfg.GetOutputFormat())
	}
	if cfg.GetSetNameTemplate() != "run@number" {
		t.Errorf("Expected run@number, got %q", cfg.GetSetNameTemplate())
	}
	if !cfg.GetOverwrite() {
		t.Error("Expected overwrite true")
	}
}

func TestLoadStudyConfig_YAML(t *testing.T) {
	path := writeFile(t, "study.yaml", "previous_parameter_study: old.arrow\nrequire_previous: true\noutput_file_template: \"@set_name.yaml\"\nwrite_meta: true\n")

	cfg, err := LoadStudyConfig(path)
	if err != nil {
		t.Fatalf("LoadStudyConfig failed: %v", err)
	}
	opts := cfg.StudyOptions(nil, nil)
	if opts.PreviousStudy != "old.arrow" || !opts.RequirePrevious {
		t.Errorf("unexpected options: %+v", opts)
	}
	if cfg.GetOutputFileTemplate() != "@set_name.yaml" || !cfg.GetWriteMeta() {
		t.Errorf("unexpected per-set settings: %+v", cfg)
	}
}

func TestLoadStudyConfig_Errors(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"wrong extension", "study.toml", "output_file = 'x'"},
		{"unknown key", "study.json", `{"output": "x"}`},
		{"bad json", "study.json", `{"overwrite": }`},
		{"bad format", "study.yml", "output_file_type: parquet\n"},
		{"bad template", "study.yml", "set_name_template: run\n"},
		{"bad file template", "study.yml", "output_file_template: set.yaml\n"},
		{"escaping file template", "study.yml", "output_file_template: ../@set_name.yaml\n"},
		{"require without previous", "study.yml", "require_previous: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			if _, err := LoadStudyConfig(path); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}

	if _, err := LoadStudyConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadStudyConfig_TooLarge(t *testing.T) {
	big := make([]byte, maxFileSize+1)
	for i := range big {
		big[i] = ' '
	}
	path := writeFile(t, "big.yaml", string(big))
	if _, err := LoadStudyConfig(path); err == nil {
		t.Error("Expected error for oversized config")
	}
}

func TestMerge(t *testing.T) {
	base := &StudyConfig{OutputFile: ptrString("a.arrow"), Overwrite: ptrBool(true)}
	base.Merge(&StudyConfig{OutputFile: ptrString("b.db"), WriteMeta: ptrBool(true)})

	if base.GetOutputFile() != "b.db" {
		t.Errorf("Expected override b.db, got %q", base.GetOutputFile())
	}
	if !base.GetOverwrite() || !base.GetWriteMeta() {
		t.Errorf("Expected untouched and merged fields to be set: %+v", base)
	}
	base.Merge(nil)
}

func TestLoadSchema(t *testing.T) {
	path := writeFile(t, "schema.yaml", "A: [1, 2]\nB: [x]\n")
	s, err := LoadSchema(path, "")
	if err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}
	if s.Method != paramstudy.MethodCartesianProduct || len(s.Parameters) != 2 {
		t.Errorf("unexpected schema: %+v", s)
	}

	bad := writeFile(t, "bad.yaml", "A: 3\n")
	_, err = LoadSchema(bad, "")
	var se *paramstudy.SchemaError
	if !errors.As(err, &se) {
		t.Errorf("Expected SchemaError, got %v", err)
	}
}

func TestLoadSchema_ForcedMethod(t *testing.T) {
	path := writeFile(t, "schema.yaml", "num_samples: 4\nA: {distribution: uniform, bounds: [0, 1]}\n")

	if _, err := LoadSchema(path, ""); err == nil {
		t.Error("Expected inference to fail without a method hint")
	}
	s, err := LoadSchema(path, paramstudy.MethodLatinHypercube)
	if err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}
	if s.Method != paramstudy.MethodLatinHypercube {
		t.Errorf("Expected latin_hypercube, got %s", s.Method)
	}
}
