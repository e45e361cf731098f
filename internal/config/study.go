// Package config loads study generation settings and schema files.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/paramstudy/internal/monitoring"
	"github.com/banshee-data/paramstudy/internal/paramstudy"
	"github.com/banshee-data/paramstudy/internal/paramstudy/storage"
	"github.com/banshee-data/paramstudy/internal/security"
)

// maxFileSize caps config and schema files.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// StudyConfig holds the generation settings that may be kept in a file
// next to the schema. Every field is optional; the Get* methods supply
// defaults and command line flags override file values.
type StudyConfig struct {
	OutputFile             *string `json:"output_file,omitempty" yaml:"output_file,omitempty"`
	OutputFileType         *string `json:"output_file_type,omitempty" yaml:"output_file_type,omitempty"`
	PreviousParameterStudy *string `json:"previous_parameter_study,omitempty" yaml:"previous_parameter_study,omitempty"`
	RequirePrevious        *bool   `json:"require_previous,omitempty" yaml:"require_previous,omitempty"`
	RequireUnique          *bool   `json:"require_unique,omitempty" yaml:"require_unique,omitempty"`
	SetNameTemplate        *string `json:"set_name_template,omitempty" yaml:"set_name_template,omitempty"`
	Overwrite              *bool   `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`
	OutputFileTemplate     *string `json:"output_file_template,omitempty" yaml:"output_file_template,omitempty"`
	WriteMeta              *bool   `json:"write_meta,omitempty" yaml:"write_meta,omitempty"`
	Quiet                  *bool   `json:"quiet,omitempty" yaml:"quiet,omitempty"`
}

// readCapped reads a file after checking it is under maxFileSize.
func readCapped(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%s too large: %d bytes (max %d)", path, info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// LoadStudyConfig loads a StudyConfig from a .json, .yaml or .yml file.
// Unknown keys are rejected.
func LoadStudyConfig(path string) (*StudyConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	data, err := readCapped(cleanPath)
	if err != nil {
		return nil, err
	}

	cfg := &StudyConfig{}
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *StudyConfig) Validate() error {
	if c.OutputFileType != nil && *c.OutputFileType != "" {
		if _, err := storage.ParseFormat(*c.OutputFileType); err != nil {
			return err
		}
	}
	if c.SetNameTemplate != nil {
		if err := paramstudy.SetNameTemplate(*c.SetNameTemplate).Validate(); err != nil {
			return err
		}
	}
	if c.OutputFileTemplate != nil && *c.OutputFileTemplate != "" {
		t := *c.OutputFileTemplate
		if !strings.Contains(t, paramstudy.NumberPlaceholder) && !strings.Contains(t, storage.SetNamePlaceholder) {
			return fmt.Errorf("output_file_template %q must contain %s or %s", t, paramstudy.NumberPlaceholder, storage.SetNamePlaceholder)
		}
		if err := security.ValidateFileName(t); err != nil {
			return fmt.Errorf("output_file_template: %w", err)
		}
	}
	if c.GetRequirePrevious() && c.GetPreviousParameterStudy() == "" {
		return fmt.Errorf("require_previous is set but previous_parameter_study is empty")
	}
	return nil
}

// Merge overrides c with every field set in o.
func (c *StudyConfig) Merge(o *StudyConfig) {
	if o == nil {
		return
	}
	mergeString(&c.OutputFile, o.OutputFile)
	mergeString(&c.OutputFileType, o.OutputFileType)
	mergeString(&c.PreviousParameterStudy, o.PreviousParameterStudy)
	mergeBool(&c.RequirePrevious, o.RequirePrevious)
	mergeBool(&c.RequireUnique, o.RequireUnique)
	mergeString(&c.SetNameTemplate, o.SetNameTemplate)
	mergeBool(&c.Overwrite, o.Overwrite)
	mergeString(&c.OutputFileTemplate, o.OutputFileTemplate)
	mergeBool(&c.WriteMeta, o.WriteMeta)
	mergeBool(&c.Quiet, o.Quiet)
}

func mergeString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func mergeBool(dst **bool, src *bool) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// GetOutputFile returns the output path; empty means print to stdout.
func (c *StudyConfig) GetOutputFile() string { return stringOr(c.OutputFile, "") }

// GetOutputFormat returns the explicit output format, or the empty Format
// when it should follow the output file extension.
func (c *StudyConfig) GetOutputFormat() storage.Format {
	if c.OutputFileType == nil || *c.OutputFileType == "" {
		return ""
	}
	f, err := storage.ParseFormat(*c.OutputFileType)
	if err != nil {
		return "" // Validate reports this
	}
	return f
}

// GetPreviousParameterStudy returns the previous study path or "".
func (c *StudyConfig) GetPreviousParameterStudy() string {
	return stringOr(c.PreviousParameterStudy, "")
}

// GetRequirePrevious returns the require_previous value or the default.
func (c *StudyConfig) GetRequirePrevious() bool { return boolOr(c.RequirePrevious, false) }

// GetRequireUnique returns the require_unique value or the default.
func (c *StudyConfig) GetRequireUnique() bool { return boolOr(c.RequireUnique, false) }

// GetSetNameTemplate returns the set name template or the default.
func (c *StudyConfig) GetSetNameTemplate() paramstudy.SetNameTemplate {
	if c.SetNameTemplate == nil || *c.SetNameTemplate == "" {
		return paramstudy.DefaultSetNameTemplate
	}
	return paramstudy.SetNameTemplate(*c.SetNameTemplate)
}

// GetOverwrite returns the overwrite value or the default.
func (c *StudyConfig) GetOverwrite() bool { return boolOr(c.Overwrite, false) }

// GetOutputFileTemplate returns the per-set file template or "".
func (c *StudyConfig) GetOutputFileTemplate() string { return stringOr(c.OutputFileTemplate, "") }

// GetWriteMeta returns the write_meta value or the default.
func (c *StudyConfig) GetWriteMeta() bool { return boolOr(c.WriteMeta, false) }

// GetQuiet returns the quiet value or the default.
func (c *StudyConfig) GetQuiet() bool { return boolOr(c.Quiet, false) }

// StudyOptions builds the generation options for this configuration.
func (c *StudyConfig) StudyOptions(loader paramstudy.Loader, logf monitoring.Logf) paramstudy.Options {
	return paramstudy.Options{
		SetNameTemplate: c.GetSetNameTemplate(),
		PreviousStudy:   c.GetPreviousParameterStudy(),
		RequirePrevious: c.GetRequirePrevious(),
		RequireUnique:   c.GetRequireUnique(),
		Loader:          loader,
		Logf:            logf,
	}
}

// LoadSchema reads and parses a YAML or JSON schema file. A non-empty
// method overrides inference and must match any method key in the file.
func LoadSchema(path string, method paramstudy.Method) (*paramstudy.Schema, error) {
	data, err := readCapped(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	if method != "" {
		return paramstudy.ParseSchemaAs(data, method)
	}
	return paramstudy.ParseSchema(data)
}
