package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Project is the optional per-project configuration loaded from
// sester.yaml next to the compiled source. Command-line flags override it.
type Project struct {
	// OutputDir is where emitted modules are written. The -o flag
	// overrides it; "_build" is used when neither is given.
	OutputDir string `yaml:"output_dir,omitempty"`

	// Color controls colored diagnostics: "auto" (default), "always",
	// or "never".
	Color string `yaml:"color,omitempty"`

	// Warnings disables warning output when set to false.
	Warnings *bool `yaml:"warnings,omitempty"`
}

// DefaultProject is the configuration used when no project file exists.
func DefaultProject() Project {
	return Project{OutputDir: "_build", Color: "auto"}
}

// LoadProject reads the project file at path. A missing file yields the
// defaults; a malformed one is an error.
func LoadProject(path string) (Project, error) {
	proj := DefaultProject()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return proj, nil
		}
		return proj, err
	}
	if err := yaml.Unmarshal(data, &proj); err != nil {
		return proj, err
	}
	if proj.OutputDir == "" {
		proj.OutputDir = "_build"
	}
	if proj.Color == "" {
		proj.Color = "auto"
	}
	return proj, nil
}

// WarningsEnabled resolves the warnings toggle.
func (p Project) WarningsEnabled() bool {
	return p.Warnings == nil || *p.Warnings
}
