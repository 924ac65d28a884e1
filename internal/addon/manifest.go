package addon

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the metadata file every add-on directory must contain.
const ManifestFileName = "addon.yaml"

// EngineFlinkSQL is the engine identifier for Flink SQL parser add-ons.
const EngineFlinkSQL = "FlinkSQL"

// Capability names for the operation classes a parser add-on can serve.
const (
	CapabilityDiagnostics = "diagnostics"
	CapabilityCompletion  = "completion"
)

// Manifest represents the add-on addon.yaml structure.
type Manifest struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Engine       string   `yaml:"engine"`
	Entry        string   `yaml:"entry"`
	Capabilities []string `yaml:"capabilities"`
	Description  string   `yaml:"description"`
	Author       string   `yaml:"author"`

	// Internal fields
	dir string // Directory containing manifest
}

// ParseManifest reads and parses addon.yaml from a directory.
func ParseManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, ManifestFileName)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestNotFoundError{
			Path: manifestPath,
			Err:  err,
		}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{
			Path: manifestPath,
			Err:  err,
		}
	}

	m.dir = dir

	// Validate manifest
	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest fields.
func (m *Manifest) Validate() error {
	// Check required fields
	if m.Name == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "name",
			Message: "name is required",
		}
	}

	if m.Version == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "version",
			Message: "version is required",
		}
	}

	if m.Engine == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "engine",
			Message: "engine is required",
		}
	}

	// Validate engine type
	validEngines := map[string]bool{
		EngineFlinkSQL: true,
	}
	if !validEngines[m.Engine] {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "engine",
			Message: fmt.Sprintf("unsupported engine: %s (must be: FlinkSQL)", m.Engine),
		}
	}

	if m.Entry == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "entry",
			Message: "entry is required",
		}
	}

	// Validate capabilities
	if len(m.Capabilities) == 0 {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "capabilities",
			Message: "at least one capability is required",
		}
	}

	validCaps := map[string]bool{
		CapabilityDiagnostics: true,
		CapabilityCompletion:  true,
	}
	for _, cap := range m.Capabilities {
		if !validCaps[cap] {
			return &ManifestValidationError{
				Path:    m.Path(),
				Field:   "capabilities",
				Message: fmt.Sprintf("unknown capability: %s (must be one of: diagnostics, completion)", cap),
			}
		}
	}

	// Validate Wasm entry file exists
	wasmPath := m.WasmPath()
	if _, err := os.Stat(wasmPath); os.IsNotExist(err) {
		return &WasmNotFoundError{
			ManifestPath: m.Path(),
			WasmFile:     m.Entry,
		}
	}

	return nil
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return filepath.Join(m.dir, ManifestFileName)
}

// WasmPath returns the absolute path to the Wasm entry file.
func (m *Manifest) WasmPath() string {
	return filepath.Join(m.dir, m.Entry)
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return m.dir
}
