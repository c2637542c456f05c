// Package manifest handles ilink.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked for in a project directory.
const FileName = "ilink.toml"

// Manifest represents an ilink.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Link    LinkConfig  `toml:"link"`
	Store   StoreConfig `toml:"store"`
	Classes []ClassDecl `toml:"class"`

	// Dir is the directory containing the ilink.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// LinkConfig configures table construction.
type LinkConfig struct {
	// Access selects the override visibility rule: "jvm" or "open".
	Access  string `toml:"access"`
	Verbose bool   `toml:"verbose"`
}

// StoreConfig configures snapshot persistence.
type StoreConfig struct {
	// Path is the SQLite database, relative to Dir. Empty disables the store.
	Path string `toml:"path"`
}

// ClassDecl declares one class or interface.
type ClassDecl struct {
	Name       string       `toml:"name"`
	Package    string       `toml:"package"`
	Interface  bool         `toml:"interface"`
	Abstract   bool         `toml:"abstract"`
	Super      string       `toml:"super"`
	Interfaces []string     `toml:"interfaces"`
	Methods    []MethodDecl `toml:"method"`
}

// MethodDecl declares one method.
type MethodDecl struct {
	Name      string `toml:"name"`
	Signature string `toml:"signature"`
	Abstract  bool   `toml:"abstract"`
	Static    bool   `toml:"static"`
	// Access is "public" (the default), "protected", "private" or "package".
	Access string `toml:"access"`
}

// Load parses an ilink.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes manifest content and applies defaults.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	// Defaults
	if m.Link.Access == "" {
		m.Link.Access = "jvm"
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find an ilink.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// StorePath returns the absolute snapshot database path, or "" when no
// store is configured.
func (m *Manifest) StorePath() string {
	if m.Store.Path == "" {
		return ""
	}
	if filepath.IsAbs(m.Store.Path) {
		return m.Store.Path
	}
	return filepath.Join(m.Dir, m.Store.Path)
}
