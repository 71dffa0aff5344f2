package gateway

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/umbrellacorp/usiop/internal/alert"
)

// Config holds gateway configuration. Paths left empty fall back to
// files under ~/.usiop/.
type Config struct {
	Port int `yaml:"port"`

	ClearancePath string `yaml:"clearance_path"`
	DenylistPath  string `yaml:"denylist_path"`
	RosterPath    string `yaml:"roster_path"`
	DocsPath      string `yaml:"docs_path"`

	AuditLogPath   string `yaml:"audit_log_path"`
	AuditDBPath    string `yaml:"audit_db_path"`
	SessionDBPath  string `yaml:"session_db_path"`
	TracePath      string `yaml:"trace_path"`
	WatchRoster    bool   `yaml:"watch_roster"`
	PrivilegedSite string `yaml:"privileged_site"`

	Alerts []alert.Config `yaml:"alerts"`
}

// DefaultConfig returns the built-in gateway configuration.
func DefaultConfig() Config {
	return Config{
		Port:         8787,
		AuditLogPath: defaultPath("audit.jsonl"),
		AuditDBPath:  defaultPath("audit.db"),
		TracePath:    defaultPath("trace.jsonl"),
	}
}

// LoadConfig loads gateway configuration from a YAML file. Empty path
// falls back to ~/.usiop/config.yaml; a missing file yields defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = filepath.Join(home, ".usiop", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("gateway config: %w", err)
	}

	// Defaults first, YAML overwrites only specified fields.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("gateway config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "usiop", name)
	}
	return filepath.Join(home, ".usiop", name)
}
