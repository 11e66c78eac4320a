package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultContextWindow is the fallback anchoring context window when
// reader.context_window is not configured.
const DefaultContextWindow = 50

// defaults are the built-in values behind the keys margine reads. A key
// absent from the config file resolves here before reporting missing.
var defaults = map[string]any{
	"reader.highlight_color": domain.DefaultAnnotationColors[0],
	"reader.context_window":  int64(DefaultContextWindow),
}

// ConfigStore reads and writes margine's TOML configuration. Nested
// tables flatten to dot-notation keys, so
//
//	[reader]
//	highlight_color = "#f59e0b"
//
// is addressed as reader.highlight_color. The keys in use are
// reader.highlight_color, reader.context_window, storage.data_dir and
// render.dir.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	values   map[string]any
}

// NewConfigStore opens the config store rooted at configDir, creating
// the directory when needed. An empty configDir means ~/.margine.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".margine")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		values:   make(map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// lookup resolves a key against the file values first, then the
// built-in defaults.
func (s *ConfigStore) lookup(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if val, ok := s.values[key]; ok {
		return val, true
	}
	val, ok := defaults[key]
	return val, ok
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	return s.lookup(key)
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.lookup(key)
	if !ok {
		return ""
	}
	str, _ := val.(string)
	return str
}

// GetInt retrieves an integer configuration value. TOML parses
// integers as int64; defaults are stored the same way.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.lookup(key)
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.lookup(key)
	if !ok {
		return false
	}
	b, _ := val.(bool)
	return b
}

// GetStringSlice retrieves a string slice configuration value. TOML
// arrays parse as []any; non-string elements are dropped.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, ok := s.lookup(key)
	if !ok {
		return nil
	}
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes the TOML file; the caller holds the lock. Defaults are
// never written, only values set explicitly.
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.values)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads the TOML file, flattening nested tables into dot-notation
// keys. A missing file is an empty configuration, not an error.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.values = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}

	s.values = make(map[string]any)
	flattenInto(s.values, loaded, "")
	return nil
}

// flattenInto writes m's entries into out under dot-joined keys,
// recursing through nested tables.
func flattenInto(out map[string]any, m map[string]any, prefix string) {
	for key, value := range m {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flattenInto(out, nested, full)
			continue
		}
		out[full] = value
	}
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
