package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the prefix of environment variables read by the loader.
const DefaultEnvPrefix = "LDAPEXT_"

// DefaultConfigPath returns ~/.ldapext/config.yaml.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".ldapext", "config.yaml")
}

// Loader merges configuration sources into a Config.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	// explicit is set when filePath came from the user; a missing file is
	// then an error instead of being skipped.
	explicit bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix overrides DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile reads path instead of DefaultConfigPath. The file must exist.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		if path != "" {
			l.filePath = path
			l.explicit = true
		}
	}
}

// NewLoader returns a loader reading DefaultConfigPath, when present, and
// LDAPEXT_* variables.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		filePath:  DefaultConfigPath(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load builds a Config from defaults, the file, the environment and flags,
// in increasing order of priority, and validates it. flags holds only the
// flags the user actually set, keyed by their configuration path.
func (l *Loader) Load(flags map[string]any) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := l.LoadFile(l.filePath); err != nil {
		return nil, fmt.Errorf("load config file: %w", err)
	}

	if err := l.LoadEnv(); err != nil {
		return nil, err
	}

	if len(flags) > 0 {
		if err := l.LoadMap(flags); err != nil {
			return nil, err
		}
	}

	if err := l.k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile merges a YAML file. A missing default file is ignored.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !l.explicit {
		return nil
	}

	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}

	return nil
}

// LoadEnv merges environment variables. LDAPEXT_KERBEROS_REALM becomes
// kerberos.realm.
func (l *Loader) LoadEnv() error {
	transform := func(s string) string {
		s = strings.TrimPrefix(s, l.envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "_", ".")
	}

	if err := l.k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	return nil
}

// LoadMap merges already-parsed values.
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Get returns the merged value at key.
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}
