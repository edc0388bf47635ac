package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/rat-race-game/game/engine"
	"github.com/wricardo/rat-race-game/game/service"
	apperrors "github.com/wricardo/rat-race-game/internal/platform/errors"
)

var (
	ErrConfigNotFound = apperrors.New(apperrors.CodeNotFound, "configuration not found")
	ErrInvalidConfig  = apperrors.New(apperrors.CodeInvalidConfig, "invalid configuration")
)

// DefaultConfigName is the ruleset used when a room names none.
const DefaultConfigName = "classic"

const ext = ".json"

// Manager serves rulesets from a directory of JSON files. Parsed rulesets
// are cached until RefreshCache is called.
type Manager struct {
	dir  string
	fsys fs.FS

	mu       sync.RWMutex
	cache    map[string]*engine.GameConfig
	fallback *engine.GameConfig
}

// NewManager creates dir if needed and picks the default ruleset.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		dir:   dir,
		fsys:  os.DirFS(dir),
		cache: make(map[string]*engine.GameConfig),
	}
	if err := m.pickDefault(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}
	return m, nil
}

// rulesetName strips the extension and rejects anything that is not a plain
// file name inside the directory.
func rulesetName(name string) (string, bool) {
	name = strings.TrimSuffix(name, ext)
	if name == "" || !fs.ValidPath(name) || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}

// LoadConfig returns a ruleset by name. An empty name returns the default.
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	if name == "" {
		return m.GetDefault(), nil
	}
	key, ok := rulesetName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
	}

	m.mu.RLock()
	cfg, hit := m.cache[key]
	m.mu.RUnlock()
	if hit {
		return cfg, nil
	}

	cfg, err := m.read(key)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, raced := m.cache[key]; raced {
		return cached, nil
	}
	m.cache[key] = cfg
	return cfg, nil
}

func (m *Manager) read(key string) (*engine.GameConfig, error) {
	data, err := fs.ReadFile(m.fsys, key+ext)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, key)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := new(engine.GameConfig)
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, key, err)
	}
	if err := engine.ValidateGameConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return cfg, nil
}

// ListConfigs summarizes every ruleset in the directory that loads cleanly.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	names, err := m.names()
	if err != nil {
		return nil, err
	}

	infos := make([]*service.ConfigInfo, 0, len(names))
	for _, name := range names {
		cfg, err := m.LoadConfig(name)
		if err != nil {
			continue
		}
		infos = append(infos, &service.ConfigInfo{
			Filename:         name + ext,
			ConfigID:         name,
			Name:             cfg.Name,
			Description:      cfg.Description,
			TurnSeconds:      cfg.TurnSeconds,
			MaxLoanPrincipal: cfg.MaxLoanPrincipal,
			Professions:      len(cfg.Professions),
		})
	}
	return infos, nil
}

// names lists ruleset files in lexical order.
func (m *Manager) names() ([]string, error) {
	matches, err := fs.Glob(m.fsys, "*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		if info, err := fs.Stat(m.fsys, match); err == nil && info.Mode().IsRegular() {
			names = append(names, strings.TrimSuffix(path.Base(match), ext))
		}
	}
	return names, nil
}

func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fallback
}

// SetDefault makes the named ruleset the default.
func (m *Manager) SetDefault(name string) error {
	cfg, err := m.LoadConfig(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.fallback = cfg
	m.mu.Unlock()
	return nil
}

// RefreshCache forgets parsed rulesets and picks the default again.
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	clear(m.cache)
	m.mu.Unlock()
	return m.pickDefault()
}

// pickDefault prefers classic.json, then the first ruleset that loads, then
// the built-in rules.
func (m *Manager) pickDefault() error {
	cfg, err := m.LoadConfig(DefaultConfigName)
	if err != nil && !errors.Is(err, ErrConfigNotFound) && !errors.Is(err, ErrInvalidConfig) {
		return err
	}

	if cfg == nil {
		cfg = engine.DefaultConfig()
		names, _ := m.names()
		for _, name := range names {
			if loaded, err := m.LoadConfig(name); err == nil {
				cfg = loaded
				break
			}
		}
	}

	m.mu.Lock()
	m.fallback = cfg
	m.mu.Unlock()
	return nil
}

// SaveConfig validates cfg and atomically writes it as <name>.json.
func (m *Manager) SaveConfig(name string, cfg *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	key, ok := rulesetName(name)
	if !ok {
		return fmt.Errorf("%w: invalid config name %q", ErrInvalidConfig, name)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(m.dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(m.dir, key+ext)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.cache[key] = cfg
	m.mu.Unlock()
	return nil
}
