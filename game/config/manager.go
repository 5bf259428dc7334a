// Package config loads and caches rules presets from JSON files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/statefulgames/kinarow/game/engine"
	"github.com/statefulgames/kinarow/game/service"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidPreset  = errors.New("invalid preset")
)

// Manager handles rules preset loading and caching
type Manager struct {
	presetDir     string
	defaultPreset engine.Rules
	presets       map[string]engine.Rules
	mu            sync.RWMutex
}

// NewManager creates a preset manager rooted at presetDir.
func NewManager(presetDir string) (*Manager, error) {
	if _, err := os.Stat(presetDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("preset directory does not exist: %s", presetDir)
	}

	m := &Manager{
		presetDir: presetDir,
		presets:   make(map[string]engine.Rules),
	}

	if err := m.loadDefaultPreset(); err != nil {
		return nil, fmt.Errorf("failed to load default preset: %w", err)
	}

	return m, nil
}

// LoadPreset loads a rules preset by name.
func (m *Manager) LoadPreset(name string) (engine.Rules, error) {
	m.mu.RLock()
	if rules, exists := m.presets[name]; exists {
		m.mu.RUnlock()
		return rules, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if rules, exists := m.presets[name]; exists {
		return rules, nil
	}

	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename = name + ".json"
	}

	data, err := os.ReadFile(filepath.Join(m.presetDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return engine.Rules{}, ErrPresetNotFound
		}
		return engine.Rules{}, fmt.Errorf("failed to read preset file: %w", err)
	}

	var rules engine.Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return engine.Rules{}, fmt.Errorf("failed to parse preset: %w", err)
	}

	if err := engine.ValidateRules(rules); err != nil {
		return engine.Rules{}, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}

	m.presets[name] = rules
	return rules, nil
}

// ListPresets returns information about all available presets.
func (m *Manager) ListPresets() ([]*service.PresetInfo, error) {
	entries, err := os.ReadDir(m.presetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	var presets []*service.PresetInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		rules, err := m.LoadPreset(name)
		if err != nil {
			// Skip invalid presets
			continue
		}

		presets = append(presets, &service.PresetInfo{
			PresetID:      name,
			Name:          rules.Name,
			Description:   rules.Description,
			BoardSize:     rules.BoardSize,
			RunLength:     rules.RunLength,
			TurnTimeoutMs: rules.TurnTimeoutMs,
		})
	}

	return presets, nil
}

// GetDefault returns the default rules preset.
func (m *Manager) GetDefault() engine.Rules {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPreset
}

// SetDefault sets the default preset by name.
func (m *Manager) SetDefault(name string) error {
	rules, err := m.LoadPreset(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPreset = rules
	return nil
}

// SavePreset validates and writes a preset to disk.
func (m *Manager) SavePreset(name string, rules engine.Rules) error {
	if err := engine.ValidateRules(rules); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}

	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename = name + ".json"
	}

	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.presetDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	m.mu.Lock()
	m.presets[name] = rules
	m.mu.Unlock()

	return nil
}

// RefreshCache drops cached presets and reloads the default.
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.presets = make(map[string]engine.Rules)
	m.mu.Unlock()

	return m.loadDefaultPreset()
}

// loadDefaultPreset prefers classic.json, falls back to the first available
// preset and finally to the built-in default rules.
func (m *Manager) loadDefaultPreset() error {
	rules, err := m.LoadPreset("classic")
	if err == nil {
		m.mu.Lock()
		m.defaultPreset = rules
		m.mu.Unlock()
		return nil
	}

	presets, listErr := m.ListPresets()
	if listErr == nil && len(presets) > 0 {
		rules, err = m.LoadPreset(presets[0].PresetID)
		if err == nil {
			m.mu.Lock()
			m.defaultPreset = rules
			m.mu.Unlock()
			return nil
		}
	}

	m.mu.Lock()
	m.defaultPreset = engine.DefaultRules()
	m.mu.Unlock()
	return nil
}
