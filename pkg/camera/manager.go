package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the current camera configuration and handles updates.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// Callback when config changes (for applying to the capture device)
	OnConfigChange func(cfg Config) error
}

// NewManager creates a manager starting from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and stores cfg, then notifies OnConfigChange.
func (m *Manager) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}
	return nil
}

// UpdateConfig updates specific fields of the configuration from decoded
// JSON. A "preset" key is applied first.
func (m *Manager) UpdateConfig(params map[string]any) error {
	cfg := m.GetConfig()

	if name, ok := params["preset"].(string); ok {
		preset := GetPreset(name)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", name)
		}
		// The open device stays the same.
		preset.Device = cfg.Device
		cfg = *preset
	}

	for key, value := range params {
		v, ok := toInt(value)
		if !ok {
			continue
		}
		switch key {
		case "width":
			cfg.Width = v
		case "height":
			cfg.Height = v
		case "fps":
			cfg.FPS = v
		case "quality":
			cfg.JPEGQuality = v
		case "stream_fps_limit":
			cfg.StreamFPSLimit = v
		}
	}

	return m.SetConfig(cfg)
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
