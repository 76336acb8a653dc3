package camera

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig: Validate returned %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 240 {
		t.Errorf("size: got %dx%d, want 320x240", cfg.Width, cfg.Height)
	}
	if cfg.JPEGQuality != 60 || cfg.StreamFPSLimit != 12 {
		t.Errorf("stream: got quality %d limit %d, want 60 and 12", cfg.JPEGQuality, cfg.StreamFPSLimit)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative device", func(c *Config) { c.Device = -1 }},
		{"too narrow", func(c *Config) { c.Width = 100 }},
		{"too tall", func(c *Config) { c.Height = 4000 }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"quality above 100", func(c *Config) { c.JPEGQuality = 101 }},
		{"zero stream limit", func(c *Config) { c.StreamFPSLimit = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate: expected error, got nil")
			}
		})
	}
}

func TestPresets_Valid(t *testing.T) {
	for _, name := range PresetNames() {
		p := GetPreset(name)
		if p == nil {
			t.Fatalf("GetPreset(%q): got nil", name)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("preset %q: %v", name, err)
		}
	}
	if GetPreset("4k") != nil {
		t.Error("GetPreset(4k): expected nil")
	}
}

func TestManager_UpdateConfig(t *testing.T) {
	m := NewManager(DefaultConfig())
	var applied []Config
	m.OnConfigChange = func(cfg Config) error {
		applied = append(applied, cfg)
		return nil
	}

	if err := m.UpdateConfig(map[string]any{"quality": float64(80), "stream_fps_limit": float64(5)}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	cfg := m.GetConfig()
	if cfg.JPEGQuality != 80 || cfg.StreamFPSLimit != 5 {
		t.Errorf("config: got quality %d limit %d, want 80 and 5", cfg.JPEGQuality, cfg.StreamFPSLimit)
	}
	if len(applied) != 1 {
		t.Errorf("OnConfigChange calls: got %d, want 1", len(applied))
	}
}

func TestManager_Preset(t *testing.T) {
	base := DefaultConfig()
	base.Device = 2
	m := NewManager(base)

	if err := m.UpdateConfig(map[string]any{"preset": PresetVGA, "quality": 70}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	cfg := m.GetConfig()
	if cfg.Width != 640 || cfg.JPEGQuality != 70 || cfg.Device != 2 {
		t.Errorf("config: got %+v, want VGA with quality 70 on device 2", cfg)
	}

	if err := m.UpdateConfig(map[string]any{"preset": "cinema"}); err == nil {
		t.Error("UpdateConfig: expected error for unknown preset")
	}
}

func TestManager_RejectsInvalid(t *testing.T) {
	m := NewManager(DefaultConfig())
	if err := m.UpdateConfig(map[string]any{"quality": 0}); err == nil {
		t.Fatal("UpdateConfig: expected validation error")
	}
	if m.GetConfig().JPEGQuality != 60 {
		t.Error("invalid update must not be stored")
	}
}

func TestManager_CallbackError(t *testing.T) {
	m := NewManager(DefaultConfig())
	boom := errors.New("device busy")
	m.OnConfigChange = func(Config) error { return boom }

	if err := m.SetConfig(VGAConfig()); !errors.Is(err, boom) {
		t.Errorf("SetConfig: got %v, want wrapped %v", err, boom)
	}
}
