package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetVGA     = "vga"
	PresetLow     = "low"
	PresetSmooth  = "smooth"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetVGA:     VGAConfig(),
		PresetLow:     LowBandwidthConfig(),
		PresetSmooth:  SmoothConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetDefault, PresetVGA, PresetLow, PresetSmooth}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// VGAConfig returns 640x480. Detection gets slower on a Pi 4.
func VGAConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	cfg.FPS = 10
	return cfg
}

// LowBandwidthConfig lowers stream quality for weak Wi-Fi.
func LowBandwidthConfig() Config {
	cfg := DefaultConfig()
	cfg.JPEGQuality = 40
	cfg.StreamFPSLimit = 6
	return cfg
}

// SmoothConfig streams every captured frame.
func SmoothConfig() Config {
	cfg := DefaultConfig()
	cfg.FPS = 30
	cfg.StreamFPSLimit = 30
	return cfg
}
