package camera

// Resolution presets.
const (
	PresetHD1920x1080 = "hd1920x1080"
	PresetHD1280x720  = "hd1280x720"
	PresetVGA640x480  = "vga640x480"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetHD1920x1080: DefaultConfig(),
		PresetHD1280x720:  HD720Config(),
		PresetVGA640x480:  VGAConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetHD1920x1080,
		PresetHD1280x720,
		PresetVGA640x480,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// HD720Config returns 1280x720. Useful on USB 2 webcams that
// cannot push 1080p MJPEG at a usable frame rate.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Preset = PresetHD1280x720
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// VGAConfig returns 640x480 at a higher preview rate.
func VGAConfig() Config {
	cfg := DefaultConfig()
	cfg.Preset = PresetVGA640x480
	cfg.Width = 640
	cfg.Height = 480
	cfg.Framerate = 30
	return cfg
}

// ApplyPreset returns cfg with the preset's resolution and frame rate,
// keeping device and torch settings.
func ApplyPreset(cfg Config, name string) (Config, bool) {
	p := GetPreset(name)
	if p == nil {
		return cfg, false
	}
	cfg.Preset = p.Preset
	cfg.Width = p.Width
	cfg.Height = p.Height
	cfg.Framerate = p.Framerate
	return cfg, true
}
