package config

// Config is the top-level application configuration, corresponding to
// scrolly.yml. It covers the tool surfaces (export, dev server), not the
// per-step presentation specs, which live in the deck file.
type Config struct {
	DeckFile  string `yaml:"deck_file" koanf:"deck_file"`
	DataDir   string `yaml:"data_dir" koanf:"data_dir"`
	OutputDir string `yaml:"output_dir" koanf:"output_dir"`

	// Disease forces the theme instead of URL detection.
	Disease string `yaml:"disease" koanf:"disease"`

	// Canvas size for rendered frames.
	Width  int `yaml:"width" koanf:"width"`
	Height int `yaml:"height" koanf:"height"`

	// FramesPerStep controls how densely the exporter samples each step's
	// progress range.
	FramesPerStep int `yaml:"frames_per_step" koanf:"frames_per_step"`
	Workers       int `yaml:"workers" koanf:"workers"`
	ShowStats     bool `yaml:"show_stats" koanf:"show_stats"`

	Server ServerConfig `yaml:"server" koanf:"server"`
}

// ServerConfig holds dev-server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"` // allow all CORS origins
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		DeckFile:      "deck.yaml",
		DataDir:       "data",
		OutputDir:     "out",
		Width:         960,
		Height:        600,
		FramesPerStep: 10,
		Workers:       4,
		Server:        ServerConfig{Port: 5173},
	}
}
