package config

// Config represents the application configuration.
type Config struct {
	App struct {
		Name    string `mapstructure:"name"`
		Version string `mapstructure:"version"`
	} `mapstructure:"app"`
	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
	Simulation struct {
		TrackFile   string `mapstructure:"track_file"`
		FrameCount  int64  `mapstructure:"frame_count"`
		GridVersion string `mapstructure:"grid_version"`
		LRA         bool   `mapstructure:"lra"`
		OutputDir   string `mapstructure:"output_dir"`
	} `mapstructure:"simulation"`
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
}
