package config

// NewDefaults returns a Config populated with dyno's built-in defaults.
func NewDefaults() *Config {
	return &Config{
		OutputFolder:  "./benchmarks",
		MaxIterations: 2,
	}
}
