// Package config defines dyno's configuration model and the layered
// resolution of CLI flags, environment variables, an optional dyno.toml
// file, and built-in defaults.
package config

// Config is the top-level configuration structure, mapping to dyno.toml
// and mirroring the CLI flag set.
type Config struct {
	Target        string `toml:"target"`
	ForcPath      string `toml:"forc_path"`
	OutputFolder  string `toml:"output_folder"`
	PrintOutput   bool   `toml:"print_output"`
	Flamegraph    bool   `toml:"flamegraph"`
	DataOnly      bool   `toml:"data_only"`
	Hyperfine     bool   `toml:"hyperfine"`
	MaxIterations int    `toml:"max_iterations"`
	Database      bool   `toml:"database"`
}
