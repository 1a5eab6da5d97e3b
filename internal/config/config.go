// Package config loads service settings from a TOML file, a .env file and
// FAIRDRAW_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"fairdraw/internal/services"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Archive struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

type Config struct {
	ListenAddr string  `toml:"listen_addr"`
	NumWinners int     `toml:"num_winners"`
	Verbose    bool    `toml:"verbose"`
	LogFile    string  `toml:"log_file"`
	Archive    Archive `toml:"archive"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		NumWinners: services.DefaultNumWinners,
		Archive:    Archive{Driver: "none"},
	}
}

// Load reads path (optional) and envFile (optional) and applies environment
// overrides on top of the defaults.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if envFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("FAIRDRAW_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("FAIRDRAW_NUM_WINNERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FAIRDRAW_NUM_WINNERS: %w", err)
		}
		cfg.NumWinners = n
	}
	if v, ok := os.LookupEnv("FAIRDRAW_VERBOSE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FAIRDRAW_VERBOSE: %w", err)
		}
		cfg.Verbose = b
	}
	if v, ok := os.LookupEnv("FAIRDRAW_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := os.LookupEnv("FAIRDRAW_ARCHIVE_DRIVER"); ok {
		cfg.Archive.Driver = v
	}
	if v, ok := os.LookupEnv("FAIRDRAW_ARCHIVE_PATH"); ok {
		cfg.Archive.Path = v
	}
	return nil
}

func (c Config) Validate() error {
	if c.NumWinners <= 0 {
		return fmt.Errorf("num_winners must be positive, got %d", c.NumWinners)
	}
	switch c.Archive.Driver {
	case "", "none":
	case "sqlite", "bolt":
		if c.Archive.Path == "" {
			return fmt.Errorf("archive driver %s requires a path", c.Archive.Driver)
		}
	default:
		return fmt.Errorf("unknown archive driver %q", c.Archive.Driver)
	}
	return nil
}
