package main

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all runtrace CLI configuration.
// Priority: flags > env vars > settings.yaml > defaults.
type Config struct {
	Fixture   string `yaml:"fixture"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`
	Theme     string `yaml:"theme"`
	Engine    string `yaml:"engine"`
	Columns   int    `yaml:"columns"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		LogFile:   filepath.Join(runtraceDir(), "runtrace.log"),
		Theme:     "auto",
		Engine:    "expr",
		Columns:   60,
	}
}

func runtraceDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".runtrace"
	}
	return filepath.Join(home, ".runtrace")
}

func settingsPath() string {
	return filepath.Join(runtraceDir(), "settings.yaml")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.yaml (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = yaml.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("RUNTRACE_FIXTURE"); v != "" {
		cfg.Fixture = v
	}
	if v := os.Getenv("RUNTRACE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RUNTRACE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("RUNTRACE_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("RUNTRACE_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("RUNTRACE_ENGINE"); v != "" {
		cfg.Engine = v
	}
	if v := os.Getenv("RUNTRACE_COLUMNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Columns = n
		}
	}

	if cfg.Columns <= 0 {
		cfg.Columns = defaultConfig().Columns
	}
	return cfg
}
