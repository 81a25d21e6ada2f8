// Package config loads the CLI configuration file. Environment variables
// referenced as ${VAR} in the YAML are expanded before parsing, with an
// optional .env file loaded first.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the sitetree configuration file.
type Config struct {
	// ContentRoot is the directory holding site.yml, theme.yml and pages/.
	ContentRoot string `yaml:"content_root"`

	// Output is the path the collected JSON is written to.
	Output string `yaml:"output"`

	// Environment selects error surfacing ("production" hides the errors
	// array in the output).
	Environment string `yaml:"environment,omitempty"`

	// RequireNumericPrefix skips Markdown files without an ordering prefix.
	RequireNumericPrefix bool `yaml:"require_numeric_prefix,omitempty"`

	Loader    LoaderConfig    `yaml:"loader,omitempty"`
	ImageMeta ImageMetaConfig `yaml:"image_meta,omitempty"`
	Watch     WatchConfig     `yaml:"watch,omitempty"`
}

// LoaderConfig tunes the built-in data loader.
type LoaderConfig struct {
	// Disabled removes the data loader from the pipeline.
	Disabled bool `yaml:"disabled,omitempty"`

	// RevalidateSeconds is the default URL cache lifetime.
	RevalidateSeconds int `yaml:"revalidate_seconds,omitempty"`

	// FetchTimeoutSeconds bounds a single network fetch.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds,omitempty"`

	// PersistPath backs the URL cache with a SQLite database when set.
	PersistPath string `yaml:"persist_path,omitempty"`
}

// ImageMetaConfig tunes the built-in image metadata processor.
type ImageMetaConfig struct {
	// Disabled removes the image metadata processor from the pipeline.
	Disabled bool `yaml:"disabled,omitempty"`

	// SidecarExt is the extension appended to an image source to locate
	// its metadata file.
	SidecarExt string `yaml:"sidecar_ext,omitempty"`

	// PublicDir is where root-relative image sources resolve.
	PublicDir string `yaml:"public_dir,omitempty"`

	// DisableSVG turns off inlining of .svg sources.
	DisableSVG bool `yaml:"disable_svg,omitempty"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	// DebounceSeconds is the settle time before a change triggers a
	// re-collection.
	DebounceSeconds int `yaml:"debounce_seconds,omitempty"`
}

// Revalidate returns the configured revalidate interval, or zero to use the
// loader default.
func (l LoaderConfig) Revalidate() time.Duration {
	return time.Duration(l.RevalidateSeconds) * time.Second
}

// FetchTimeout returns the configured fetch timeout, or zero to use the
// loader default.
func (l LoaderConfig) FetchTimeout() time.Duration {
	return time.Duration(l.FetchTimeoutSeconds) * time.Second
}

// Debounce returns the configured debounce, or zero to use the watcher
// default.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceSeconds) * time.Second
}

// Load reads the configuration file at configPath. A .env file in the
// working directory is loaded first so ${VAR} references in the YAML can
// resolve against it.
func Load(configPath string) (*Config, error) {
	// Missing .env is fine; the file is a local convenience.
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.ContentRoot == "" {
		cfg.ContentRoot = "content"
	}
	if cfg.Output == "" {
		cfg.Output = "content.json"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
}
