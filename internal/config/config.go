// Package config loads superpixel-tools configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/superpixel-tools/internal/imaging"
	"github.com/ironsheep/superpixel-tools/internal/projection"
	"github.com/ironsheep/superpixel-tools/internal/segmentation"
)

// Environment variables read by ApplyEnv and by the commands.
const (
	EnvConfigPath = "SUPERPIXEL_MCP_CONFIG"
	EnvDataDir    = "SUPERPIXEL_MCP_DATA_DIR"
	EnvLogLevel   = "SUPERPIXEL_MCP_LOG_LEVEL"
)

// Config is the application configuration.
type Config struct {
	Storage      Storage      `yaml:"storage"`
	Segmentation Segmentation `yaml:"segmentation"`
	Classes      Classes      `yaml:"classes"`
	Overlay      Overlay      `yaml:"overlay"`
	Model        Model        `yaml:"model"`
	Training     Training     `yaml:"training"`
	Logging      Logging      `yaml:"logging"`
}

// Storage locates persisted data.
type Storage struct {
	// DataDir holds uploads, segment records, labels and masks.
	DataDir string `yaml:"dataDir"`

	// ImageCacheSize is the number of decoded uploads the server keeps in
	// memory. Zero means no limit.
	ImageCacheSize int `yaml:"imageCacheSize"`
}

// Segmentation holds the defaults used when a request gives no parameters.
type Segmentation struct {
	NSegments    int     `yaml:"nSegments"`
	Compactness  float64 `yaml:"compactness"`
	MaxDimension int     `yaml:"maxDimension"`
}

// Classes names the classification classes in index order.
type Classes struct {
	Names []string `yaml:"names"`

	// Palette holds one "#RRGGBB" overlay color per class.
	Palette []string `yaml:"palette"`
}

// Overlay controls overlay rendering.
type Overlay struct {
	Opacity float64 `yaml:"opacity"`
}

// Model selects the classifier used by default.
type Model struct {
	// Path is the model file used when a request names none.
	Path string `yaml:"path"`
}

// Training holds training CLI defaults.
type Training struct {
	TestSize float64 `yaml:"testSize"`
	Seed     int64   `yaml:"seed"`
	K        int     `yaml:"k"`
}

// Logging controls log output.
type Logging struct {
	// Level is a zerolog level name: debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "console" or "json".
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}

	cfg.Storage.DataDir = "data"
	cfg.Storage.ImageCacheSize = imaging.DefaultCacheSize

	cfg.Segmentation.NSegments = segmentation.DefaultTargetCount
	cfg.Segmentation.Compactness = segmentation.DefaultCompactness
	cfg.Segmentation.MaxDimension = imaging.DefaultMaxDimension

	cfg.Classes.Names = []string{"good", "moderate", "bad"}
	cfg.Classes.Palette = projection.DefaultPalette().Hex()

	cfg.Overlay.Opacity = projection.DefaultOpacity

	cfg.Training.TestSize = 0.2
	cfg.Training.Seed = 42
	cfg.Training.K = 5

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"

	return cfg
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. A missing file is not an error. An empty path skips
// the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("error reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SUPERPIXEL_MCP_DATA_DIR and
// SUPERPIXEL_MCP_LOG_LEVEL when set.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		c.Storage.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
}

// Save writes c to path as YAML, creating the directory if needed.
func Save(c *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.dataDir must not be empty")
	}
	if c.Storage.ImageCacheSize < 0 {
		return fmt.Errorf("storage.imageCacheSize must be non-negative, got %d", c.Storage.ImageCacheSize)
	}
	if c.Segmentation.NSegments <= 0 {
		return fmt.Errorf("segmentation.nSegments must be positive, got %d", c.Segmentation.NSegments)
	}
	if c.Segmentation.Compactness < 0 {
		return fmt.Errorf("segmentation.compactness must be non-negative, got %g", c.Segmentation.Compactness)
	}
	if len(c.Classes.Names) == 0 {
		return fmt.Errorf("classes.names must list at least one class")
	}
	if len(c.Classes.Palette) < len(c.Classes.Names) {
		return fmt.Errorf("classes.palette has %d colors for %d classes", len(c.Classes.Palette), len(c.Classes.Names))
	}
	if _, err := projection.ParsePalette(c.Classes.Palette); err != nil {
		return fmt.Errorf("classes.palette: %w", err)
	}
	if c.Overlay.Opacity < 0 || c.Overlay.Opacity > 1 {
		return fmt.Errorf("overlay.opacity must be within [0, 1], got %g", c.Overlay.Opacity)
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("training.testSize must be within (0, 1), got %g", c.Training.TestSize)
	}
	if c.Training.K <= 0 {
		return fmt.Errorf("training.k must be positive, got %d", c.Training.K)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// SegmentationParams returns the configured segmentation defaults.
func (c *Config) SegmentationParams() segmentation.Params {
	return segmentation.Params{
		TargetCount:  c.Segmentation.NSegments,
		Compactness:  c.Segmentation.Compactness,
		MaxDimension: c.Segmentation.MaxDimension,
	}
}

// Palette parses the configured class colors. Validate guarantees it
// succeeds for a validated config.
func (c *Config) Palette() (projection.Palette, error) {
	return projection.ParsePalette(c.Classes.Palette)
}
