package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Layout  LayoutConfig  `toml:"layout"`
	Output  OutputConfig  `toml:"output"`
	Cleanup CleanupConfig `toml:"cleanup"`
	Fetch   FetchConfig   `toml:"fetch"`
}

// LayoutConfig contains the card grid geometry and per-card styling.
//
// All dimensions are in millimeters. Margins are derived: the card table is
// centered horizontally and aligned to the same margin at the top, which is
// how the remaining space at the bottom fits a page footer.
type LayoutConfig struct {
	Rows         int     `toml:"rows"`
	Columns      int     `toml:"columns"`
	CardSizeMM   float64 `toml:"card_size_mm"`
	PageWidthMM  float64 `toml:"page_width_mm"`
	PageHeightMM float64 `toml:"page_height_mm"`
	Font         string  `toml:"font"`
	Grid         bool    `toml:"grid"`
	CropMarks    bool    `toml:"crop_marks"`
	PageOrder    string  `toml:"page_order"` // "interleaved" or "grouped"
}

// OutputConfig contains artifact output settings.
type OutputConfig struct {
	Dir       string `toml:"dir"`
	PDFName   string `toml:"pdf_name"`
	Converter string `toml:"converter"`
}

// CleanupConfig contains the ordered noise-removal rules applied to raw
// titles and album names. Patterns run before literal suffixes, each list in
// array order.
type CleanupConfig struct {
	TitlePatterns []string `toml:"title_patterns"`
	TitleSuffixes []string `toml:"title_suffixes"`
	AlbumPatterns []string `toml:"album_patterns"`
	AlbumSuffixes []string `toml:"album_suffixes"`
}

// FetchConfig contains upstream metadata fetch settings.
type FetchConfig struct {
	BaseURL           string  `toml:"base_url"`
	UserAgent         string  `toml:"user_agent"`
	SecondsPerRequest float64 `toml:"seconds_per_request"`
	CachePath         string  `toml:"cache_path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a trackdeck.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
