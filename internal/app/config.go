package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/campusops/enrolldesk/internal/registry"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
	} `toml:"auth"`

	API struct {
		OperatorHeader  string         `toml:"operator_header"`
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Storage struct {
		UploadsDir     string `toml:"uploads_dir"`
		ReportsDir     string `toml:"reports_dir"`
		MaxUploadBytes int64  `toml:"max_upload_bytes"`
		ImageWidth     int    `toml:"image_width"`
		ImageHeight    int    `toml:"image_height"`
		ImageQuality   int    `toml:"image_quality"`
		ThumbWidth     int    `toml:"thumb_width"`
		ThumbHeight    int    `toml:"thumb_height"`
	} `toml:"storage"`

	Cohorts registry.Cohorts `toml:"cohorts"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	config.applyStorageDefaults()

	logger.Debug.Printf("Loaded cohort config: %+v", config.Cohorts)

	return &config, nil
}

// applyStorageDefaults fills the knobs most deployments never touch.
func (c *Config) applyStorageDefaults() {
	if c.Storage.UploadsDir == "" {
		c.Storage.UploadsDir = "uploads"
	}
	if c.Storage.ReportsDir == "" {
		c.Storage.ReportsDir = "reports"
	}
	if c.Storage.MaxUploadBytes == 0 {
		c.Storage.MaxUploadBytes = 500 * 1024
	}
	if c.Storage.ImageWidth == 0 {
		c.Storage.ImageWidth = 300
	}
	if c.Storage.ImageHeight == 0 {
		c.Storage.ImageHeight = 300
	}
	if c.Storage.ImageQuality == 0 {
		c.Storage.ImageQuality = 70
	}
	if c.Storage.ThumbWidth == 0 {
		c.Storage.ThumbWidth = 100
	}
	if c.Storage.ThumbHeight == 0 {
		c.Storage.ThumbHeight = 100
	}
}
