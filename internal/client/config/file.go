package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/seedkeeper/internal/flagx"
	"github.com/dmitrijs2005/seedkeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for unmarshalling config files.
// Empty fields leave the corresponding Config value untouched.
type FileConfig struct {
	ContainerRoot       string         `json:"container_root" yaml:"container_root"`
	ContainerID         string         `json:"container_id" yaml:"container_id"`
	DatabasePath        string         `json:"database_path" yaml:"database_path"`
	StatusCheckInterval timex.Duration `json:"status_check_interval" yaml:"status_check_interval"`
	SyncInterval        timex.Duration `json:"sync_interval" yaml:"sync_interval"`
	Backend             string         `json:"backend" yaml:"backend"`
	S3Endpoint          string         `json:"s3_endpoint" yaml:"s3_endpoint"`
	S3Region            string         `json:"s3_region" yaml:"s3_region"`
	S3Bucket            string         `json:"s3_bucket" yaml:"s3_bucket"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
	LogBackend          string         `json:"log_backend" yaml:"log_backend"`
}

// parseFile overlays Config with the file named by -c/-config. Files ending in
// .yaml or .yml are decoded as YAML, anything else as JSON. It panics on read
// or decode errors.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.ContainerRoot, fc.ContainerRoot)
	setString(&cfg.ContainerID, fc.ContainerID)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.Backend, fc.Backend)
	setString(&cfg.S3Endpoint, fc.S3Endpoint)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogBackend, fc.LogBackend)

	if fc.StatusCheckInterval.Duration > 0 {
		cfg.StatusCheckInterval = fc.StatusCheckInterval.Duration
	}
	if fc.SyncInterval.Duration > 0 {
		cfg.SyncInterval = fc.SyncInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
