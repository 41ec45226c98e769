package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvS3AccessKey = "SEEDKEEPER_S3_ACCESS_KEY"
	EnvS3SecretKey = "SEEDKEEPER_S3_SECRET_KEY"
	EnvS3Endpoint  = "SEEDKEEPER_S3_ENDPOINT"
	EnvS3Bucket    = "SEEDKEEPER_S3_BUCKET"
)

// parseEnv overlays S3 settings from the environment. A .env file in the
// working directory is loaded first; it never overrides variables that are
// already set.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	for name, dst := range map[string]*string{
		EnvS3AccessKey: &cfg.S3AccessKey,
		EnvS3SecretKey: &cfg.S3SecretKey,
		EnvS3Endpoint:  &cfg.S3Endpoint,
		EnvS3Bucket:    &cfg.S3Bucket,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
}
