// Package config loads runtime configuration for the seedkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: SEEDKEEPER_S3_* variables, optionally from a .env file.
//  3. Optional config file selected via -c or -config (JSON, or YAML when the
//     name ends in .yaml/.yml).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # File schema
//
// Intervals are timex.Duration values, so they can be strings like "3s" or
// integer nanoseconds:
//
//	container_root: /Users/me/Library/Mobile Documents
//	container_id: iCloud~io~seedkeeper~wallet
//	backend: s3
//	s3_bucket: wallet-backup
//	status_check_interval: 5s
//
// Credentials are never read from the file; use the environment.
package config
