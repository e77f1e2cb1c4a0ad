// Package config provides configuration management for temporal-sync.
//
// It uses Viper to load settings from environment variables and an optional
// .env file, with defaults declared as struct tags on the partial configs.
//
// # Configuration Structure
//
// The Config struct aggregates the settings of each subsystem:
//   - Server: HTTP server settings (port, API key)
//   - Database: MySQL connection for the versioned target tables
//   - Storage: S3/MinIO credentials and the bucket holding source extracts
//   - Log: logging level and format
//
// Job-level parameters (table, natural key, as-of, chunk size) are not
// global configuration; they arrive per run via CLI flags or the API body.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
