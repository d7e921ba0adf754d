// Package config provides centralized configuration management for the
// Pronaf monitoring dashboard. It loads settings from the environment and an
// optional YAML file, validates them and exposes the fixed presentation
// constants (column names, filter sentinels, chart styling, messages).
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (config.yaml, configs/config.yaml or PRONAF_CONFIG)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PRONAF_<SECTION>_<FIELD>:
//
//	PRONAF_SERVER_PORT=8080
//	PRONAF_DATA_FILE=data/df_merged.csv
//	PRONAF_DATA_DELIMITER=;
//	PRONAF_GEO_TIMEOUT=30s
//	PRONAF_LOGGING_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := config.GetPaths(cfg)
//
// For tests use config.Default(), which needs no environment.
package config
