package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "PRONAF"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Geo       GeoConfig       `yaml:"geo" envconfig:"GEO"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"45s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// DataConfig locates the municipality dataset.
type DataConfig struct {
	File      string `yaml:"file" envconfig:"FILE" default:"data/df_merged.csv"`
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" default:","`
	Sheet     string `yaml:"sheet" envconfig:"SHEET"`
}

// GeoConfig describes the municipal boundary source and the map viewport.
type GeoConfig struct {
	BoundariesURL string        `yaml:"boundaries_url" envconfig:"BOUNDARIES_URL" default:"https://raw.githubusercontent.com/tbrugz/geodata-br/master/geojson/geojs-31-mun.json"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
	CenterLat     float64       `yaml:"center_lat" envconfig:"CENTER_LAT" default:"-20.75"`
	CenterLon     float64       `yaml:"center_lon" envconfig:"CENTER_LON" default:"-42.85"`
	Zoom          float64       `yaml:"zoom" envconfig:"ZOOM" default:"6.2"`
	FeatureIDKey  string        `yaml:"feature_id_key" envconfig:"FEATURE_ID_KEY" default:"id"`
}

// ExportConfig names the downloadable artifacts.
type ExportConfig struct {
	CSVFileName  string `yaml:"csv_file_name" envconfig:"CSV_FILE_NAME" default:"monitoramento_impacto_zona_mata.csv"`
	XLSXFileName string `yaml:"xlsx_file_name" envconfig:"XLSX_FILE_NAME" default:"monitoramento_impacto_zona_mata.xlsx"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"4096"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
	MaxMessageSize  int64         `yaml:"max_message_size" envconfig:"MAX_MESSAGE_SIZE" default:"65536"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit YAML file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileConfig, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = mergeConfigs(*fileConfig, cfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config. A value explicitly set
// in the environment wins; otherwise the file value replaces the default.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if fileConfig.Server.Port != 0 && !envSet("SERVER_PORT") {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if fileConfig.Server.ReadTimeout != 0 && !envSet("SERVER_READ_TIMEOUT") {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if fileConfig.Server.WriteTimeout != 0 && !envSet("SERVER_WRITE_TIMEOUT") {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if len(fileConfig.Security.AllowedOrigins) > 0 && !envSet("SECURITY_ALLOWED_ORIGINS") {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if fileConfig.Logging.Level != "" && !envSet("LOGGING_LEVEL") {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Output != "" && !envSet("LOGGING_OUTPUT") {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if fileConfig.Logging.FilePath != "" && !envSet("LOGGING_FILE_PATH") {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if fileConfig.Data.File != "" && !envSet("DATA_FILE") {
		envConfig.Data.File = fileConfig.Data.File
	}
	if fileConfig.Data.Delimiter != "" && !envSet("DATA_DELIMITER") {
		envConfig.Data.Delimiter = fileConfig.Data.Delimiter
	}
	if fileConfig.Data.Sheet != "" && !envSet("DATA_SHEET") {
		envConfig.Data.Sheet = fileConfig.Data.Sheet
	}
	if fileConfig.Geo.BoundariesURL != "" && !envSet("GEO_BOUNDARIES_URL") {
		envConfig.Geo.BoundariesURL = fileConfig.Geo.BoundariesURL
	}
	if fileConfig.Geo.Timeout != 0 && !envSet("GEO_TIMEOUT") {
		envConfig.Geo.Timeout = fileConfig.Geo.Timeout
	}

	return envConfig
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if strings.TrimSpace(c.Data.File) == "" {
		return fmt.Errorf("data file path must be set")
	}

	if len([]rune(c.Data.Delimiter)) != 1 {
		return fmt.Errorf("data delimiter must be a single character, got %q", c.Data.Delimiter)
	}

	if c.Geo.Timeout <= 0 {
		return fmt.Errorf("geo timeout must be positive")
	}

	// Logs are always JSON
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  45 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Data: DataConfig{
			File:      DefaultDataFile,
			Delimiter: ",",
		},
		Geo: GeoConfig{
			BoundariesURL: DefaultBoundariesURL,
			Timeout:       DefaultGeoTimeout,
			CenterLat:     MapCenterLat,
			CenterLon:     MapCenterLon,
			Zoom:          MapZoom,
			FeatureIDKey:  "id",
		},
		Export: ExportConfig{
			CSVFileName:  ExportCSVFileName,
			XLSXFileName: ExportXLSXFileName,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
			MaxMessageSize:  64 * 1024,
		},
	}
}
