package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Platform      PlatformConfig      `mapstructure:"platform"`
	Connector     ConnectorConfig     `mapstructure:"connector"`
	Import        ImportConfig        `mapstructure:"import"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type PlatformConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ConnectorConfig points at the accounting-backend connector service that
// refreshes destination attributes on request.
type ConnectorConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ImportConfig struct {
	ScheduleInterval time.Duration           `mapstructure:"schedule_interval"`
	Workspaces       []WorkspaceImportConfig `mapstructure:"workspaces"`
}

// WorkspaceImportConfig declares which imports one workspace runs. Sections
// left out are skipped for that workspace.
type WorkspaceImportConfig struct {
	WorkspaceID int64                  `mapstructure:"workspace_id"`
	Categories  *CategoryImportConfig  `mapstructure:"categories"`
	Tax         *TaxImportConfig       `mapstructure:"tax"`
	Merchants   *MerchantImportConfig  `mapstructure:"merchants"`
	Mappings    []MappingImportConfig  `mapstructure:"mappings"`
}

type CategoryImportConfig struct {
	DestinationField           string   `mapstructure:"destination_field"`
	DestinationSyncMethods     []string `mapstructure:"destination_sync_methods"`
	IsAutoSyncEnabled          bool     `mapstructure:"is_auto_sync_enabled"`
	Is3DMapping                bool     `mapstructure:"is_3d_mapping"`
	ChartsOfAccounts           []string `mapstructure:"charts_of_accounts"`
	UseMappingTable            bool     `mapstructure:"use_mapping_table"`
	PrependCodeToName          bool     `mapstructure:"prepend_code_to_name"`
	ImportWithoutDestinationID bool     `mapstructure:"import_without_destination_id"`
}

type TaxImportConfig struct {
	DestinationField       string   `mapstructure:"destination_field"`
	DestinationSyncMethods []string `mapstructure:"destination_sync_methods"`
}

type MerchantImportConfig struct {
	DestinationField       string   `mapstructure:"destination_field"`
	DestinationSyncMethods []string `mapstructure:"destination_sync_methods"`
	IsAutoSyncEnabled      bool     `mapstructure:"is_auto_sync_enabled"`
}

type MappingImportConfig struct {
	SourceField                string   `mapstructure:"source_field"`
	DestinationField           string   `mapstructure:"destination_field"`
	DestinationSyncMethods     []string `mapstructure:"destination_sync_methods"`
	IsCustom                   bool     `mapstructure:"is_custom"`
	IsAutoSyncEnabled          bool     `mapstructure:"is_auto_sync_enabled"`
	PrependCodeToName          bool     `mapstructure:"prepend_code_to_name"`
	ImportWithoutDestinationID bool     `mapstructure:"import_without_destination_id"`
	BillableDetailKey          string   `mapstructure:"billable_detail_key"`
	SourcePlaceholder          string   `mapstructure:"source_placeholder"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a Config from environment variables for container
// deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       60 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Source:          getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		Platform: PlatformConfig{
			BaseURL: getEnv("PLATFORM_BASE_URL", ""),
			Token:   getEnv("PLATFORM_TOKEN", ""),
			Timeout: 30 * time.Second,
		},
		Connector: ConnectorConfig{
			BaseURL: getEnv("CONNECTOR_BASE_URL", ""),
			Token:   getEnv("CONNECTOR_TOKEN", ""),
			Timeout: 120 * time.Second,
		},
		Import: ImportConfig{
			ScheduleInterval: 24 * time.Hour,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Platform.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("platform config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *PlatformConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if c.Token == "" {
		return errors.New("token is required")
	}
	return nil
}
