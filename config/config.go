package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no config path is given
const DefaultPath = "config.yaml"

// EnvConfigPath overrides the default config path
const EnvConfigPath = "IRRIGATION_AUDIT_CONFIG"

// DatabaseConfig holds all database configuration
type DatabaseConfig struct {
	Driver         string         `yaml:"driver"`
	MySQL          MySQLConfig    `yaml:"mysql"`
	PostgreSQL     PostgresConfig `yaml:"postgres"`
	SQLite         SQLiteConfig   `yaml:"sqlite"`
	ConnectionPool PoolConfig     `yaml:"connection_pool"`
}

// MySQLConfig holds MySQL specific configuration
type MySQLConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	DBName    string `yaml:"dbname"`
	Charset   string `yaml:"charset"`
	ParseTime bool   `yaml:"parse_time"`
	Loc       string `yaml:"loc"`
}

// PostgresConfig holds PostgreSQL specific configuration
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	TimeZone string `yaml:"timezone"`
}

// SQLiteConfig holds SQLite specific configuration
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PoolConfig holds connection pool configuration
type PoolConfig struct {
	MaxIdleConns    int `yaml:"max_idle_conns"`
	MaxOpenConns    int `yaml:"max_open_conns"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime"`
}

// MigrationConfig holds migration specific configuration
type MigrationConfig struct {
	AutoMigrate    bool   `yaml:"auto_migrate"`
	MigrationTable string `yaml:"migration_table"`
	Directory      string `yaml:"directory"`
}

// LoggingConfig holds logging specific configuration.
// An empty LogFile disables file logging.
type LoggingConfig struct {
	LogFile      string `yaml:"log_file"`
	LogToConsole bool   `yaml:"log_to_console"`
	LogLevel     string `yaml:"log_level"`
}

// ColumnConfig names the header keys of the metering file
type ColumnConfig struct {
	SubscriberID string `yaml:"subscriber_id"`
	Timestamp    string `yaml:"timestamp"`
	CurrentL1    string `yaml:"current_l1"`
	CurrentL2    string `yaml:"current_l2"`
	CurrentL3    string `yaml:"current_l3"`
	VoltageL1    string `yaml:"voltage_l1"`
	VoltageL2    string `yaml:"voltage_l2"`
	VoltageL3    string `yaml:"voltage_l3"`
}

// InputConfig describes the metering file dialect
type InputConfig struct {
	Delimiter        string       `yaml:"delimiter"`
	DecimalSeparator string       `yaml:"decimal_separator"`
	TimestampLayout  string       `yaml:"timestamp_layout"`
	Columns          ColumnConfig `yaml:"columns"`
}

// AnalysisConfig holds the scoring constants
type AnalysisConfig struct {
	PowerFactor        float64 `yaml:"power_factor"`
	DeviationThreshold float64 `yaml:"deviation_threshold"`
}

// ReferenceConfig selects where the agronomic reference tables come from
type ReferenceConfig struct {
	Source string `yaml:"source"` // builtin, file or database
	Path   string `yaml:"path"`
}

// ReportConfig holds report output settings
type ReportConfig struct {
	Title     string `yaml:"title"`
	XLSXPath  string `yaml:"xlsx_path"`
	PDFPath   string `yaml:"pdf_path"`
	ChartPath string `yaml:"chart_path"`
}

// MetricsConfig holds metrics output settings
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Config holds the complete application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Migration MigrationConfig `yaml:"migration"`
	Logging   LoggingConfig   `yaml:"logging"`
	Input     InputConfig     `yaml:"input"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Reference ReferenceConfig `yaml:"reference"`
	Report    ReportConfig    `yaml:"report"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{Analysis: defaultAnalysis()}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from the specified YAML file.
// When configPath is empty the environment override or config.yaml is used,
// and a missing default file falls back to the built-in defaults.
func Load(configPath string) (*Config, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = os.Getenv(EnvConfigPath)
		explicit = configPath != ""
	}
	if configPath == "" {
		configPath = DefaultPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses YAML configuration data and applies defaults
func Parse(data []byte) (*Config, error) {
	// analysis keys absent from data keep these values, an explicit 0 stays 0
	config := Config{Analysis: defaultAnalysis()}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.LogLevel == "" {
		c.Logging.LogLevel = "info"
	}
	if c.Migration.MigrationTable == "" {
		c.Migration.MigrationTable = "migrations"
	}
	if c.Migration.Directory == "" {
		c.Migration.Directory = "migrations"
	}

	in := &c.Input
	if in.Delimiter == "" {
		in.Delimiter = ";"
	}
	if in.DecimalSeparator == "" {
		in.DecimalSeparator = ","
	}
	if in.TimestampLayout == "" {
		in.TimestampLayout = "02.01.2006 15:04:05"
	}
	cols := &in.Columns
	setDefault(&cols.SubscriberID, "TESİSAT_NO")
	setDefault(&cols.Timestamp, "TARİH")
	setDefault(&cols.CurrentL1, "Akım L1")
	setDefault(&cols.CurrentL2, "Akım L2")
	setDefault(&cols.CurrentL3, "Akım L3")
	setDefault(&cols.VoltageL1, "Gerilim L1")
	setDefault(&cols.VoltageL2, "Gerilim L2")
	setDefault(&cols.VoltageL3, "Gerilim L3")

	if c.Reference.Source == "" {
		c.Reference.Source = "builtin"
	}
	if c.Report.Title == "" {
		c.Report.Title = "TOPRAK - Electricity Theft Analysis Report"
	}
}

func defaultAnalysis() AnalysisConfig {
	return AnalysisConfig{PowerFactor: 0.88, DeviationThreshold: 25}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len([]rune(c.Input.Delimiter)) != 1 {
		return fmt.Errorf("input delimiter must be a single character, got %q", c.Input.Delimiter)
	}
	if c.Input.DecimalSeparator == c.Input.Delimiter {
		return fmt.Errorf("decimal separator must differ from the delimiter")
	}
	if c.Analysis.PowerFactor <= 0 || c.Analysis.PowerFactor > 1 {
		return fmt.Errorf("power factor must be greater than 0 and at most 1, got %v", c.Analysis.PowerFactor)
	}
	if c.Analysis.DeviationThreshold < 0 {
		return fmt.Errorf("deviation threshold must not be negative, got %v", c.Analysis.DeviationThreshold)
	}

	switch c.Reference.Source {
	case "builtin":
	case "file":
		if c.Reference.Path == "" {
			return fmt.Errorf("reference path is required when source is file")
		}
	case "database":
		if c.Database.Driver == "" {
			return fmt.Errorf("database driver is required when reference source is database")
		}
	default:
		return fmt.Errorf("unsupported reference source: %s", c.Reference.Source)
	}

	if c.Database.Driver != "" {
		return c.ValidateDatabase()
	}

	return nil
}

// ValidateDatabase validates the database section
func (c *Config) ValidateDatabase() error {
	switch c.Database.Driver {
	case "mysql":
		if c.Database.MySQL.Host == "" {
			return fmt.Errorf("mysql host is required")
		}
		if c.Database.MySQL.User == "" {
			return fmt.Errorf("mysql user is required")
		}
		if c.Database.MySQL.DBName == "" {
			return fmt.Errorf("mysql database name is required")
		}
	case "postgres":
		if c.Database.PostgreSQL.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Database.PostgreSQL.User == "" {
			return fmt.Errorf("postgres user is required")
		}
		if c.Database.PostgreSQL.DBName == "" {
			return fmt.Errorf("postgres database name is required")
		}
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "":
		return fmt.Errorf("database driver is not configured")
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	return nil
}

// GetDSN returns the database connection string based on the configured driver
func (c *Config) GetDSN() string {
	switch c.Database.Driver {
	case "mysql":
		mysql := c.Database.MySQL
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
			mysql.User, mysql.Password, mysql.Host, mysql.Port, mysql.DBName,
			mysql.Charset, mysql.ParseTime, mysql.Loc)
		return dsn
	case "postgres":
		pg := c.Database.PostgreSQL
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, pg.SSLMode, pg.TimeZone)
		return dsn
	case "sqlite":
		return c.Database.SQLite.Path
	default:
		return ""
	}
}
