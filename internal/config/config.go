// Package config holds the store location and credentials for the tasks CLI.
//
// Values come from config.Default, then an optional dotenv file, then
// TASKS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// databaseName is the only identifier that ever ends up interpolated into SQL.
var databaseName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

type Config struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string // postgres only

	// DataDir holds the sqlite file and the default log file.
	DataDir string
	LogFile string
}

// Default returns a sqlite configuration rooted at ~/.tasks.
func Default() Config {
	dataDir := ".tasks"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".tasks")
	}
	return Config{
		Driver:   DriverSQLite,
		Host:     "localhost",
		User:     "root",
		Database: "tasks",
		SSLMode:  "disable",
		DataDir:  dataDir,
	}
}

// Load builds a Config from defaults, envFile (if it exists) and the environment.
// Variables already present in the environment win over the dotenv file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	override(&cfg.Driver, "TASKS_DB_DRIVER")
	override(&cfg.Host, "TASKS_DB_HOST")
	override(&cfg.Port, "TASKS_DB_PORT")
	override(&cfg.User, "TASKS_DB_USER")
	override(&cfg.Password, "TASKS_DB_PASSWORD")
	override(&cfg.Database, "TASKS_DB_NAME")
	override(&cfg.SSLMode, "TASKS_DB_SSLMODE")
	override(&cfg.DataDir, "TASKS_DATA_DIR")
	override(&cfg.LogFile, "TASKS_LOG_FILE")

	if cfg.Port == "" {
		cfg.Port = defaultPort(cfg.Driver)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "tasks.log")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func override(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func defaultPort(driver string) string {
	switch driver {
	case DriverMySQL:
		return "3306"
	case DriverPostgres:
		return "5432"
	}
	return ""
}

// Validate checks the driver and the database name.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver: %q (want sqlite, mysql or postgres)", c.Driver)
	}
	if !databaseName.MatchString(c.Database) {
		return fmt.Errorf("invalid database name: %q (letters, digits and underscores only)", c.Database)
	}
	if c.Driver == DriverSQLite && c.DataDir == "" {
		return errors.New("data directory is required for sqlite")
	}
	return nil
}

// SQLitePath returns the database file used by the sqlite driver.
func (c Config) SQLitePath() string {
	return filepath.Join(c.DataDir, c.Database+".db")
}
