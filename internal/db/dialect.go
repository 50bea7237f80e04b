package db

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/baiirun/tasks/internal/config"
)

// dialect captures what differs between the supported stores.
type dialect interface {
	driverName() string
	// dsn returns the connection string, either for the task database or for
	// the server itself when the database may not exist yet.
	dsn(cfg config.Config, withDatabase bool) string
	// databaseExists returns a query counting databases named by its single
	// argument, or "" when createDatabase is already idempotent.
	databaseExists() string
	// createDatabase returns the statements that create the database if absent.
	// A nil result means the store creates it implicitly.
	createDatabase(name string) []string
	createTable() string
	tableExists() string
	rebind(query string) string
	// returning reports whether inserts must use RETURNING to get the new id.
	returning() bool
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case config.DriverSQLite:
		return sqliteDialect{}, nil
	case config.DriverMySQL:
		return mysqlDialect{}, nil
	case config.DriverPostgres:
		return postgresDialect{}, nil
	}
	return nil, fmt.Errorf("unsupported database driver: %q", driver)
}

type sqliteDialect struct{}

func (sqliteDialect) driverName() string { return "sqlite" }

func (sqliteDialect) dsn(cfg config.Config, _ bool) string {
	return cfg.SQLitePath()
}

func (sqliteDialect) databaseExists() string { return "" }

func (sqliteDialect) createDatabase(string) []string { return nil }

func (sqliteDialect) createTable() string {
	return `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name VARCHAR(100) NOT NULL,
	description TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'not_started'
		CHECK (status IN ('not_started', 'in_progress', 'done')),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`
}

func (sqliteDialect) tableExists() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'tasks'`
}

func (sqliteDialect) rebind(query string) string { return query }

func (sqliteDialect) returning() bool { return false }

type mysqlDialect struct{}

func (mysqlDialect) driverName() string { return "mysql" }

func (mysqlDialect) dsn(cfg config.Config, withDatabase bool) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.ParseTime = true
	// Report matched rather than changed rows so re-applying a status is not "not found".
	mc.ClientFoundRows = true
	if withDatabase {
		mc.DBName = cfg.Database
	}
	return mc.FormatDSN()
}

func (mysqlDialect) databaseExists() string { return "" }

func (mysqlDialect) createDatabase(name string) []string {
	// name is validated by config.Validate; backticks cannot appear in it.
	return []string{"CREATE DATABASE IF NOT EXISTS `" + name + "`"}
}

func (mysqlDialect) createTable() string {
	return `
CREATE TABLE IF NOT EXISTS tasks (
	id INT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	description TEXT NOT NULL,
	status ENUM('not_started', 'in_progress', 'done') NOT NULL DEFAULT 'not_started',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`
}

func (mysqlDialect) tableExists() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = 'tasks'`
}

func (mysqlDialect) rebind(query string) string { return query }

func (mysqlDialect) returning() bool { return false }

type postgresDialect struct{}

func (postgresDialect) driverName() string { return "postgres" }

func (postgresDialect) dsn(cfg config.Config, withDatabase bool) string {
	dbname := "postgres"
	if withDatabase {
		dbname = cfg.Database
	}
	return fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=%s",
		quoteValue(cfg.User), quoteValue(cfg.Password), quoteValue(dbname),
		quoteValue(cfg.Host), quoteValue(cfg.Port), quoteValue(cfg.SSLMode))
}

func (postgresDialect) databaseExists() string {
	return `SELECT COUNT(*) FROM pg_database WHERE datname = $1`
}

func (postgresDialect) createDatabase(name string) []string {
	// Postgres has no CREATE DATABASE IF NOT EXISTS; EnsureSchema checks
	// pg_database first and only runs this when the database is missing.
	return []string{"CREATE DATABASE " + pq.QuoteIdentifier(name)}
}

func (postgresDialect) createTable() string {
	return `
CREATE TABLE IF NOT EXISTS tasks (
	id SERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	description TEXT NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'not_started'
		CHECK (status IN ('not_started', 'in_progress', 'done')),
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`
}

func (postgresDialect) tableExists() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = 'tasks'`
}

// rebind turns ? placeholders into $1, $2, ...
func (postgresDialect) rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) returning() bool { return true }

// quoteValue quotes a key/value connection parameter for lib/pq.
func quoteValue(v string) string {
	if v == "" {
		return "''"
	}
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
