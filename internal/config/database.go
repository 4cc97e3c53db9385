package config

import "time"

type SupportedDatabase string

const (
	DatabaseMySQL    SupportedDatabase = "mysql"
	DatabaseMsSQL    SupportedDatabase = "mssql"
	DatabasePostgres SupportedDatabase = "postgres"
	DatabaseSQLite   SupportedDatabase = "sqlite"
)

// DatabaseConfig contains the configuration for the event journal database.
type DatabaseConfig struct {
	// Debug enables logging of all database statements.
	Debug bool `yaml:"debug"`
	// SlowQueryThreshold enables logging of queries that take longer than the
	// given duration. A value of 0 disables slow query logging.
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"`
	// Type is the database type. Supported: mysql, mssql, postgres, sqlite.
	Type SupportedDatabase `yaml:"type" validate:"oneof=mysql mssql postgres sqlite"`
	// DSN is the database connection string. For SQLite it is the path to the
	// database file, for the other systems it is a connection string as
	// described at https://gorm.io/docs/connecting_to_the_database.html
	DSN string `yaml:"dsn" validate:"required"`
}
