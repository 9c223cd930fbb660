package constants

import "time"

// Service defaults
const (
	DefaultListenAddr   = ":8080"
	DefaultPipelineFile = "config-pipeline.json"
	DefaultConfigFile   = "./config/config.yaml"
	EnvPrefix           = "PIPEHTTP"
)

// Transport defaults
const (
	DefaultClientTimeout       = 30 * time.Second
	DefaultMaxIdleConnsPerHost = 32
	DefaultIdleConnTimeout     = 90 * time.Second
)

// Database Constants
const (
	// PostgreSQL defaults
	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"

	// Connection pool settings
	DefaultPostgresMaxConnections = 25
	DefaultPostgresMaxIdleConns   = 5
	DefaultSQLiteMaxConnections   = 1 // SQLite allows only one writer
	DefaultSQLiteMaxIdleConns     = 1

	DefaultRunsTable    = "pipeline_runs"
	DefaultRunListLimit = 50
	RunsSuffix          = "_pipeline_runs"
	DefaultDBFile       = "pipehttp.db"
)

// Connection pool lifetimes
const (
	DefaultMaxConnLifetime = 5 * time.Minute
	DefaultMaxIdleTime     = 1 * time.Minute
	DefaultSQLiteLifetime  = 10 * time.Minute
	DefaultSQLiteIdleTime  = 5 * time.Minute
)
