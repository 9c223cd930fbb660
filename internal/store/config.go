package store

import (
	"github.com/DaianCosta/pipehttp/internal/store/postgresql"
	"github.com/DaianCosta/pipehttp/internal/store/sqlite"
)

const (
	DriverSqlite     = "sqlite"
	DriverPostgresql = "postgresql"
)

// Config selects the driver and the table that receives run records.
type Config struct {
	Driver       string `mapstructure:"driver"`
	TableNames   TableNames
	DriverConfig DriverConfig
	// SaveResults stores the full Run Output next to each record.
	SaveResults bool
	// WritePolicy overrides DefaultWritePolicy for RecordRun.
	WritePolicy *WritePolicy
}

type DriverConfig interface {
	ToMap() map[string]interface{}
}

// TableNames represents database table names
type TableNames struct {
	PipelineRuns string
}

type (
	SqliteConfig   = sqlite.Config
	PostgresConfig = postgresql.Config
)
