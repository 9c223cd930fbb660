package main

import (
	"github.com/DaianCosta/pipehttp"
	"github.com/DaianCosta/pipehttp/internal/constants"
	"github.com/DaianCosta/pipehttp/internal/util"
)

// StoreFactory handles the creation of store configurations using appropriate builders
type StoreFactory struct{}

// NewStoreFactory creates a new store factory
func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

// CreateStoreConfig returns nil when run history is disabled or no type is set.
func (f *StoreFactory) CreateStoreConfig(config StoreConfig) *pipehttp.StoreConfig {
	if config.Disabled {
		return nil
	}
	stType := util.TrimAndLower(config.Type)
	if stType == "" {
		return nil
	}

	tables := NewTableNameBuilder(config.TablePrefix, config.TableRuns).Build()

	if stType == pipehttp.DriverPostgresql || stType == "postgres" {
		pg := config.Postgres
		return &pipehttp.StoreConfig{
			Driver:       pipehttp.DriverPostgresql,
			TableNames:   tables,
			DriverConfig: &pg,
			SaveResults:  config.SaveResults,
		}
	}

	// Default to SQLite
	path := util.TrimWithDefault(config.SQLite.Path, constants.DefaultDBFile)
	return &pipehttp.StoreConfig{
		Driver:       pipehttp.DriverSqlite,
		TableNames:   tables,
		DriverConfig: &pipehttp.SqliteConfig{Path: path},
		SaveResults:  config.SaveResults,
	}
}

// TableNameBuilder handles the construction of table names for the store
type TableNameBuilder struct {
	prefix string
	runs   string
}

// NewTableNameBuilder creates a new table name builder with the given configuration
func NewTableNameBuilder(prefix, runs string) *TableNameBuilder {
	return &TableNameBuilder{prefix: prefix, runs: runs}
}

// Build applies the prefix only when no explicit table name is set.
func (b *TableNameBuilder) Build() pipehttp.StoreTables {
	fields := util.TrimSpaceFields(b.prefix, b.runs)
	prefix, runs := fields[0], fields[1]
	if runs == "" && prefix != "" {
		runs = prefix + constants.RunsSuffix
	}
	return pipehttp.StoreTables{PipelineRuns: runs}
}
