// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure MySQL or SQLite connections
// from the application's configuration.
//
// # Connect
//
// Connect opens the configured driver, tunes the connection pool and pings the
// database. SQLite is limited to a single open connection, which keeps
// ":memory:" databases usable from tests.
//
// # Schema Inspection
//
// GetTableColumns reads live column definitions (SHOW COLUMNS on MySQL, PRAGMA
// table_info on SQLite). The integrity feature compares them with the library
// models.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "tracks")
package database
