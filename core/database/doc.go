// Package database handles database connections and schema inspection.
//
// It wraps GORM to open MySQL or SQLite connections from the application's
// configuration. The database is optional: it only stores the history of
// reconciliation runs.
//
// # Connect
//
// Connect opens the configured driver, sets pool limits and pings the
// database with the configured timeout.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read the live table definition so
// callers can verify a migration produced the expected columns.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "compare_runs", "id", "report")
package database
