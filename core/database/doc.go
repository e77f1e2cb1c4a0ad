// Package database handles connections to the target database and schema
// inspection.
//
// It wraps GORM to configure MySQL connections for batch sync runs. The
// inspector retrieves table columns in a dialect-aware way (MySQL and the
// SQLite used in tests) so the versioned-table layer can verify that an
// existing target carries the id/valid_from/valid_to system columns before
// any run mutates it.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("database connection failed", zap.Error(err))
//	}
package database
