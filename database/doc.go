// Package database wraps GORM on SQLite for the portfolio metadata store:
// connection setup with retries, pooling, transactions with panic rollback,
// query logging through the service logger, and translation of driver
// errors into AppErrors.
//
//	database:
//	  dsn: "portfolio.db"
//	  slow_query_threshold: "200ms"
//
// Schema changes are versioned SQL files applied by the migration
// subpackage.
package database
