// Package postgres provides PostgreSQL-specific implementations for the
// lead and task storage interfaces, together with the embedded goose
// migrations that create their schema. All stores accept a store.DBTX and
// are used through the pgx database/sql driver.
package postgres
