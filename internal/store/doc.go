// Package store defines the persistence contracts for leads.
// Implementations live under internal/platform so the service and worker
// layers stay independent of Postgres and Redis.
package store
