// Package postgres implements the lifecycle store interfaces against
// PostgreSQL via database/sql and lib/pq.
package postgres
