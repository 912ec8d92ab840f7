// Package store persists dream records in the shared SQL database.
//
// Every method leases one connection from the pool for the duration of a
// single statement and releases it before returning. Schema bootstrap is
// idempotent (Migrate may run at every process start) and there is no
// migration framework.
//
// Table layout (DuckDB dialect):
//
//	dreams(id BIGINT PK from dreams_id_seq, user_id BIGINT, title VARCHAR,
//	       prompt VARCHAR, tags VARCHAR, likes INTEGER, created_at TIMESTAMP)
//
// The description is stored in the prompt column.
package store
