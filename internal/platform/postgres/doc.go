// Package postgres implements the store interfaces on PostgreSQL using the
// pgx stdlib driver. It owns the translation of driver-level failures into
// the store's closed error kinds and the bounded retry of transient ones.
package postgres
