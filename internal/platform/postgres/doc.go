// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in the store package, along with the embedded schema
// migrations and shared error mapping for translating database errors into
// store sentinel errors.
package postgres
