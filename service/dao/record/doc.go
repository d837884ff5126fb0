// Package record groups the stores of finished process records: memory,
// afs backed JSON files and SQLite.
package record
