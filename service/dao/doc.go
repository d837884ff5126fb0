// Package dao defines the generic storage contract used for live processes
// and finished process records.
package dao
