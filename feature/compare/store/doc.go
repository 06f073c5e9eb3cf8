// Package store persists comparison runs through GORM.
//
// Each run keeps the source names, the report counters and the full report
// JSON in the compare_runs table.
package store
