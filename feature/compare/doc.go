// Package compare exposes criteria catalogue comparisons over HTTP.
//
// The service loads two source documents from disk or object storage,
// reconciles them by identifier and returns the report. Runs are recorded
// when a database is configured and reports can be published back to the
// bucket.
package compare
