// Package source reads the documents a comparison runs on.
//
// A source is either a local file or an object in the configured bucket.
// Documents are decoded from JSON or YAML into the raw shape the reconcile
// engine indexes.
package source
