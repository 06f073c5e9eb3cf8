// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so source documents can be read from, and
// reports published to, AWS S3 or a self-hosted MinIO instance.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Helpers
//
//   - ReadObject: downloads a whole object (e.g. a source JSON document).
//   - WriteObject: uploads a byte slice (e.g. a reconciliation report).
//   - ListKeys: lists object keys under a prefix filtered by extension.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	data, err := storage.ReadObject(ctx, client, "catalogues", "wcag/w3c.json")
package storage
