// Package config loads the application configuration.
//
// Values come from struct tag defaults, an optional config.yaml, an optional
// .env file and the environment, in increasing order of precedence.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key and request body limit
//   - Storage: S3/MinIO credentials and the bucket holding source documents
//   - Log: logging level and format
//   - Database: optional run history database (sqlite or mysql)
//   - Compare: default sources, labels, field allowlist and ordering
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Compare.SourceA)
package config
