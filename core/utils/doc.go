// Package utils provides small helpers shared by the CLI and the HTTP layer,
// such as parsing comma separated configuration values.
package utils
