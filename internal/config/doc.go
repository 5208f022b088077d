// Package config handles configuration loading, parsing, and validation
// from a local .env file, an optional config.yaml and LEADFLOW_-prefixed
// environment variables. It keeps configuration details separate from
// business logic.
package config
