// Package config loads the portfolio configuration.
//
// Values come from, in increasing precedence, a config.yml file, a .env
// file and the process environment. Environment variables map to nested
// keys by underscores, so STORAGE_S3_BUCKET sets storage.s3.bucket and
// ADMIN_PASSWORD_HASH sets admin.password_hash. Older deployment names
// (AWS_ACCESS_KEY_ID, S3_BUCKET_NAME, SECRET_KEY, ...) are honored when
// the canonical variable is unset.
//
// # Usage
//
//	cfg, err := config.Load(config.WithConfigFile("config.yml"))
package config
