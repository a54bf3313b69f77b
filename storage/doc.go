// Package storage abstracts where image bytes live.
//
// A Storage stores opaque blobs under string keys. Originals are stored at
// "<key>" and thumbnails at "thumbnails/<key>". Storage knows nothing about
// image metadata; the ingest pipeline is its only writer.
//
// # Backends
//
//   - storage/local: a directory on disk, served under /uploads
//   - storage/s3: Amazon S3 or an S3-compatible service
//   - storage/memory: in-memory map with fault injection, for tests
//
// The backend is chosen once at startup by New: S3 when an access key,
// secret key and bucket are all configured, the local directory otherwise.
//
//	storage:
//	  local:
//	    base_path: "uploads"
//	  s3:
//	    bucket: "portfolio-images"
//	    region: "eu-west-1"
package storage
