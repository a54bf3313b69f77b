// Package ingest turns uploaded images into stored blobs and metadata rows,
// and removes them again.
//
// An ingest validates the upload, reads its dimensions, and renders the
// thumbnail before anything is written. It then stores the original under a
// fresh random key and the thumbnail under "thumbnails/<key>", and records
// the row in one transaction. If a write or the insert fails, the blobs
// already written are deleted, so a failed ingest leaves nothing behind. A
// key that is already recorded is retried once with a new key.
package ingest
