// Package simplemedia implements a media lifecycle and transformation
// pipeline: uploads are admitted, deduplicated per owner by content hash,
// transformed asynchronously on a bounded worker pool, stored under a
// per-owner directory layout and served back through stable URLs.
//
// The package is storage- and database-agnostic: metadata persistence goes
// through the Repository interface (repo/memory, repo/postgres) and
// artifact bytes go through the BlobStore interface (storage/fs,
// storage/memory, storage/s3). The actual pixel processing is behind the
// Transcoder interface; the transcode package ships an image
// implementation.
package simplemedia
