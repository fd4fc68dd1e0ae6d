// Package paste holds the shared text record behind a single read/write lock.
//
// Two blobs live here: an expiring one, cleared once its TTL passes without an edit,
// and a persistent one that is only ever replaced by another edit. Expiry is lazy on
// read and optionally eager through a background sweeper.
package paste
