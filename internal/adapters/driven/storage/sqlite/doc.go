// Package sqlite provides the persistent storage adapter. A single
// database file carries the three collections: documents, annotation
// metadata and audio blobs, with schema migrations embedded at compile
// time.
package sqlite
