// Package library persists reconciled catalogs with GORM and exposes syncs
// over HTTP.
//
// A sync runs in three phases under a per-server lock: the snapshot's
// artists, albums and genres are upserted by the Repository, the known
// index is (re)loaded through a TTL cache, and the reconcile engine merges
// the items into a Store that writes only changed rows in one transaction.
//
// Snapshots are JSON documents shaped like a media server's item export,
// read from a request body, a local file or a bucket object.
package library
