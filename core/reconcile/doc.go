// Package reconcile merges a bulk snapshot of a remote media catalog into a
// local store of canonical tracks.
//
// A reconcile call is a single sequential pass over one batch. It is
// idempotent: reconciling the same batch twice leaves the store unchanged
// after the second run. Input anomalies (duplicate ids, bad dates, odd
// durations, unknown albums or genres) never fail the call; they degrade to
// defined defaults and are reported through an Observer.
//
// # Architecture
//
// The package consists of four parts:
//
// 1. Genre classifier: SplitGenres, NormalizeGenre, UmbrellaGenre and
// ClassifyGenres turn raw genre labels into raw, normalized and umbrella
// projections. Pure functions, no I/O.
//
// 2. Identity resolver: Resolve links a record to a known album, artist and
// genre set. Artists match by exact name, falling back to the album's artist.
//
// 3. Reconciler: deduplicates (first occurrence wins), creates placeholders
// for new ids, copies fields, relinks associations, reconciles favorite flags
// and commits through a Store.
//
// 4. Progress: a Reporter receives non-decreasing fractions at a bounded
// cadence. AsyncReporter decouples a slow consumer from the reconcile loop.
//
// # Stores
//
// A Store creates placeholder tracks and commits. Stores may additionally
// implement BatchCreator and FavoriteWriter; the Reconciler upgrades to them
// when available.
//
// # Usage Example
//
//	r := reconcile.New(store, reconcile.WithObserver(obs))
//	summary, err := r.Reconcile(ctx, batch, known, existing, owner, reporter)
package reconcile
