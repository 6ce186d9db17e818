package reconcile

import "context"

// Store is the persistence collaborator of the Reconciler.
// Handles returned by CreateTrack must be readable and writable until Commit,
// and Commit must persist every handle the store has handed out or loaded.
type Store interface {
	// CreateTrack returns a new placeholder track with the given external id.
	CreateTrack(ctx context.Context, id string) (*Track, error)

	// Commit persists all pending changes.
	Commit(ctx context.Context) error
}

// BatchCreator is implemented by stores that can create many placeholders at once.
// The Reconciler prefers it over repeated CreateTrack calls.
type BatchCreator interface {
	CreateTracks(ctx context.Context, ids []string) ([]*Track, error)
}

// FavoriteWriter is implemented by stores that write favorite flags in bulk.
// It receives only the tracks whose stored flag differs from the remote value.
type FavoriteWriter interface {
	SetFavorites(ctx context.Context, favorites map[string]bool) error
}
