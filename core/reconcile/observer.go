package reconcile

// EventKind identifies an input anomaly or notable decision during a reconcile call.
type EventKind string

const (
	// EventDuplicateDropped is emitted for each record dropped by deduplication.
	EventDuplicateDropped EventKind = "duplicate_dropped"
	// EventDateUnparsable is emitted when a non-empty creation date cannot be parsed.
	EventDateUnparsable EventKind = "date_unparsable"
	// EventDurationClamped is emitted when a duration is coerced to zero.
	EventDurationClamped EventKind = "duration_clamped"
	// EventAlbumUnresolved is emitted when an album id matches no known album.
	EventAlbumUnresolved EventKind = "album_unresolved"
	// EventArtistFallback is emitted when the artist comes from the album.
	EventArtistFallback EventKind = "artist_fallback"
	// EventUnknownGenre is emitted when a track links only to the Unknown genre.
	EventUnknownGenre EventKind = "unknown_genre"
	// EventFavoriteChanged is emitted for each stored favorite flag that differs from remote.
	EventFavoriteChanged EventKind = "favorite_changed"
)

// Event is a structured observation from the reconciler.
type Event struct {
	Kind    EventKind
	TrackID string
	// Value carries the offending input (raw date, album id, tick count...).
	Value string
}

// Observer is the injected event sink. Implementations must not block for long.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

// NopObserver discards events.
type NopObserver struct{}

// Observe does nothing.
func (NopObserver) Observe(Event) {}
