package reconcile

import (
	"errors"
	"time"
)

// ErrMissingExternalID is returned when an incoming record carries no external id.
// This is a caller bug; the batch is rejected before the store is touched.
var ErrMissingExternalID = errors.New("incoming record has no external id")

// IncomingRecord is one remote track as delivered by the catalog snapshot.
type IncomingRecord struct {
	// ID is the external id assigned by the remote source.
	ID string `json:"Id"`

	// Name is the display title.
	Name string `json:"Name"`

	// AlbumID is the external id of the owning album, if any.
	AlbumID string `json:"AlbumId"`

	// Artists lists artist display names; the first one is authoritative.
	Artists []string `json:"Artists"`

	// Genres holds raw genre labels, possibly composite ("Rock/Pop").
	Genres []string `json:"Genres"`

	// RunTimeTicks is the duration in ticks (10,000,000 per second).
	RunTimeTicks int64 `json:"RunTimeTicks"`

	// IndexNumber is the track number within the album.
	IndexNumber int `json:"IndexNumber"`

	// ParentIndexNumber is the disc number.
	ParentIndexNumber int `json:"ParentIndexNumber"`

	// PlayCount is the remote play count.
	PlayCount int `json:"PlayCount"`

	// IsFavorite is the remote favorite flag.
	IsFavorite bool `json:"IsFavorite"`

	// Container is the container/format string (e.g., "flac").
	Container string `json:"Container"`

	// DateCreated is an ISO-8601 timestamp, with or without fractional seconds.
	DateCreated string `json:"DateCreated"`
}

// Owner is the media source (server) a track belongs to.
type Owner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Artist is a known artist entity.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is a known album entity. Artist may be nil.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Artist *Artist `json:"artist,omitempty"`
}

// Genre is a known genre entity keyed by its normalized name.
type Genre struct {
	// Key is the normalized name (see NormalizeGenre).
	Key string `json:"key"`

	// Name is the display name.
	Name string `json:"name"`
}

// Track is the canonical, persisted representation of a remote track.
// Handles returned by a Store are mutated in place by the Reconciler.
type Track struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Duration    float64    `json:"duration"`
	TrackNumber int        `json:"track_number"`
	DiscNumber  int        `json:"disc_number"`
	Favorite    bool       `json:"favorite"`
	PlayCount   int        `json:"play_count"`
	Container   string     `json:"container"`
	DateAdded   *time.Time `json:"date_added,omitempty"`

	RawGenres        []string `json:"raw_genres"`
	NormalizedGenres []string `json:"normalized_genres"`
	UmbrellaGenres   []string `json:"umbrella_genres"`

	Album  *Album   `json:"album,omitempty"`
	Artist *Artist  `json:"artist,omitempty"`
	Genres []*Genre `json:"genres"`
	Owner  *Owner   `json:"owner,omitempty"`
}

// Known bundles the entities resolved by the ingestion phase.
type Known struct {
	// Albums is indexed by external id.
	Albums map[string]*Album

	// Artists is scanned linearly by display name, first match wins.
	Artists []*Artist

	// Genres is indexed by normalized key.
	Genres map[string]*Genre
}

// Summary provides aggregate counts for one reconcile call.
type Summary struct {
	// Received is the batch size before deduplication.
	Received int `json:"received"`

	// Duplicates counts dropped records that repeated an earlier external id.
	Duplicates int `json:"duplicates"`

	// Created counts placeholder tracks created for unseen ids.
	Created int `json:"created"`

	// Updated counts tracks that already existed before the call.
	Updated int `json:"updated"`

	// FavoriteChanges counts tracks whose stored favorite flag differed from remote.
	FavoriteChanges int `json:"favorite_changes"`

	// UnknownGenre counts tracks linked only to the Unknown genre.
	UnknownGenre int `json:"unknown_genre"`

	// UnresolvedAlbums counts records whose album id did not match a known album.
	UnresolvedAlbums int `json:"unresolved_albums"`

	// UnparsableDates counts non-empty date strings that could not be parsed.
	UnparsableDates int `json:"unparsable_dates"`

	// ClampedDurations counts durations coerced to zero.
	ClampedDurations int `json:"clamped_durations"`
}
