package library

import "errors"

var (
	// ErrSyncInProgress is returned when another sync holds the server's lock.
	ErrSyncInProgress = errors.New("a sync is already running for this server")

	// ErrTrackNotFound is returned when a track id is unknown on the server.
	ErrTrackNotFound = errors.New("track not found")

	// ErrSnapshotNotFound is returned when no snapshot object matches.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidSnapshot is returned when a snapshot cannot be decoded.
	ErrInvalidSnapshot = errors.New("invalid catalog snapshot")
)
