// Package models defines the GORM models of the local library.
//
// Artists, albums, tracks and track-genre links are scoped by server id, so
// external ids only need to be unique within one remote server. Genres are
// shared across servers and keyed by their normalized name.
package models
