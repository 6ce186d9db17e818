package library

import (
	"context"
	"errors"
	"fmt"

	"catalog-sync/core/reconcile"
	"catalog-sync/feature/library/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads and seeds the library tables shared by every sync.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository over db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AutoMigrate creates or updates the library tables.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate library tables: %w", err)
	}
	return nil
}

// LoadIndex loads the albums and artists of one server and every genre.
// It implements reconcile.IndexLoader.
func (r *Repository) LoadIndex(ctx context.Context, serverID string) (*reconcile.Known, error) {
	db := r.db.WithContext(ctx)

	var artists []models.Artist
	if err := db.Where("server_id = ?", serverID).Order("id").Find(&artists).Error; err != nil {
		return nil, fmt.Errorf("failed to load artists: %w", err)
	}

	var albums []models.Album
	if err := db.Where("server_id = ?", serverID).Find(&albums).Error; err != nil {
		return nil, fmt.Errorf("failed to load albums: %w", err)
	}

	var genres []models.Genre
	if err := db.Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("failed to load genres: %w", err)
	}

	known := &reconcile.Known{
		Albums:  make(map[string]*reconcile.Album, len(albums)),
		Artists: make([]*reconcile.Artist, 0, len(artists)),
		Genres:  make(map[string]*reconcile.Genre, len(genres)+1),
	}

	byID := make(map[string]*reconcile.Artist, len(artists))
	for _, a := range artists {
		artist := &reconcile.Artist{ID: a.ID, Name: a.Name}
		known.Artists = append(known.Artists, artist)
		byID[a.ID] = artist
	}

	for _, a := range albums {
		album := &reconcile.Album{ID: a.ID, Name: a.Name}
		if a.ArtistID != nil {
			album.Artist = byID[*a.ArtistID]
		}
		known.Albums[a.ID] = album
	}

	for _, g := range genres {
		known.Genres[g.Key] = &reconcile.Genre{Key: g.Key, Name: g.Name}
	}

	return known, nil
}

// Ingest upserts the server and any artists, albums and genres of the snapshot
// that known does not already hold unchanged. It returns the number of entity
// rows written; zero means known is still current.
func (r *Repository) Ingest(ctx context.Context, owner reconcile.Owner, snap *Snapshot, known *reconcile.Known) (int, error) {
	if known == nil {
		known = &reconcile.Known{}
	}

	artists := changedArtists(owner.ID, snap.Artists, known)
	albums := changedAlbums(owner.ID, snap.Albums, snap.Artists, known)
	genres := missingGenres(snap.Items, known)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		server := models.Server{ID: owner.ID, Name: owner.Name}
		if err := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
			}).
			Create(&server).
			Error; err != nil {
			return fmt.Errorf("error upserting server '%s': %w", owner.ID, err)
		}

		if len(artists) > 0 {
			if err := tx.
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "server_id"}, {Name: "id"}},
					DoUpdates: clause.AssignmentColumns([]string{"name"}),
				}).
				CreateInBatches(artists, ingestBatchSize).
				Error; err != nil {
				return fmt.Errorf("error upserting artists: %w", err)
			}
		}

		if len(albums) > 0 {
			if err := tx.
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "server_id"}, {Name: "id"}},
					DoUpdates: clause.AssignmentColumns([]string{"name", "artist_id"}),
				}).
				CreateInBatches(albums, ingestBatchSize).
				Error; err != nil {
				return fmt.Errorf("error upserting albums: %w", err)
			}
		}

		if len(genres) > 0 {
			if err := tx.
				Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(genres, ingestBatchSize).
				Error; err != nil {
				return fmt.Errorf("error inserting genres: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(artists) + len(albums) + len(genres), nil
}

const ingestBatchSize = 500

func changedArtists(serverID string, remote []RemoteArtist, known *reconcile.Known) []models.Artist {
	current := make(map[string]string, len(known.Artists))
	for _, a := range known.Artists {
		current[a.ID] = a.Name
	}

	seen := make(map[string]struct{}, len(remote))
	var out []models.Artist
	for _, a := range remote {
		if a.ID == "" {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}

		if name, ok := current[a.ID]; ok && name == a.Name {
			continue
		}
		out = append(out, models.Artist{ServerID: serverID, ID: a.ID, Name: a.Name})
	}
	return out
}

func changedAlbums(serverID string, remote []RemoteAlbum, artists []RemoteArtist, known *reconcile.Known) []models.Album {
	// Artist names resolve to ids from the snapshot first, then from known.
	nameToID := make(map[string]string)
	for _, a := range known.Artists {
		if _, ok := nameToID[a.Name]; !ok {
			nameToID[a.Name] = a.ID
		}
	}
	for _, a := range artists {
		if a.ID != "" && a.Name != "" {
			nameToID[a.Name] = a.ID
		}
	}

	seen := make(map[string]struct{}, len(remote))
	var out []models.Album
	for _, a := range remote {
		if a.ID == "" {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}

		artistID := a.ArtistID
		if artistID == "" && a.ArtistName != "" {
			artistID = nameToID[a.ArtistName]
		}

		if cur, ok := known.Albums[a.ID]; ok && cur.Name == a.Name && albumArtistID(cur) == artistID {
			continue
		}

		row := models.Album{ServerID: serverID, ID: a.ID, Name: a.Name}
		if artistID != "" {
			id := artistID
			row.ArtistID = &id
		}
		out = append(out, row)
	}
	return out
}

func albumArtistID(a *reconcile.Album) string {
	if a.Artist == nil {
		return ""
	}
	return a.Artist.ID
}

// missingGenres derives genre rows from the labels and umbrella categories of
// every record. The first spelling seen becomes the display name.
func missingGenres(items []reconcile.IncomingRecord, known *reconcile.Known) []models.Genre {
	seen := make(map[string]struct{})
	var out []models.Genre

	add := func(key, name string) {
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		if _, ok := known.Genres[key]; ok {
			return
		}
		out = append(out, models.Genre{Key: key, Name: name})
	}

	add(reconcile.UnknownGenreKey, reconcile.UnknownGenreName)
	for _, rec := range items {
		for _, fragment := range reconcile.SplitGenres(rec.Genres) {
			key := reconcile.NormalizeGenre(fragment)
			add(key, fragment)
			if umbrella, ok := reconcile.UmbrellaGenre(key); ok {
				add(reconcile.NormalizeGenre(umbrella), umbrella)
			}
		}
	}
	return out
}

// FindTrack returns one stored track with its album, artist and genres.
func (r *Repository) FindTrack(ctx context.Context, serverID, trackID string) (*TrackView, error) {
	db := r.db.WithContext(ctx)

	var row models.Track
	err := db.Where("server_id = ? AND id = ?", serverID, trackID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s/%s: %w", serverID, trackID, ErrTrackNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load track: %w", err)
	}

	view := &TrackView{Track: row}

	if row.AlbumID != nil {
		var album models.Album
		if err := db.Where("server_id = ? AND id = ?", serverID, *row.AlbumID).Limit(1).Find(&album).Error; err != nil {
			return nil, fmt.Errorf("failed to load album: %w", err)
		}
		if album.ID != "" {
			view.Album = album.Name
		}
	}

	if row.ArtistID != nil {
		var artist models.Artist
		if err := db.Where("server_id = ? AND id = ?", serverID, *row.ArtistID).Limit(1).Find(&artist).Error; err != nil {
			return nil, fmt.Errorf("failed to load artist: %w", err)
		}
		if artist.ID != "" {
			view.Artist = artist.Name
		}
	}

	if err := db.
		Table("track_genres").
		Select("genres.name").
		Joins("JOIN genres ON genres.genre_key = track_genres.genre_key").
		Where("track_genres.server_id = ? AND track_genres.track_id = ?", serverID, trackID).
		Order("track_genres.position").
		Pluck("genres.name", &view.Genres).
		Error; err != nil {
		return nil, fmt.Errorf("failed to load genres: %w", err)
	}

	return view, nil
}

// TrackView is a stored track with its associations resolved to display names.
type TrackView struct {
	models.Track
	Album  string   `json:"album,omitempty"`
	Artist string   `json:"artist,omitempty"`
	Genres []string `json:"genres"`
}
