package library

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"catalog-sync/core/reconcile"
	"catalog-sync/feature/library/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const commitBatchSize = 500

// trackUpdateColumns are overwritten when an existing track row is upserted.
// is_favorite is written separately by the favorite pass.
var trackUpdateColumns = []string{
	"title", "duration", "track_number", "disc_number", "play_count", "container",
	"date_added", "raw_genres", "normalized_genres", "umbrella_genres",
	"album_id", "artist_id", "updated_at",
}

// Store is the GORM-backed reconcile store for one server and one sync.
// It hands out in-memory track handles and writes only the rows whose
// content differs from what was loaded.
type Store struct {
	db    *gorm.DB
	owner reconcile.Owner

	tracks    map[string]*reconcile.Track
	baseline  map[string]models.Track
	links     map[string][]string
	favorites map[string]bool
}

var (
	_ reconcile.Store          = (*Store)(nil)
	_ reconcile.BatchCreator   = (*Store)(nil)
	_ reconcile.FavoriteWriter = (*Store)(nil)
)

// NewStore creates a store for the tracks of owner.
func NewStore(db *gorm.DB, owner reconcile.Owner) *Store {
	return &Store{
		db:        db,
		owner:     owner,
		tracks:    make(map[string]*reconcile.Track),
		baseline:  make(map[string]models.Track),
		links:     make(map[string][]string),
		favorites: make(map[string]bool),
	}
}

// LoadTracks reads every stored track of the owner and returns handles keyed
// by external id. Associations point into known where possible.
func (s *Store) LoadTracks(ctx context.Context, known *reconcile.Known) (map[string]*reconcile.Track, error) {
	db := s.db.WithContext(ctx)

	var rows []models.Track
	if err := db.Where("server_id = ?", s.owner.ID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	var links []models.TrackGenre
	if err := db.
		Where("server_id = ?", s.owner.ID).
		Order("track_id").
		Order("position").
		Find(&links).
		Error; err != nil {
		return nil, fmt.Errorf("failed to load track genres: %w", err)
	}

	keys := make(map[string][]string, len(rows))
	for _, l := range links {
		keys[l.TrackID] = append(keys[l.TrackID], l.GenreKey)
	}

	idx := newHandleIndex(known)
	out := make(map[string]*reconcile.Track, len(rows))
	for _, row := range rows {
		t := &reconcile.Track{
			ID:               row.ID,
			Title:            row.Title,
			Duration:         row.Duration,
			TrackNumber:      row.TrackNumber,
			DiscNumber:       row.DiscNumber,
			Favorite:         row.Favorite,
			PlayCount:        row.PlayCount,
			Container:        row.Container,
			DateAdded:        row.DateAdded,
			RawGenres:        row.RawGenres,
			NormalizedGenres: row.NormalizedGenres,
			UmbrellaGenres:   row.UmbrellaGenres,
			Album:            idx.album(row.AlbumID),
			Artist:           idx.artist(row.ArtistID),
			Genres:           idx.genres(keys[row.ID]),
			Owner:            &s.owner,
		}

		s.tracks[row.ID] = t
		s.baseline[row.ID] = row
		s.links[row.ID] = keys[row.ID]
		out[row.ID] = t
	}

	return out, nil
}

// CreateTrack returns a new placeholder handle. Nothing is written until Commit.
func (s *Store) CreateTrack(_ context.Context, id string) (*reconcile.Track, error) {
	if id == "" {
		return nil, reconcile.ErrMissingExternalID
	}
	t := &reconcile.Track{ID: id, Owner: &s.owner}
	s.tracks[id] = t
	return t, nil
}

// CreateTracks returns placeholder handles for ids, in order.
func (s *Store) CreateTracks(ctx context.Context, ids []string) ([]*reconcile.Track, error) {
	out := make([]*reconcile.Track, 0, len(ids))
	for _, id := range ids {
		t, err := s.CreateTrack(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// SetFavorites records favorite flags to write on the next Commit.
func (s *Store) SetFavorites(_ context.Context, favorites map[string]bool) error {
	for id, v := range favorites {
		s.favorites[id] = v
	}
	return nil
}

// Commit writes new and changed tracks, their genre links and the pending
// favorite flags in a single transaction.
func (s *Store) Commit(ctx context.Context) error {
	ids := make([]string, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var rows []models.Track
	var relinked []string
	var links []models.TrackGenre
	pending := make(map[string][]string)

	for _, id := range ids {
		t := s.tracks[id]
		row := s.toRow(t)

		base, loaded := s.baseline[id]
		if !loaded || !sameTrack(base, row) {
			rows = append(rows, row)
		}

		keys := genreKeys(t.Genres)
		if !loaded && len(keys) == 0 {
			continue
		}
		if !slices.Equal(keys, s.links[id]) {
			relinked = append(relinked, id)
			pending[id] = keys
			for pos, key := range keys {
				links = append(links, models.TrackGenre{
					ServerID: s.owner.ID,
					TrackID:  id,
					GenreKey: key,
					Position: pos,
				})
			}
		}
	}

	byValue := map[bool][]string{}
	for id, v := range s.favorites {
		byValue[v] = append(byValue[v], id)
	}

	if len(rows) == 0 && len(relinked) == 0 && len(byValue) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := tx.
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "server_id"}, {Name: "id"}},
					DoUpdates: clause.AssignmentColumns(trackUpdateColumns),
				}).
				CreateInBatches(&rows, commitBatchSize).
				Error; err != nil {
				return fmt.Errorf("error upserting tracks: %w", err)
			}
		}

		for chunk := range slices.Chunk(relinked, commitBatchSize) {
			if err := tx.
				Where("server_id = ? AND track_id IN ?", s.owner.ID, chunk).
				Delete(&models.TrackGenre{}).
				Error; err != nil {
				return fmt.Errorf("error deleting track genres: %w", err)
			}
		}

		if len(links) > 0 {
			if err := tx.CreateInBatches(&links, commitBatchSize).Error; err != nil {
				return fmt.Errorf("error inserting track genres: %w", err)
			}
		}

		for _, value := range []bool{true, false} {
			favIDs := byValue[value]
			sort.Strings(favIDs)
			for chunk := range slices.Chunk(favIDs, commitBatchSize) {
				if err := tx.
					Model(&models.Track{}).
					Where("server_id = ? AND id IN ?", s.owner.ID, chunk).
					Update("is_favorite", value).
					Error; err != nil {
					return fmt.Errorf("error updating favorites: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, row := range rows {
		s.baseline[row.ID] = row
	}
	for id, keys := range pending {
		s.links[id] = keys
	}
	for id, v := range s.favorites {
		if base, ok := s.baseline[id]; ok {
			base.Favorite = v
			s.baseline[id] = base
		}
	}
	clear(s.favorites)
	return nil
}

func (s *Store) toRow(t *reconcile.Track) models.Track {
	row := models.Track{
		ServerID:         s.owner.ID,
		ID:               t.ID,
		Title:            t.Title,
		Duration:         t.Duration,
		TrackNumber:      t.TrackNumber,
		DiscNumber:       t.DiscNumber,
		Favorite:         t.Favorite,
		PlayCount:        t.PlayCount,
		Container:        t.Container,
		DateAdded:        t.DateAdded,
		RawGenres:        nonNil(t.RawGenres),
		NormalizedGenres: nonNil(t.NormalizedGenres),
		UmbrellaGenres:   nonNil(t.UmbrellaGenres),
	}
	if t.Album != nil && t.Album.ID != "" {
		id := t.Album.ID
		row.AlbumID = &id
	}
	if t.Artist != nil && t.Artist.ID != "" {
		id := t.Artist.ID
		row.ArtistID = &id
	}
	return row
}

// sameTrack compares the columns a reconcile can change. Favorite is left out
// because the favorite pass writes it on its own.
func sameTrack(a, b models.Track) bool {
	return a.Title == b.Title &&
		a.Duration == b.Duration &&
		a.TrackNumber == b.TrackNumber &&
		a.DiscNumber == b.DiscNumber &&
		a.PlayCount == b.PlayCount &&
		a.Container == b.Container &&
		sameTime(a.DateAdded, b.DateAdded) &&
		slices.Equal(a.RawGenres, b.RawGenres) &&
		slices.Equal(a.NormalizedGenres, b.NormalizedGenres) &&
		slices.Equal(a.UmbrellaGenres, b.UmbrellaGenres) &&
		sameRef(a.AlbumID, b.AlbumID) &&
		sameRef(a.ArtistID, b.ArtistID)
}

// sameTime compares at millisecond precision. MySQL datetime(3) rounds the
// fraction, so both sides are rounded the same way.
func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Round(time.Millisecond).Equal(b.Round(time.Millisecond))
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func genreKeys(genres []*reconcile.Genre) []string {
	var keys []string
	for _, g := range genres {
		if g != nil && g.Key != "" {
			keys = append(keys, g.Key)
		}
	}
	return keys
}

// handleIndex resolves stored ids back into the shared entities of known.
// Ids missing from known get a bare entity so the stored link is kept.
type handleIndex struct {
	known   *reconcile.Known
	artists map[string]*reconcile.Artist
}

func newHandleIndex(known *reconcile.Known) handleIndex {
	if known == nil {
		known = &reconcile.Known{}
	}
	artists := make(map[string]*reconcile.Artist, len(known.Artists))
	for _, a := range known.Artists {
		if a != nil {
			artists[a.ID] = a
		}
	}
	return handleIndex{known: known, artists: artists}
}

func (h handleIndex) album(id *string) *reconcile.Album {
	if id == nil {
		return nil
	}
	if a, ok := h.known.Albums[*id]; ok {
		return a
	}
	return &reconcile.Album{ID: *id}
}

func (h handleIndex) artist(id *string) *reconcile.Artist {
	if id == nil {
		return nil
	}
	if a, ok := h.artists[*id]; ok {
		return a
	}
	return &reconcile.Artist{ID: *id}
}

func (h handleIndex) genres(keys []string) []*reconcile.Genre {
	out := make([]*reconcile.Genre, 0, len(keys))
	for _, key := range keys {
		if g, ok := h.known.Genres[key]; ok {
			out = append(out, g)
			continue
		}
		out = append(out, &reconcile.Genre{Key: key})
	}
	return out
}
