package library_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog-sync/core/reconcile"
	"catalog-sync/feature/library"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func expectLoad(mock sqlmock.Sqlmock) {
	expectLoadDated(mock, nil)
}

func expectLoadDated(mock sqlmock.Sqlmock, dateAdded any) {
	now := time.Now()
	tracks := sqlmock.NewRows([]string{
		"server_id", "id", "title", "duration", "track_number", "disc_number", "is_favorite",
		"play_count", "container", "date_added", "raw_genres", "normalized_genres",
		"umbrella_genres", "album_id", "artist_id", "created_at", "updated_at",
	}).AddRow("srv", "t1", "Intro", 180.0, 1, 1, false, 3, "flac", dateAdded, `["Jazz"]`, `["jazz"]`, `["Jazz"]`, nil, nil, now, now)
	mock.ExpectQuery("SELECT \\* FROM `tracks` WHERE server_id = \\?").
		WithArgs("srv").
		WillReturnRows(tracks)

	links := sqlmock.NewRows([]string{"server_id", "track_id", "genre_key", "position"}).
		AddRow("srv", "t1", "jazz", 0)
	mock.ExpectQuery("SELECT \\* FROM `track_genres` WHERE server_id = \\?").
		WithArgs("srv").
		WillReturnRows(links)
}

func TestStore_CommitWithoutChangesWritesNothing(t *testing.T) {
	db, mock := newMockDB(t)
	expectLoad(mock)

	store := library.NewStore(db, reconcile.Owner{ID: "srv"})
	known := &reconcile.Known{Genres: map[string]*reconcile.Genre{"jazz": {Key: "jazz", Name: "Jazz"}}}
	tracks, err := store.LoadTracks(context.Background(), known)
	require.NoError(t, err)
	require.Contains(t, tracks, "t1")
	assert.Equal(t, "Intro", tracks["t1"].Title)
	assert.Same(t, known.Genres["jazz"], tracks["t1"].Genres[0])

	// Any statement here would be unexpected by sqlmock and fail the commit.
	require.NoError(t, store.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CommitRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	expectLoad(mock)

	store := library.NewStore(db, reconcile.Owner{ID: "srv"})
	tracks, err := store.LoadTracks(context.Background(), nil)
	require.NoError(t, err)

	tracks["t1"].Title = "Intro (Live)"

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tracks`").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err = store.Commit(context.Background())
	assert.ErrorContains(t, err, "error upserting tracks")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CommitWritesFavoritesOnly(t *testing.T) {
	db, mock := newMockDB(t)
	expectLoad(mock)

	store := library.NewStore(db, reconcile.Owner{ID: "srv"})
	tracks, err := store.LoadTracks(context.Background(), nil)
	require.NoError(t, err)

	tracks["t1"].Favorite = true
	require.NoError(t, store.SetFavorites(context.Background(), map[string]bool{"t1": true}))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `tracks` SET `is_favorite`=\\?,`updated_at`=\\? WHERE server_id = \\? AND id IN \\(\\?\\)").
		WithArgs(true, sqlmock.AnyArg(), "srv", "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Commit(context.Background()))

	// The flag is now part of the baseline.
	require.NoError(t, store.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateTrackRequiresID(t *testing.T) {
	store := library.NewStore(nil, reconcile.Owner{ID: "srv"})
	_, err := store.CreateTrack(context.Background(), "")
	assert.ErrorIs(t, err, reconcile.ErrMissingExternalID)

	tracks, err := store.CreateTracks(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "srv", tracks[1].Owner.ID)
}

func TestStore_CommitKeepsStoredMillisecondDate(t *testing.T) {
	db, mock := newMockDB(t)
	// datetime(3) rounded .1235678 to .124 when the row was written.
	expectLoadDated(mock, time.Date(2024, 1, 15, 10, 0, 0, 124_000_000, time.UTC))

	store := library.NewStore(db, reconcile.Owner{ID: "srv"})
	tracks, err := store.LoadTracks(context.Background(), nil)
	require.NoError(t, err)

	ts, ok := reconcile.ParseDateAdded("2024-01-15T10:00:00.1235678Z")
	require.True(t, ok)
	tracks["t1"].DateAdded = &ts

	// No statement is expected: the remote date matches the stored one.
	require.NoError(t, store.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
