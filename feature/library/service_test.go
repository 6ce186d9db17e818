package library_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"catalog-sync/core/database"
	"catalog-sync/core/lock"
	"catalog-sync/core/reconcile"
	"catalog-sync/core/storage"
	"catalog-sync/core/storage/mocks"
	"catalog-sync/feature/library"
	"catalog-sync/feature/library/models"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const firstSnapshot = `{
  "Items": [
    {
      "Id": "t1", "Name": "Intro", "AlbumId": "al1", "Album": "First Light",
      "AlbumArtist": "The Band", "AlbumArtists": [{"Id": "ar1", "Name": "The Band"}],
      "ArtistItems": [{"Id": "ar1", "Name": "The Band"}], "Artists": ["The Band"],
      "Genres": ["Rock/Pop"], "RunTimeTicks": 1800000000, "IndexNumber": 1, "ParentIndexNumber": 1,
      "Container": "flac", "DateCreated": "2024-03-01T10:00:00.1234567Z",
      "UserData": {"PlayCount": 3, "IsFavorite": true}
    },
    {
      "Id": "t2", "Name": "Outro", "AlbumId": "al1", "Album": "First Light",
      "AlbumArtists": [{"Id": "ar1", "Name": "The Band"}], "Artists": ["Guest"],
      "Genres": [], "RunTimeTicks": "1200000000", "IndexNumber": "2", "Container": "mp3",
      "UserData": {"PlayCount": 0, "IsFavorite": false}
    }
  ]
}`

const secondSnapshot = `{
  "Items": [
    {
      "Id": "t1", "Name": "Intro (Remastered)", "AlbumId": "al1", "Album": "First Light",
      "AlbumArtists": [{"Id": "ar1", "Name": "The Band"}], "Artists": ["The Band"],
      "Genres": ["Rock/Pop"], "RunTimeTicks": 1800000000, "IndexNumber": 1,
      "UserData": {"PlayCount": 4, "IsFavorite": false}
    },
    {
      "Id": "t2", "Name": "Outro", "AlbumId": "al1", "Album": "First Light",
      "AlbumArtists": [{"Id": "ar1", "Name": "The Band"}], "Artists": ["Guest"],
      "Genres": [], "RunTimeTicks": 1200000000, "IndexNumber": 2, "Container": "mp3"
    },
    {
      "Id": "t3", "Name": "Feature", "ArtistItems": [{"Id": "ar2", "Name": "Guest"}],
      "Artists": ["Guest"], "Genres": ["Jazz"], "RunTimeTicks": 600000000
    }
  ]
}`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, library.NewRepository(db).AutoMigrate(context.Background()))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, client storage.Client, locker lock.Locker) *library.Service {
	t.Helper()
	storageCfg := storage.Config{Bucket: "catalog", SnapshotPrefix: "snapshots"}
	syncCfg := reconcile.Config{
		ProgressStart:   0.75,
		ProgressEnd:     0.95,
		ProgressFinal:   1.0,
		ReportInterval:  500,
		CacheTTLSeconds: 300,
	}
	return library.NewService(db, client, storageCfg, syncCfg, locker, zap.NewNop())
}

func decode(t *testing.T, doc string) *library.Snapshot {
	t.Helper()
	snap, err := library.DecodeSnapshot(strings.NewReader(doc))
	require.NoError(t, err)
	return snap
}

type recordedStage struct {
	fraction float64
	stage    string
}

type recordingReporter struct {
	mu     sync.Mutex
	stages []recordedStage
}

func (r *recordingReporter) Report(fraction float64, stage string) {
	r.mu.Lock()
	r.stages = append(r.stages, recordedStage{fraction, stage})
	r.mu.Unlock()
}

func TestServiceSync_CreatesTracks(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, nil, nil)
	ctx := context.Background()
	owner := reconcile.Owner{ID: "srv", Name: "Living Room"}

	progress := &recordingReporter{}
	result, err := svc.Sync(ctx, owner, decode(t, firstSnapshot), progress)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Summary.Received)
	assert.Equal(t, 2, result.Summary.Created)
	assert.Equal(t, 0, result.Summary.Updated)
	assert.Equal(t, 1, result.Summary.FavoriteChanges)
	assert.Equal(t, 1, result.Summary.UnknownGenre)

	require.NotEmpty(t, progress.stages)
	assert.Equal(t, 0.05, progress.stages[0].fraction)
	last := progress.stages[len(progress.stages)-1]
	assert.Equal(t, 1.0, last.fraction)
	assert.Equal(t, "Library sync complete", last.stage)

	var server models.Server
	require.NoError(t, db.First(&server, "id = ?", "srv").Error)
	assert.Equal(t, "Living Room", server.Name)

	t1, err := svc.GetTrack(ctx, "srv", "t1")
	require.NoError(t, err)
	assert.Equal(t, "Intro", t1.Title)
	assert.Equal(t, 180.0, t1.Duration)
	assert.Equal(t, 1, t1.TrackNumber)
	assert.Equal(t, 1, t1.DiscNumber)
	assert.Equal(t, 3, t1.PlayCount)
	assert.True(t, t1.Favorite)
	assert.Equal(t, "flac", t1.Container)
	assert.Equal(t, "First Light", t1.Album)
	assert.Equal(t, "The Band", t1.Artist)
	assert.Equal(t, []string{"Rock", "Pop"}, t1.Genres)
	assert.Equal(t, []string{"rock", "pop"}, t1.NormalizedGenres)
	require.NotNil(t, t1.DateAdded)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), t1.DateAdded.UTC().Truncate(time.Second))

	t2, err := svc.GetTrack(ctx, "srv", "t2")
	require.NoError(t, err)
	assert.Equal(t, "The Band", t2.Artist, "falls back to the album artist")
	assert.Equal(t, []string{reconcile.UnknownGenreName}, t2.Genres)
	assert.Equal(t, 2, t2.TrackNumber)
	assert.Equal(t, 120.0, t2.Duration)
	assert.Nil(t, t2.DateAdded)
}

func TestServiceSync_UpdatesExistingTracks(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, nil, nil)
	ctx := context.Background()
	owner := reconcile.Owner{ID: "srv"}

	_, err := svc.Sync(ctx, owner, decode(t, firstSnapshot), nil)
	require.NoError(t, err)

	result, err := svc.Sync(ctx, owner, decode(t, secondSnapshot), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Created)
	assert.Equal(t, 2, result.Summary.Updated)
	assert.Equal(t, 1, result.Summary.FavoriteChanges)

	t1, err := svc.GetTrack(ctx, "srv", "t1")
	require.NoError(t, err)
	assert.Equal(t, "Intro (Remastered)", t1.Title)
	assert.False(t, t1.Favorite)
	assert.Equal(t, 4, t1.PlayCount)
	assert.NotNil(t, t1.DateAdded, "an absent date keeps the stored value")

	// The new artist is ingested and the cached index refreshed.
	t3, err := svc.GetTrack(ctx, "srv", "t3")
	require.NoError(t, err)
	assert.Equal(t, "Guest", t3.Artist)
	assert.Equal(t, []string{"Jazz"}, t3.Genres)

	var count int64
	require.NoError(t, db.Model(&models.Track{}).Where("server_id = ?", "srv").Count(&count).Error)
	assert.Equal(t, int64(3), count)

	var links int64
	require.NoError(t, db.Model(&models.TrackGenre{}).Where("track_id = ?", "t1").Count(&links).Error)
	assert.Equal(t, int64(2), links)
}

func TestServiceSync_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, nil, nil)
	ctx := context.Background()
	owner := reconcile.Owner{ID: "srv"}

	_, err := svc.Sync(ctx, owner, decode(t, firstSnapshot), nil)
	require.NoError(t, err)

	var before models.Track
	require.NoError(t, db.First(&before, "server_id = ? AND id = ?", "srv", "t1").Error)

	result, err := svc.Sync(ctx, owner, decode(t, firstSnapshot), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Created)
	assert.Equal(t, 2, result.Summary.Updated)
	assert.Equal(t, 0, result.Summary.FavoriteChanges)

	var after models.Track
	require.NoError(t, db.First(&after, "server_id = ? AND id = ?", "srv", "t1").Error)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt), "unchanged rows are not rewritten")
}

func TestServiceSync_ServersAreIsolated(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, nil, nil)
	ctx := context.Background()

	_, err := svc.Sync(ctx, reconcile.Owner{ID: "a"}, decode(t, firstSnapshot), nil)
	require.NoError(t, err)
	result, err := svc.Sync(ctx, reconcile.Owner{ID: "b"}, decode(t, firstSnapshot), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.Created)

	_, err = svc.GetTrack(ctx, "b", "t1")
	assert.NoError(t, err)
	_, err = svc.GetTrack(ctx, "c", "t1")
	assert.ErrorIs(t, err, library.ErrTrackNotFound)
}

func TestServiceSync_RejectsMissingID(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, nil, nil)

	snap := decode(t, `[{"Id": "t1", "Name": "A"}, {"Name": "no id"}]`)
	_, err := svc.Sync(context.Background(), reconcile.Owner{ID: "srv"}, snap, nil)
	assert.ErrorIs(t, err, reconcile.ErrMissingExternalID)

	var servers int64
	require.NoError(t, db.Model(&models.Server{}).Count(&servers).Error)
	assert.Zero(t, servers, "nothing is written for a rejected batch")
}

func TestServiceSync_Busy(t *testing.T) {
	db := newTestDB(t)
	locker := lock.NewLocal()
	svc := newTestService(t, db, nil, locker)

	release, err := locker.TryAcquire(context.Background(), "sync:srv")
	require.NoError(t, err)

	_, err = svc.Sync(context.Background(), reconcile.Owner{ID: "srv"}, decode(t, firstSnapshot), nil)
	assert.ErrorIs(t, err, library.ErrSyncInProgress)

	release()
	_, err = svc.Sync(context.Background(), reconcile.Owner{ID: "srv"}, decode(t, firstSnapshot), nil)
	assert.NoError(t, err)
}

func TestServiceSyncObject_Latest(t *testing.T) {
	db := newTestDB(t)
	client := new(mocks.Client)
	svc := newTestService(t, db, client, nil)

	now := time.Now()
	client.On("ListObjects", mock.Anything, "catalog", mock.Anything).
		Return(func(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
			ch := make(chan minio.ObjectInfo, 3)
			ch <- minio.ObjectInfo{Key: "snapshots/old.json", LastModified: now.Add(-time.Hour)}
			ch <- minio.ObjectInfo{Key: "snapshots/new.json", LastModified: now}
			ch <- minio.ObjectInfo{Key: "snapshots/.keep", LastModified: now.Add(time.Hour)}
			close(ch)
			return ch
		})
	client.On("GetObject", mock.Anything, "catalog", "snapshots/new.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte(firstSnapshot))), nil)

	result, err := svc.SyncObject(context.Background(), reconcile.Owner{ID: "srv"}, library.LatestObjectKey, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.Created)
	client.AssertExpectations(t)
}

func TestServiceSyncObject_NoStorage(t *testing.T) {
	svc := newTestService(t, newTestDB(t), nil, nil)
	_, err := svc.SyncObject(context.Background(), reconcile.Owner{ID: "srv"}, "x.json", nil)
	assert.Error(t, err)
}
