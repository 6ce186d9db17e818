package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-sync/core/lock"
	"catalog-sync/core/logger"
	"catalog-sync/core/reconcile"
	"catalog-sync/core/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SyncResult describes one completed library sync.
type SyncResult struct {
	RunID    string             `json:"run_id"`
	Server   reconcile.Owner    `json:"server"`
	Summary  *reconcile.Summary `json:"summary"`
	Duration time.Duration      `json:"duration"`
}

// Service runs library syncs and reads the stored library.
type Service struct {
	db      *gorm.DB
	client  storage.Client
	storage storage.Config
	sync    reconcile.Config
	locker  lock.Locker
	logger  *zap.Logger

	repo  *Repository
	index *reconcile.IndexCache
}

// NewService creates a new library service. client may be nil when snapshots
// are only ever supplied directly.
func NewService(db *gorm.DB, client storage.Client, storageCfg storage.Config, syncCfg reconcile.Config, locker lock.Locker, logger *zap.Logger) *Service {
	if locker == nil {
		locker = lock.NewLocal()
	}
	repo := NewRepository(db)
	return &Service{
		db:      db,
		client:  client,
		storage: storageCfg,
		sync:    syncCfg,
		locker:  locker,
		logger:  logger,
		repo:    repo,
		index:   reconcile.NewIndexCache(repo, syncCfg.CacheTTL()),
	}
}

// Repository returns the service's repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Sync merges snap into the library of owner. Only one sync per owner runs at
// a time; a concurrent call fails with ErrSyncInProgress.
func (s *Service) Sync(ctx context.Context, owner reconcile.Owner, snap *Snapshot, progress reconcile.Reporter) (*SyncResult, error) {
	if progress == nil {
		progress = reconcile.NopReporter{}
	}
	if owner.ID == "" {
		return nil, errors.New("server id is required")
	}
	if owner.Name == "" {
		owner.Name = owner.ID
	}
	if snap == nil {
		snap = &Snapshot{}
	}
	// Reject before ingest so a bad batch leaves no rows behind.
	for i, rec := range snap.Items {
		if rec.ID == "" {
			return nil, fmt.Errorf("item %d: %w", i, reconcile.ErrMissingExternalID)
		}
	}

	runID := uuid.NewString()
	l := s.logger.With(zap.String("run_id", runID), zap.String("server_id", owner.ID))
	started := time.Now()

	release, err := s.locker.TryAcquire(ctx, "sync:"+owner.ID)
	if errors.Is(err, lock.ErrHeld) {
		return nil, fmt.Errorf("server %s: %w", owner.ID, ErrSyncInProgress)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	defer release()

	l.Info("Starting library sync", zap.Int("items", len(snap.Items)))

	progress.Report(0.05, "Loading library index")
	known, err := s.index.Get(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load library index: %w", err)
	}

	progress.Report(0.25, "Importing artists, albums and genres")
	written, err := s.repo.Ingest(ctx, owner, snap, known)
	if err != nil {
		return nil, err
	}
	if written > 0 {
		l.Debug("Library index changed", zap.Int("rows", written))
		s.index.Invalidate(owner.ID)
		if known, err = s.index.Get(ctx, owner.ID); err != nil {
			return nil, fmt.Errorf("failed to reload library index: %w", err)
		}
	}

	progress.Report(0.5, "Loading existing tracks")
	store := NewStore(s.db, owner)
	existing, err := store.LoadTracks(ctx, known)
	if err != nil {
		return nil, err
	}

	opts := append(s.sync.Options(), reconcile.WithObserver(logger.NewObserver(l)))
	summary, err := reconcile.New(store, opts...).Reconcile(ctx, snap.Items, known, existing, &owner, progress)
	if err != nil {
		l.Error("Library sync failed", zap.Error(err))
		return nil, err
	}

	result := &SyncResult{
		RunID:    runID,
		Server:   owner,
		Summary:  summary,
		Duration: time.Since(started),
	}

	l.Info("Library sync complete",
		zap.Int("received", summary.Received),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("favorite_changes", summary.FavoriteChanges),
		zap.Int("unknown_genre", summary.UnknownGenre),
		zap.Int("unresolved_albums", summary.UnresolvedAlbums),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// SyncObject loads a snapshot from the configured bucket and syncs it.
// The key "latest" picks the newest object under the snapshot prefix.
func (s *Service) SyncObject(ctx context.Context, owner reconcile.Owner, key string, progress reconcile.Reporter) (*SyncResult, error) {
	if s.client == nil {
		return nil, errors.New("object storage is not configured")
	}

	if key == LatestObjectKey {
		latest, err := LatestSnapshotKey(ctx, s.client, s.storage.Bucket, s.storage.SnapshotPrefix)
		if err != nil {
			return nil, err
		}
		key = latest
	}

	snap, err := LoadSnapshotObject(ctx, s.client, s.storage.Bucket, key)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Loaded snapshot object", zap.String("key", key), zap.Int("items", len(snap.Items)))
	return s.Sync(ctx, owner, snap, progress)
}

// GetTrack returns one stored track of a server.
func (s *Service) GetTrack(ctx context.Context, serverID, trackID string) (*TrackView, error) {
	return s.repo.FindTrack(ctx, serverID, trackID)
}
