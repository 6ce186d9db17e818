package integrity

import (
	"context"
	"errors"

	"catalog-sync/core/storage"
	"catalog-sync/feature/integrity/checks"
	"catalog-sync/feature/library/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArchiveFolder holds snapshots that were already synced.
const ArchiveFolder = "archive"

// Service handles integrity checks.
type Service struct {
	client  storage.Client
	storage storage.Config
	db      *gorm.DB
	logger  *zap.Logger
}

// NewService creates a new integrity service.
func NewService(client storage.Client, storageCfg storage.Config, db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		client:  client,
		storage: storageCfg,
		db:      db,
		logger:  logger,
	}
}

// Folders lists the folders expected in the snapshot bucket.
func (s *Service) Folders() []string {
	return []string{s.storage.SnapshotPrefix, ArchiveFolder}
}

// CheckStructure reports the bucket and its missing folders.
func (s *Service) CheckStructure(ctx context.Context) (*checks.StructureReport, error) {
	if s.client == nil {
		return nil, errors.New("object storage is not configured")
	}
	return checks.CheckStructure(ctx, s.client, s.storage.Bucket, s.Folders())
}

// FixStructure creates whatever report lists as missing.
func (s *Service) FixStructure(ctx context.Context, report *checks.StructureReport) error {
	return checks.FixStructure(ctx, s.client, report, s.logger)
}

// CheckSnapshots summarizes the snapshots available under the snapshot prefix.
func (s *Service) CheckSnapshots(ctx context.Context) (*checks.SnapshotReport, error) {
	if s.client == nil {
		return nil, errors.New("object storage is not configured")
	}
	return checks.CheckSnapshots(ctx, s.client, s.storage.Bucket, s.storage.SnapshotPrefix)
}

// CheckSchema compares the library tables with their models.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, models.All()...)
}
