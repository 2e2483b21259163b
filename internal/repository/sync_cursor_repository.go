package repository

import (
	"context"
	"errors"

	"sync-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncCursorRepository defines access to the per-(account, network) cursor
// last_block_synced is monotonic: Advance never writes a smaller value
type SyncCursorRepository interface {
	// Get returns the cursor, or nil when no sync has ever completed
	Get(ctx context.Context, accountID uint, networkID uint32) (*models.SyncCursor, error)

	// Advance moves the cursor forward to blockNumber. A blockNumber at or
	// below the stored value is a no-op (returns false), never a regression.
	Advance(ctx context.Context, accountID uint, networkID uint32, blockNumber uint64) (bool, error)
}

type syncCursorRepository struct {
	db *gorm.DB
}

// NewSyncCursorRepository creates a new SyncCursorRepository instance
func NewSyncCursorRepository(db *gorm.DB) SyncCursorRepository {
	return &syncCursorRepository{db: db}
}

func (r *syncCursorRepository) Get(ctx context.Context, accountID uint, networkID uint32) (*models.SyncCursor, error) {
	var cursor models.SyncCursor
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND network_id = ?", accountID, networkID).
		First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}

func (r *syncCursorRepository) Advance(ctx context.Context, accountID uint, networkID uint32, blockNumber uint64) (bool, error) {
	// Upsert guarded by last_block_synced < EXCLUDED.last_block_synced so a
	// concurrent slower run can never move the cursor backwards
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}, {Name: "network_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"last_block_synced": gorm.Expr(
					"GREATEST(sync_cursors.last_block_synced, EXCLUDED.last_block_synced)"),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(&models.SyncCursor{
			AccountID:       accountID,
			NetworkID:       networkID,
			LastBlockSynced: blockNumber,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
