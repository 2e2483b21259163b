package repository

import (
	"context"

	"sync-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// chainSourcedColumns are the only columns re-sync may rewrite on an
// existing transfer. Classification, approvals and annotations belong to
// users once the row exists.
var chainSourcedColumns = []string{
	"from_address", "to_address", "raw_amount", "decimals", "derived_amount",
	"block_number", "block_timestamp", "token_symbol", "network_name",
	"contract_address", "updated_at",
}

// TransferRepository defines the interface for transfer data access
type TransferRepository interface {
	// InsertIfAbsent inserts a transfer unless (tx_hash, network_id) already
	// exists. Returns true when a new row was written.
	InsertIfAbsent(ctx context.Context, transfer *models.Transfer) (bool, error)

	// FindByKeys batch-loads existing transfers for a set of composite keys
	FindByKeys(ctx context.Context, keys []models.TransferKey) (map[models.TransferKey]*models.Transfer, error)

	// UpdateChainFields rewrites only the chain-sourced columns of an
	// existing transfer
	UpdateChainFields(ctx context.Context, transfer *models.Transfer) error

	// PromoteToSocios flips transfer_type generic -> socios, touching no
	// other column. The WHERE clause guards against overwriting any
	// user-driven reclassification.
	PromoteToSocios(ctx context.Context, txHash string, networkID uint32) (bool, error)

	FindByAddresses(ctx context.Context, addresses []string, page, limit int) ([]*models.Transfer, int64, error)
	CountByNetwork(ctx context.Context, networkID uint32) (int64, error)
}

type transferRepository struct {
	db *gorm.DB
}

// NewTransferRepository creates a new TransferRepository instance
func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) InsertIfAbsent(ctx context.Context, transfer *models.Transfer) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "network_id"}},
			DoNothing: true,
		}).
		Create(transfer)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *transferRepository) FindByKeys(ctx context.Context, keys []models.TransferKey) (map[models.TransferKey]*models.Transfer, error) {
	existing := make(map[models.TransferKey]*models.Transfer, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}

	// (tx_hash, network_id) IN (...) as a batched existence query
	pairs := make([][]interface{}, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, []interface{}{key.TxHash, key.NetworkID})
	}

	var transfers []*models.Transfer
	err := r.db.WithContext(ctx).
		Where("(tx_hash, network_id) IN ?", pairs).
		Find(&transfers).Error
	if err != nil {
		return nil, err
	}

	for _, t := range transfers {
		existing[t.Key()] = t
	}
	return existing, nil
}

func (r *transferRepository) UpdateChainFields(ctx context.Context, transfer *models.Transfer) error {
	return r.db.WithContext(ctx).
		Model(&models.Transfer{}).
		Where("tx_hash = ? AND network_id = ?", transfer.TxHash, transfer.NetworkID).
		Select(chainSourcedColumns).
		Updates(transfer).Error
}

func (r *transferRepository) PromoteToSocios(ctx context.Context, txHash string, networkID uint32) (bool, error) {
	// Promotion rewrites the type and nothing else: visibility, approvals
	// and annotations keep whatever state the row already has
	result := r.db.WithContext(ctx).
		Model(&models.Transfer{}).
		Where("tx_hash = ? AND network_id = ? AND transfer_type = ?",
			txHash, networkID, models.TransferTypeGeneric).
		Update("transfer_type", models.TransferTypeSocios)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *transferRepository) FindByAddresses(ctx context.Context, addresses []string, page, limit int) ([]*models.Transfer, int64, error) {
	var transfers []*models.Transfer
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Transfer{}).
		Where("from_address IN ? OR to_address IN ?", addresses, addresses)
	query.Count(&total)

	offset := (page - 1) * limit
	err := query.Offset(offset).Limit(limit).
		Order("block_number DESC, id DESC").
		Find(&transfers).Error
	if err != nil {
		return nil, 0, err
	}

	return transfers, total, nil
}

func (r *transferRepository) CountByNetwork(ctx context.Context, networkID uint32) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transfer{}).
		Where("network_id = ?", networkID).
		Count(&count).Error
	return count, err
}
