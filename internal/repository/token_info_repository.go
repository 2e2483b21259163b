package repository

import (
	"context"
	"time"

	"sync-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenInfoRepository defines access to cached token metadata
type TokenInfoRepository interface {
	FindByContracts(ctx context.Context, networkID uint32, contracts []string) (map[string]*models.TokenInfo, error)
	Upsert(ctx context.Context, info *models.TokenInfo) error
}

type tokenInfoRepository struct {
	db *gorm.DB
}

// NewTokenInfoRepository creates a new TokenInfoRepository instance
func NewTokenInfoRepository(db *gorm.DB) TokenInfoRepository {
	return &tokenInfoRepository{db: db}
}

func (r *tokenInfoRepository) FindByContracts(ctx context.Context, networkID uint32, contracts []string) (map[string]*models.TokenInfo, error) {
	result := make(map[string]*models.TokenInfo, len(contracts))
	if len(contracts) == 0 {
		return result, nil
	}
	var tokens []*models.TokenInfo
	err := r.db.WithContext(ctx).
		Where("network_id = ? AND contract_address IN ?", networkID, contracts).
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	for _, t := range tokens {
		result[t.ContractAddress] = t
	}
	return result, nil
}

func (r *tokenInfoRepository) Upsert(ctx context.Context, info *models.TokenInfo) error {
	info.FetchedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_address"}, {Name: "network_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"symbol", "decimals", "fetched_at", "updated_at"}),
		}).
		Create(info).Error
}
