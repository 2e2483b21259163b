package repository

import (
	"context"

	"sync-backend/internal/models"

	"gorm.io/gorm"
)

// WalletRepository defines the interface for wallet data access
// Only verified wallets participate in synchronization
type WalletRepository interface {
	FindVerifiedByAddresses(ctx context.Context, addresses []string) ([]*models.Wallet, error)
	FindVerifiedByAccount(ctx context.Context, accountID uint) ([]*models.Wallet, error)
	FindAccountsWithVerifiedWallets(ctx context.Context) ([]uint, error)
}

// AccountRepository defines read access to account contact data
type AccountRepository interface {
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*models.Account, error)
}

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new WalletRepository instance
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) FindVerifiedByAddresses(ctx context.Context, addresses []string) ([]*models.Wallet, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	var wallets []*models.Wallet
	err := r.db.WithContext(ctx).
		Where("address IN ? AND status = ?", addresses, models.WalletStatusVerified).
		Find(&wallets).Error
	if err != nil {
		return nil, err
	}
	return wallets, nil
}

func (r *walletRepository) FindVerifiedByAccount(ctx context.Context, accountID uint) ([]*models.Wallet, error) {
	var wallets []*models.Wallet
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, models.WalletStatusVerified).
		Find(&wallets).Error
	if err != nil {
		return nil, err
	}
	return wallets, nil
}

func (r *walletRepository) FindAccountsWithVerifiedWallets(ctx context.Context) ([]uint, error) {
	var accountIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("status = ?", models.WalletStatusVerified).
		Distinct("account_id").
		Pluck("account_id", &accountIDs).Error
	if err != nil {
		return nil, err
	}
	return accountIDs, nil
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new AccountRepository instance
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*models.Account, error) {
	result := make(map[uint]*models.Account, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var accounts []*models.Account
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		result[a.ID] = a
	}
	return result, nil
}
