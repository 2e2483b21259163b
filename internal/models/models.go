package models

import (
	"time"
)

// TransferType classifies a transfer between two platform accounts
type TransferType string

const (
	TransferTypeGeneric   TransferType = "generic"   // default classification
	TransferTypeSocios    TransferType = "socios"    // inbound to a designated collector wallet
	TransferTypeSponsoreo TransferType = "sponsoreo" // user-driven only, never set by sync
)

// WalletStatus wallet verification status
type WalletStatus string

const (
	WalletStatusPending  WalletStatus = "pending"  // registered, ownership not yet verified
	WalletStatusVerified WalletStatus = "verified" // verified, participates in sync
)

// PrivacyMode account privacy setting applied per wallet
type PrivacyMode string

const (
	PrivacyModeAuto     PrivacyMode = "auto"     // transfers public immediately
	PrivacyModeApproval PrivacyMode = "approval" // both parties must approve before public
)

// Account a registered platform user, owner of wallets
// Managed by the account service; the sync engine reads it for contact info only
type Account struct {
	ID                 uint        `json:"id" gorm:"primaryKey"`
	Handle             string      `json:"handle" gorm:"uniqueIndex;not null"`
	Email              string      `json:"email" gorm:"not null"`
	DefaultPrivacyMode PrivacyMode `json:"default_privacy_mode" gorm:"default:'auto'"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Wallet a registered blockchain address
// At most one verified collector wallet per account (enforced by the registry)
type Wallet struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Address     string       `json:"address" gorm:"uniqueIndex;not null"` // lowercase-normalized
	AccountID   uint         `json:"account_id" gorm:"index;not null"`
	Status      WalletStatus `json:"status" gorm:"default:'pending';index"`
	IsCollector bool         `json:"is_collector" gorm:"default:false"` // inbound transfers classified socios
	PrivacyMode PrivacyMode  `json:"privacy_mode" gorm:"default:'auto'"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Transfer a token transfer between two registered wallets
// Identity is (tx_hash, network_id); chain-sourced fields are refreshed on
// re-sync, classification/approval/annotation fields are not
type Transfer struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	TxHash          string     `json:"tx_hash" gorm:"uniqueIndex:idx_tx_network;not null"`
	NetworkID       uint32     `json:"network_id" gorm:"uniqueIndex:idx_tx_network;not null"`
	FromAddress     string     `json:"from_address" gorm:"index;not null"`
	ToAddress       string     `json:"to_address" gorm:"index;not null"`
	RawAmount       string     `json:"raw_amount" gorm:"not null"` // integer base units, source of truth
	Decimals        int        `json:"decimals" gorm:"not null"`
	DerivedAmount   string     `json:"derived_amount" gorm:"type:numeric(78,18)"` // raw_amount / 10^decimals
	BlockNumber     uint64     `json:"block_number" gorm:"index;not null"`
	BlockTimestamp  *time.Time `json:"block_timestamp"` // indexer metadata, may be absent
	TokenSymbol     string     `json:"token_symbol"`
	NetworkName     string     `json:"network_name"`
	ContractAddress string     `json:"contract_address"`

	// Classification state
	TransferType            TransferType `json:"transfer_type" gorm:"default:'generic';index"`
	IsPublic                bool         `json:"is_public" gorm:"default:false"`
	ApprovedBySender        bool         `json:"approved_by_sender" gorm:"default:false"`
	ApprovedByReceiver      bool         `json:"approved_by_receiver" gorm:"default:false"`
	EditingPermissionHolder *uint        `json:"editing_permission_holder"`

	// Annotation state, populated by user actions, preserved across re-sync
	Message     string `json:"message" gorm:"type:text"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Description string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransferKey composite identity of a transfer
type TransferKey struct {
	TxHash    string
	NetworkID uint32
}

// Key returns the composite identity of the transfer
func (t *Transfer) Key() TransferKey {
	return TransferKey{TxHash: t.TxHash, NetworkID: t.NetworkID}
}

// TokenInfo cached token metadata per (contract, network)
type TokenInfo struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ContractAddress string    `json:"contract_address" gorm:"uniqueIndex:idx_contract_network;not null"`
	NetworkID       uint32    `json:"network_id" gorm:"uniqueIndex:idx_contract_network;not null"`
	Symbol          string    `json:"symbol"`
	Decimals        int       `json:"decimals"`
	FetchedAt       time.Time `json:"fetched_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SyncCursor last block height fully processed per (account, network)
// last_block_synced is monotonic and never decreases
type SyncCursor struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	AccountID       uint      `json:"account_id" gorm:"uniqueIndex:idx_account_network;not null"`
	NetworkID       uint32    `json:"network_id" gorm:"uniqueIndex:idx_account_network;not null"`
	LastBlockSynced uint64    `json:"last_block_synced" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
