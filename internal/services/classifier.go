package services

import (
	"sync-backend/internal/models"
)

// Classification initial classification and privacy state for a transfer
type Classification struct {
	TransferType       models.TransferType
	IsPublic           bool
	ApprovedBySender   bool
	ApprovedByReceiver bool
}

// Classifier pure decision logic mapping wallet flags to a transfer's
// initial classification. Deterministic: same flags, same output.
type Classifier struct{}

// NewClassifier creates a Classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify decides the classification for a transfer between two resolved
// wallets. Returns ok=false when the transfer must be skipped entirely:
// either side unresolved, or a self-transfer between wallets of the same
// account.
func (c *Classifier) Classify(fromWallet, toWallet *models.Wallet) (Classification, bool) {
	if fromWallet == nil || toWallet == nil {
		return Classification{}, false
	}

	// Self-transfers carry no platform-to-platform meaning
	if fromWallet.AccountID == toWallet.AccountID {
		return Classification{}, false
	}

	if toWallet.IsCollector {
		return Classification{
			TransferType:       models.TransferTypeSocios,
			IsPublic:           false,
			ApprovedBySender:   true,
			ApprovedByReceiver: true,
		}, true
	}

	if fromWallet.PrivacyMode == models.PrivacyModeApproval || toWallet.PrivacyMode == models.PrivacyModeApproval {
		return Classification{
			TransferType:       models.TransferTypeGeneric,
			IsPublic:           false,
			ApprovedBySender:   fromWallet.PrivacyMode == models.PrivacyModeAuto,
			ApprovedByReceiver: toWallet.PrivacyMode == models.PrivacyModeAuto,
		}, true
	}

	return Classification{
		TransferType:       models.TransferTypeGeneric,
		IsPublic:           true,
		ApprovedBySender:   true,
		ApprovedByReceiver: true,
	}, true
}
