package handlers

import (
	"net/http"
	"strconv"

	"sync-backend/internal/dto"
	"sync-backend/internal/repository"
	"sync-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TransferHandler read API over stored transfers
type TransferHandler struct {
	transferRepo repository.TransferRepository
	walletRepo   repository.WalletRepository
	pushService  *services.WebSocketPushService
	logger       *logrus.Logger
}

// NewTransferHandler creates a new TransferHandler instance
func NewTransferHandler(
	transferRepo repository.TransferRepository,
	walletRepo repository.WalletRepository,
	pushService *services.WebSocketPushService,
	logger *logrus.Logger,
) *TransferHandler {
	return &TransferHandler{
		transferRepo: transferRepo,
		walletRepo:   walletRepo,
		pushService:  pushService,
		logger:       logger,
	}
}

// ListAccountTransfers lists transfers involving any of the account's wallets
// GET /api/accounts/:accountId/transfers
func (h *TransferHandler) ListAccountTransfers(c *gin.Context) {
	accountID, err := strconv.ParseUint(c.Param("accountId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid account id",
		})
		return
	}

	var query dto.TransferListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}

	wallets, err := h.walletRepo.FindVerifiedByAccount(c.Request.Context(), uint(accountID))
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to load wallets")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to load wallets",
		})
		return
	}
	if len(wallets) == 0 {
		c.JSON(http.StatusOK, dto.PaginatedResponse{
			Success: true,
			Data:    []interface{}{},
			Total:   0,
			Page:    query.Page,
			Limit:   query.Limit,
		})
		return
	}

	addresses := make([]string, 0, len(wallets))
	for _, w := range wallets {
		addresses = append(addresses, w.Address)
	}

	transfers, total, err := h.transferRepo.FindByAddresses(c.Request.Context(), addresses, query.Page, query.Limit)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list transfers")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to list transfers",
		})
		return
	}

	c.JSON(http.StatusOK, dto.PaginatedResponse{
		Success: true,
		Data:    transfers,
		Total:   total,
		Page:    query.Page,
		Limit:   query.Limit,
	})
}

// SubscribeTransferPush upgrades to a WebSocket pushing new transfers
// GET /api/accounts/:accountId/ws
func (h *TransferHandler) SubscribeTransferPush(c *gin.Context) {
	accountID, err := strconv.ParseUint(c.Param("accountId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid account id",
		})
		return
	}
	h.pushService.HandleConnection(c, uint(accountID))
}
