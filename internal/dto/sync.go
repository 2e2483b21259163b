package dto

// ==================== Sync DTOs ====================

// TriggerSyncRequest request body for a manual sync trigger
type TriggerSyncRequest struct {
	AccountID  uint     `json:"account_id" binding:"required"`
	Networks   []uint32 `json:"networks"`
	WaitForAll *bool    `json:"wait_for_all"` // default true
}

// TransferListQuery query parameters for transfer listing
type TransferListQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// PaginatedResponse generic paginated list envelope
type PaginatedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
}
