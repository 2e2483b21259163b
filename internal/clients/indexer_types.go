package clients

import (
	"fmt"
	"math/big"
	"time"

	"sync-backend/internal/utils"
)

// ===== Indexer API Types =====

// Direction which side of a transfer the queried address is on
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// TransferQuery request parameters for the transfer-query endpoint
type TransferQuery struct {
	Address       string    `json:"address"`
	Direction     Direction `json:"direction"`
	NetworkID     uint32    `json:"network"`
	FromBlock     uint64    `json:"fromBlock"` // inclusive
	ToBlock       string    `json:"toBlock"`   // block number or "latest"
	AssetCategory string    `json:"assetCategory"`
	PageCursor    string    `json:"pageCursor,omitempty"`
}

// RawTransferEvent one transfer event as returned by the indexer
// Events within a page may arrive out of block order
type RawTransferEvent struct {
	BlockNumber     uint64     `json:"blockNumber"`
	TxHash          string     `json:"txHash"`
	From            string     `json:"from"`
	To              string     `json:"to"`
	RawValue        string     `json:"rawValue"` // integer base units
	Decimals        int        `json:"decimals"`
	AssetSymbol     string     `json:"assetSymbol,omitempty"`
	ContractAddress string     `json:"contractAddress,omitempty"`
	BlockTimestamp  *time.Time `json:"blockTimestamp,omitempty"`
}

// Validate rejects malformed events at the fetch boundary so that nothing
// loosely-typed flows into the pipeline
func (e *RawTransferEvent) Validate() error {
	if e.TxHash == "" {
		return fmt.Errorf("missing txHash")
	}
	if e.BlockNumber == 0 {
		return fmt.Errorf("missing blockNumber")
	}
	if utils.NormalizeAddress(e.From) == "" {
		return fmt.Errorf("invalid from address %q", e.From)
	}
	if utils.NormalizeAddress(e.To) == "" {
		return fmt.Errorf("invalid to address %q", e.To)
	}
	if e.Decimals < 0 || e.Decimals > 77 {
		return fmt.Errorf("decimals out of range: %d", e.Decimals)
	}
	if _, ok := new(big.Int).SetString(e.RawValue, 10); !ok {
		return fmt.Errorf("invalid rawValue %q", e.RawValue)
	}
	return nil
}

// TransferPage one page of transfer events plus continuation metadata
type TransferPage struct {
	Events         []RawTransferEvent `json:"events"`
	NextPageCursor string             `json:"nextPageCursor,omitempty"`
	LatestBlock    uint64             `json:"latestBlock,omitempty"` // chain head as seen by the indexer
}

// FetchResult accumulated events for one (address, direction) pagination loop
type FetchResult struct {
	Events      []RawTransferEvent
	LatestBlock uint64
	Truncated   bool // pagination stopped early (page cap or upstream failure)
}
