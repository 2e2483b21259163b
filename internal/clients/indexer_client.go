package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"sync-backend/internal/config"
	"sync-backend/internal/metrics"

	"github.com/avast/retry-go"
)

// ===== Indexer Client =====

// IndexerClient HTTP client for the external chain-indexing service
type IndexerClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	pageSize      int
	assetCategory string
	maxRetries    int
}

// NewIndexerClient creates an indexer client from configuration
func NewIndexerClient(baseURL string) *IndexerClient {
	timeout := 30 * time.Second
	pageSize := 100
	assetCategory := "erc20"
	maxRetries := 3
	apiKey := ""

	if config.AppConfig != nil {
		if config.AppConfig.Indexer.Timeout > 0 {
			timeout = time.Duration(config.AppConfig.Indexer.Timeout) * time.Second
		}
		if config.AppConfig.Indexer.PageSize > 0 {
			pageSize = config.AppConfig.Indexer.PageSize
		}
		if config.AppConfig.Indexer.AssetCategory != "" {
			assetCategory = config.AppConfig.Indexer.AssetCategory
		}
		if config.AppConfig.Indexer.MaxRetries > 0 {
			maxRetries = config.AppConfig.Indexer.MaxRetries
		}
		apiKey = config.AppConfig.Indexer.APIKey
	}

	return &IndexerClient{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		Client:        &http.Client{Timeout: timeout},
		pageSize:      pageSize,
		assetCategory: assetCategory,
		maxRetries:    maxRetries,
	}
}

// FetchPage retrieves a single page of transfer events
func (c *IndexerClient) FetchPage(ctx context.Context, query TransferQuery) (*TransferPage, error) {
	if query.ToBlock == "" {
		query.ToBlock = "latest"
	}
	if query.AssetCategory == "" {
		query.AssetCategory = c.assetCategory
	}

	requestData, err := json.Marshal(map[string]interface{}{
		"address":       query.Address,
		"direction":     query.Direction,
		"network":       query.NetworkID,
		"fromBlock":     query.FromBlock,
		"toBlock":       query.ToBlock,
		"assetCategory": query.AssetCategory,
		"pageCursor":    query.PageCursor,
		"pageSize":      c.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var page TransferPage
	start := time.Now()
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				fmt.Sprintf("%s/api/v1/transfers/query", c.BaseURL), bytes.NewReader(requestData))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")
			if c.APIKey != "" {
				req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
			}

			resp, err := c.Client.Do(req)
			if err != nil {
				return fmt.Errorf("failed to send request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests {
				return fmt.Errorf("indexer rate limit (status %d)", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				return retry.Unrecoverable(fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body)))
			}

			page = TransferPage{}
			if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		},
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	metrics.IndexerRequestDuration.WithLabelValues(fmt.Sprintf("%d", query.NetworkID)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.IndexerRequestsTotal.WithLabelValues(fmt.Sprintf("%d", query.NetworkID), string(query.Direction), "error").Inc()
		return nil, err
	}

	metrics.IndexerRequestsTotal.WithLabelValues(fmt.Sprintf("%d", query.NetworkID), string(query.Direction), "ok").Inc()
	return &page, nil
}

// FetchTransfers runs the pagination loop for one (address, direction) pair,
// consuming at most maxPages pages. Upstream failure truncates the loop and
// returns whatever was accumulated; it is never fatal to the caller.
// Malformed events are skipped at this boundary.
func (c *IndexerClient) FetchTransfers(ctx context.Context, query TransferQuery, maxPages int) *FetchResult {
	result := &FetchResult{}
	networkLabel := fmt.Sprintf("%d", query.NetworkID)

	cursor := ""
	for pageNum := 0; pageNum < maxPages; pageNum++ {
		query.PageCursor = cursor

		page, err := c.FetchPage(ctx, query)
		if err != nil {
			log.Printf("⚠️ Indexer fetch truncated for %s/%s on network %d after %d pages: %v",
				query.Address, query.Direction, query.NetworkID, pageNum, err)
			result.Truncated = true
			return result
		}

		if page.LatestBlock > result.LatestBlock {
			result.LatestBlock = page.LatestBlock
		}

		for i := range page.Events {
			event := page.Events[i]
			if err := event.Validate(); err != nil {
				metrics.IndexerMalformedEvents.WithLabelValues(networkLabel).Inc()
				log.Printf("⚠️ Skipping malformed event on network %d: %v", query.NetworkID, err)
				continue
			}
			result.Events = append(result.Events, event)
		}
		metrics.IndexerEventsFetched.WithLabelValues(networkLabel, string(query.Direction)).Add(float64(len(page.Events)))

		if page.NextPageCursor == "" {
			return result
		}
		cursor = page.NextPageCursor
	}

	// Page cap reached with more data pending
	result.Truncated = true
	return result
}
