package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"sync-backend/internal/clients"
	"sync-backend/internal/config"
	"sync-backend/internal/metrics"
	"sync-backend/internal/models"
	"sync-backend/internal/repository"
	"sync-backend/internal/utils"

	"github.com/google/uuid"
)

// TransferFetcher is the slice of the indexer client the sync engine needs
type TransferFetcher interface {
	FetchTransfers(ctx context.Context, query clients.TransferQuery, maxPages int) *clients.FetchResult
}

// TransferNotifier receives newly stored transfers for party notification.
// Implementations must not block.
type TransferNotifier interface {
	NotifyNewTransfer(transfer *models.Transfer, fromWallet, toWallet *models.Wallet)
}

// TransferPusher receives newly stored transfers for live push delivery.
// Implementations must not block.
type TransferPusher interface {
	PushTransfer(accountIDs []uint, transfer *models.Transfer)
}

// SyncRequest parameters for one sync invocation
type SyncRequest struct {
	AccountID uint
	Networks  []uint32 // empty = all enabled networks
	// WaitForAll controls completion semantics: when false the call returns
	// after the first network pipeline finishes and the remaining networks
	// keep writing in the background (Partial is set on the summary).
	WaitForAll bool
	Trigger    string // "manual" or "scheduled", metrics label only
}

// SyncSummary best-effort result of a sync invocation
type SyncSummary struct {
	RunID      string    `json:"run_id"`
	AccountID  uint      `json:"account_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Networks   []uint32  `json:"networks"`
	Detected   int       `json:"detected"` // distinct platform-to-platform transfers observed
	Inserted   int       `json:"inserted"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"` // unresolved counterpart or self-transfer
	Failed     int       `json:"failed"`  // persistence failures, re-observed next run
	Partial    bool      `json:"partial"` // WaitForAll=false and networks still running
}

// networkResult outcome of one network's pipeline
type networkResult struct {
	networkID uint32
	detected  int
	inserted  int
	updated   int
	skipped   int
	failed    int
	err       error
}

// SyncService the top-level sync orchestrator. Drives per-network pipelines
// (fetch, merge, classify, persist, cursor update) concurrently, bounds
// outbound indexer calls, and returns a best-effort summary.
type SyncService struct {
	fetcher      TransferFetcher
	transferRepo repository.TransferRepository
	walletRepo   repository.WalletRepository
	cursorRepo   repository.SyncCursorRepository
	resolver     *ResolverService
	classifier   *Classifier
	notifier     TransferNotifier // optional
	pusher       TransferPusher   // optional

	maxConcurrentFetches int
	firstSyncMaxPages    int
	incrementalMaxPages  int

	mu       sync.Mutex
	lastRuns map[uint]*SyncSummary
}

// NewSyncService creates the sync orchestrator
func NewSyncService(
	fetcher TransferFetcher,
	transferRepo repository.TransferRepository,
	walletRepo repository.WalletRepository,
	cursorRepo repository.SyncCursorRepository,
	resolver *ResolverService,
	classifier *Classifier,
) *SyncService {
	maxFetches := 15
	firstPages := 5
	incrPages := 1
	if config.AppConfig != nil {
		if config.AppConfig.Sync.MaxConcurrentFetches > 0 {
			maxFetches = config.AppConfig.Sync.MaxConcurrentFetches
		}
		if config.AppConfig.Sync.FirstSyncMaxPages > 0 {
			firstPages = config.AppConfig.Sync.FirstSyncMaxPages
		}
		if config.AppConfig.Sync.IncrementalMaxPages > 0 {
			incrPages = config.AppConfig.Sync.IncrementalMaxPages
		}
	}

	return &SyncService{
		fetcher:              fetcher,
		transferRepo:         transferRepo,
		walletRepo:           walletRepo,
		cursorRepo:           cursorRepo,
		resolver:             resolver,
		classifier:           classifier,
		maxConcurrentFetches: maxFetches,
		firstSyncMaxPages:    firstPages,
		incrementalMaxPages:  incrPages,
		lastRuns:             make(map[uint]*SyncSummary),
	}
}

// SetNotifier wires the optional notification dispatcher
func (s *SyncService) SetNotifier(notifier TransferNotifier) {
	s.notifier = notifier
}

// SetPusher wires the optional live push service
func (s *SyncService) SetPusher(pusher TransferPusher) {
	s.pusher = pusher
}

// SyncAccount runs one sync invocation for an account across the requested
// networks. The only fatal condition is an unreachable store; everything
// else degrades to a best-effort summary.
func (s *SyncService) SyncAccount(ctx context.Context, req SyncRequest) (*SyncSummary, error) {
	summary := &SyncSummary{
		RunID:     uuid.NewString(),
		AccountID: req.AccountID,
		StartedAt: time.Now(),
	}

	wallets, err := s.walletRepo.FindVerifiedByAccount(ctx, req.AccountID)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues(req.Trigger, "error").Inc()
		return nil, fmt.Errorf("failed to load verified wallets: %w", err)
	}
	if len(wallets) == 0 {
		summary.FinishedAt = time.Now()
		s.recordRun(summary)
		metrics.SyncRunsTotal.WithLabelValues(req.Trigger, "ok").Inc()
		return summary, nil
	}

	networks := req.Networks
	if len(networks) == 0 {
		for _, n := range config.EnabledNetworks() {
			networks = append(networks, n.NetworkID)
		}
	}
	if len(networks) == 0 {
		summary.FinishedAt = time.Now()
		s.recordRun(summary)
		metrics.SyncRunsTotal.WithLabelValues(req.Trigger, "ok").Inc()
		return summary, nil
	}

	// The run cache is confined to this invocation
	runCache := NewRunCache()

	// Detached pipelines must survive the caller's cancellation when the
	// caller opts out of waiting for every network
	pipelineCtx := ctx
	if !req.WaitForAll {
		pipelineCtx = context.WithoutCancel(ctx)
	}

	results := make(chan networkResult, len(networks))
	for _, networkID := range networks {
		go func(networkID uint32) {
			start := time.Now()
			result := s.syncNetwork(pipelineCtx, req.AccountID, networkID, wallets, runCache)
			metrics.SyncRunDuration.WithLabelValues(utils.NetworkName(networkID)).Observe(time.Since(start).Seconds())
			results <- result
		}(networkID)
	}

	expected := len(networks)
	if !req.WaitForAll {
		expected = 1
		summary.Partial = len(networks) > 1

		// Remaining pipelines finish on their own; drain so nothing leaks
		go func(remaining int) {
			for i := 0; i < remaining; i++ {
				r := <-results
				if r.err != nil {
					log.Printf("❌ Background sync for network %d failed: %v", r.networkID, r.err)
				}
			}
		}(len(networks) - 1)
	}

	for i := 0; i < expected; i++ {
		r := <-results
		summary.Networks = append(summary.Networks, r.networkID)
		summary.Detected += r.detected
		summary.Inserted += r.inserted
		summary.Updated += r.updated
		summary.Skipped += r.skipped
		summary.Failed += r.failed
		if r.err != nil {
			log.Printf("❌ Sync pipeline for network %d failed: %v", r.networkID, r.err)
		}
	}

	summary.FinishedAt = time.Now()
	s.recordRun(summary)
	metrics.SyncRunsTotal.WithLabelValues(req.Trigger, "ok").Inc()

	log.Printf("✅ Sync run %s for account %d: %d detected, %d inserted, %d updated, %d skipped, %d failed",
		summary.RunID, req.AccountID, summary.Detected, summary.Inserted, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

// SyncAll runs a sync for every account that has at least one verified
// wallet. Per-account failures are logged and do not interrupt the loop.
func (s *SyncService) SyncAll(ctx context.Context, trigger string) error {
	accountIDs, err := s.walletRepo.FindAccountsWithVerifiedWallets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	log.Printf("🔄 Starting sync for %d accounts...", len(accountIDs))
	for _, accountID := range accountIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.SyncAccount(ctx, SyncRequest{
			AccountID:  accountID,
			WaitForAll: true,
			Trigger:    trigger,
		}); err != nil {
			log.Printf("❌ Sync failed for account %d: %v", accountID, err)
			continue
		}
	}
	log.Printf("✅ Sync completed for all accounts")
	return nil
}

// GetLastRun returns the most recent summary for an account
func (s *SyncService) GetLastRun(accountID uint) *SyncSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRuns[accountID]
}

func (s *SyncService) recordRun(summary *SyncSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRuns[summary.AccountID] = summary
}

// syncNetwork runs the full pipeline for one network: fetch all wallet and
// direction combinations under the concurrency ceiling, merge and dedup,
// classify, persist, then advance the cursor.
func (s *SyncService) syncNetwork(ctx context.Context, accountID uint, networkID uint32, wallets []*models.Wallet, runCache *RunCache) networkResult {
	result := networkResult{networkID: networkID}

	cursor, err := s.cursorRepo.Get(ctx, accountID, networkID)
	if err != nil {
		result.err = fmt.Errorf("failed to read cursor: %w", err)
		return result
	}

	firstSync := cursor == nil
	var fromBlock uint64
	maxPages := s.firstSyncMaxPages
	if !firstSync {
		fromBlock = cursor.LastBlockSynced + 1
		maxPages = s.incrementalMaxPages
	}

	merged := s.fetchAndMerge(ctx, networkID, wallets, fromBlock, maxPages)

	if len(merged.events) > 0 {
		detected, inserted, updated, skipped, failed, minFailedBlock := s.processEvents(ctx, networkID, merged, runCache)
		result.detected = detected
		result.inserted = inserted
		result.updated = updated
		result.skipped = skipped
		result.failed = failed

		// A persistence failure caps cursor advancement so the failed
		// record is re-observed by the next run
		if failed > 0 && minFailedBlock > 0 && minFailedBlock-1 < merged.maxObservedBlock {
			merged.maxObservedBlock = minFailedBlock - 1
		}
	}

	networkLabel := utils.NetworkName(networkID)
	metrics.SyncTransfersDetected.WithLabelValues(networkLabel).Add(float64(result.detected))
	metrics.SyncTransfersInserted.WithLabelValues(networkLabel).Add(float64(result.inserted))

	// Cursor advancement: only with evidence. First-ever sync may record the
	// indexer's chain head to bound future backfill depth.
	advanceTo := merged.maxObservedBlock
	if advanceTo == 0 && firstSync && merged.latestBlock > 0 {
		advanceTo = merged.latestBlock
	}
	if advanceTo > 0 {
		if _, err := s.cursorRepo.Advance(ctx, accountID, networkID, advanceTo); err != nil {
			// Non-fatal: the next run re-derives fromBlock and re-scans an
			// overlapping range, which dedup makes safe
			log.Printf("⚠️ Failed to advance cursor for account %d network %d: %v", accountID, networkID, err)
		} else {
			metrics.SyncCursorBlock.WithLabelValues(networkLabel).Set(float64(advanceTo))
		}
	}

	return result
}

// mergedEvents accumulated fetch output for one network
type mergedEvents struct {
	events           map[models.TransferKey]clients.RawTransferEvent
	maxObservedBlock uint64
	latestBlock      uint64
}

// fetchAndMerge fans out per-wallet per-direction fetches in batches bounded
// by the concurrency ceiling and merges all pages into a dedup map keyed by
// (txHash, networkID). Duplicate observations of the same on-chain event are
// collapsed; ordering between fetches does not matter.
func (s *SyncService) fetchAndMerge(ctx context.Context, networkID uint32, wallets []*models.Wallet, fromBlock uint64, maxPages int) *mergedEvents {
	type fetchJob struct {
		address   string
		direction clients.Direction
	}

	jobs := make([]fetchJob, 0, len(wallets)*2)
	for _, wallet := range wallets {
		jobs = append(jobs,
			fetchJob{address: wallet.Address, direction: clients.DirectionSent},
			fetchJob{address: wallet.Address, direction: clients.DirectionReceived},
		)
	}

	merged := &mergedEvents{events: make(map[models.TransferKey]clients.RawTransferEvent)}
	var mu sync.Mutex

	// Fill the pool, wait, refill: batches of at most maxConcurrentFetches
	// simultaneous calls against the indexer
	for start := 0; start < len(jobs); start += s.maxConcurrentFetches {
		end := utils.Min(start+s.maxConcurrentFetches, len(jobs))

		var wg sync.WaitGroup
		for _, job := range jobs[start:end] {
			wg.Add(1)
			go func(job fetchJob) {
				defer wg.Done()

				fetched := s.fetcher.FetchTransfers(ctx, clients.TransferQuery{
					Address:   job.address,
					Direction: job.direction,
					NetworkID: networkID,
					FromBlock: fromBlock,
				}, maxPages)

				mu.Lock()
				defer mu.Unlock()
				if fetched.LatestBlock > merged.latestBlock {
					merged.latestBlock = fetched.LatestBlock
				}
				for _, event := range fetched.Events {
					key := models.TransferKey{TxHash: event.TxHash, NetworkID: networkID}
					merged.events[key] = event
					if event.BlockNumber > merged.maxObservedBlock {
						merged.maxObservedBlock = event.BlockNumber
					}
				}
			}(job)
		}
		wg.Wait()
	}

	return merged
}

// processEvents resolves, classifies and persists one network's merged
// events. Returns counts plus the lowest block number that failed to
// persist (0 when none did).
func (s *SyncService) processEvents(ctx context.Context, networkID uint32, merged *mergedEvents, runCache *RunCache) (detected, inserted, updated, skipped, failed int, minFailedBlock uint64) {
	networkLabel := utils.NetworkName(networkID)

	// Batch-resolve every address appearing in the candidate set
	addresses := make([]string, 0, len(merged.events)*2)
	for _, event := range merged.events {
		addresses = append(addresses, event.From, event.To)
	}
	resolvedWallets, err := s.resolver.ResolveWallets(ctx, runCache, addresses)
	if err != nil {
		log.Printf("❌ Wallet resolution failed for network %d: %v", networkID, err)
		failed = len(merged.events)
		minFailedBlock = minBlock(merged.events)
		return
	}

	// Batch-resolve token metadata for events lacking an inline symbol
	contracts := make([]string, 0)
	for _, event := range merged.events {
		if event.AssetSymbol == "" && event.ContractAddress != "" {
			contracts = append(contracts, event.ContractAddress)
		}
	}
	resolvedTokens := map[string]*models.TokenInfo{}
	if len(contracts) > 0 {
		resolvedTokens, err = s.resolver.ResolveTokens(ctx, networkID, contracts)
		if err != nil {
			log.Printf("⚠️ Token resolution failed for network %d: %v", networkID, err)
			resolvedTokens = map[string]*models.TokenInfo{}
		}
	}

	// Classify each candidate; drop anything outside the registered set
	type candidate struct {
		transfer       *models.Transfer
		classification Classification
		fromWallet     *models.Wallet
		toWallet       *models.Wallet
	}
	candidates := make([]candidate, 0, len(merged.events))
	keys := make([]models.TransferKey, 0, len(merged.events))

	for key, event := range merged.events {
		fromAddr := utils.NormalizeAddress(event.From)
		toAddr := utils.NormalizeAddress(event.To)
		fromWallet := resolvedWallets[fromAddr]
		toWallet := resolvedWallets[toAddr]

		classification, ok := s.classifier.Classify(fromWallet, toWallet)
		if !ok {
			reason := "unresolved_counterpart"
			if fromWallet != nil && toWallet != nil {
				reason = "self_transfer"
			}
			metrics.SyncTransfersSkipped.WithLabelValues(networkLabel, reason).Inc()
			skipped++
			continue
		}

		symbol := event.AssetSymbol
		decimals := event.Decimals
		if symbol == "" {
			if info := resolvedTokens[utils.NormalizeAddress(event.ContractAddress)]; info != nil {
				symbol = info.Symbol
				if decimals == 0 {
					decimals = info.Decimals
				}
			}
		}

		derived, err := utils.DeriveAmount(event.RawValue, decimals)
		if err != nil {
			metrics.SyncTransfersSkipped.WithLabelValues(networkLabel, "bad_amount").Inc()
			skipped++
			continue
		}

		candidates = append(candidates, candidate{
			transfer: &models.Transfer{
				TxHash:             key.TxHash,
				NetworkID:          networkID,
				FromAddress:        fromAddr,
				ToAddress:          toAddr,
				RawAmount:          event.RawValue,
				Decimals:           decimals,
				DerivedAmount:      derived,
				BlockNumber:        event.BlockNumber,
				BlockTimestamp:     event.BlockTimestamp,
				TokenSymbol:        symbol,
				NetworkName:        networkLabel,
				ContractAddress:    utils.NormalizeAddress(event.ContractAddress),
				TransferType:       classification.TransferType,
				IsPublic:           classification.IsPublic,
				ApprovedBySender:   classification.ApprovedBySender,
				ApprovedByReceiver: classification.ApprovedByReceiver,
			},
			classification: classification,
			fromWallet:     fromWallet,
			toWallet:       toWallet,
		})
		keys = append(keys, key)
	}

	detected = len(candidates)
	if detected == 0 {
		return
	}

	existing, err := s.transferRepo.FindByKeys(ctx, keys)
	if err != nil {
		log.Printf("❌ Existence query failed for network %d: %v", networkID, err)
		failed = detected
		minFailedBlock = minBlock(merged.events)
		return
	}

	recordFailure := func(block uint64) {
		failed++
		if minFailedBlock == 0 || block < minFailedBlock {
			minFailedBlock = block
		}
	}

	for _, c := range candidates {
		stored, exists := existing[c.transfer.Key()]
		if !exists {
			wasInserted, err := s.transferRepo.InsertIfAbsent(ctx, c.transfer)
			if err != nil {
				log.Printf("❌ Failed to insert transfer %s on network %d: %v", c.transfer.TxHash, networkID, err)
				recordFailure(c.transfer.BlockNumber)
				continue
			}
			if wasInserted {
				inserted++
				if s.notifier != nil {
					s.notifier.NotifyNewTransfer(c.transfer, c.fromWallet, c.toWallet)
				}
				if s.pusher != nil {
					s.pusher.PushTransfer([]uint{c.fromWallet.AccountID, c.toWallet.AccountID}, c.transfer)
				}
			}
			// Lost race against a concurrent run: the row exists with an
			// equivalent computed state, nothing to do
			continue
		}

		// Existing record: refresh chain-sourced fields only
		if err := s.transferRepo.UpdateChainFields(ctx, c.transfer); err != nil {
			log.Printf("❌ Failed to update transfer %s on network %d: %v", c.transfer.TxHash, networkID, err)
			recordFailure(c.transfer.BlockNumber)
			continue
		}
		updated++

		// The single automatic reclassification: stored generic, computed socios
		if stored.TransferType == models.TransferTypeGeneric && c.classification.TransferType == models.TransferTypeSocios {
			promoted, err := s.transferRepo.PromoteToSocios(ctx, c.transfer.TxHash, networkID)
			if err != nil {
				log.Printf("⚠️ Failed to promote transfer %s to socios: %v", c.transfer.TxHash, err)
			} else if promoted && s.notifier != nil {
				s.notifier.NotifyNewTransfer(c.transfer, c.fromWallet, c.toWallet)
			}
		}
	}

	return
}

// minBlock lowest block number in a candidate set
func minBlock(events map[models.TransferKey]clients.RawTransferEvent) uint64 {
	var lowest uint64
	for _, event := range events {
		if lowest == 0 || event.BlockNumber < lowest {
			lowest = event.BlockNumber
		}
	}
	return lowest
}
