package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sync-backend/internal/models"
	"sync-backend/internal/repository"
	"sync-backend/internal/utils"
)

// TokenMetadataCache TTL cache for token metadata with injected clock.
// Constructed once per process and passed down; never a package global.
type TokenMetadataCache struct {
	mu      sync.RWMutex
	entries map[string]tokenCacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type tokenCacheEntry struct {
	info      *models.TokenInfo
	expiresAt time.Time
}

// NewTokenMetadataCache creates a cache with the given TTL and clock
func NewTokenMetadataCache(ttl time.Duration, now func() time.Time) *TokenMetadataCache {
	if now == nil {
		now = time.Now
	}
	return &TokenMetadataCache{
		entries: make(map[string]tokenCacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

func tokenCacheKey(networkID uint32, contract string) string {
	return fmt.Sprintf("%d:%s", networkID, contract)
}

// Get returns a cached entry if present and not expired
func (c *TokenMetadataCache) Get(networkID uint32, contract string) (*models.TokenInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[tokenCacheKey(networkID, contract)]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.info, true
}

// Put stores an entry with the cache TTL
func (c *TokenMetadataCache) Put(networkID uint32, contract string, info *models.TokenInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tokenCacheKey(networkID, contract)] = tokenCacheEntry{
		info:      info,
		expiresAt: c.now().Add(c.ttl),
	}
}

// ResolverService batch-loads wallet and token metadata for classification.
// Wallet results are cached per sync run; token metadata additionally goes
// through the process-level TTL cache.
type ResolverService struct {
	walletRepo repository.WalletRepository
	tokenRepo  repository.TokenInfoRepository
	tokenCache *TokenMetadataCache
}

// NewResolverService creates a ResolverService
func NewResolverService(walletRepo repository.WalletRepository, tokenRepo repository.TokenInfoRepository, tokenCache *TokenMetadataCache) *ResolverService {
	return &ResolverService{
		walletRepo: walletRepo,
		tokenRepo:  tokenRepo,
		tokenCache: tokenCache,
	}
}

// RunCache per-sync-run resolution cache. Confined to one sync invocation,
// never shared across concurrent runs.
type RunCache struct {
	mu      sync.Mutex
	wallets map[string]*models.Wallet // nil value = known-unresolved
}

// NewRunCache creates an empty per-run cache
func NewRunCache() *RunCache {
	return &RunCache{wallets: make(map[string]*models.Wallet)}
}

// ResolveWallets resolves the given addresses to verified wallets in as few
// batched queries as possible. Addresses that do not resolve map to nil.
func (s *ResolverService) ResolveWallets(ctx context.Context, cache *RunCache, addresses []string) (map[string]*models.Wallet, error) {
	result := make(map[string]*models.Wallet, len(addresses))

	cache.mu.Lock()
	missing := make([]string, 0, len(addresses))
	seen := make(map[string]bool, len(addresses))
	for _, raw := range addresses {
		addr := utils.NormalizeAddress(raw)
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		if wallet, ok := cache.wallets[addr]; ok {
			result[addr] = wallet
		} else {
			missing = append(missing, addr)
		}
	}
	cache.mu.Unlock()

	if len(missing) == 0 {
		return result, nil
	}

	wallets, err := s.walletRepo.FindVerifiedByAddresses(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wallets: %w", err)
	}

	resolved := make(map[string]*models.Wallet, len(wallets))
	for _, w := range wallets {
		resolved[w.Address] = w
	}

	cache.mu.Lock()
	for _, addr := range missing {
		wallet := resolved[addr] // nil when unresolved, cached either way
		cache.wallets[addr] = wallet
		result[addr] = wallet
	}
	cache.mu.Unlock()

	return result, nil
}

// ResolveTokens resolves token metadata for contract addresses lacking an
// inline asset symbol. Cache order: process TTL cache, then one batched
// store query. Contracts that resolve nowhere map to nil.
func (s *ResolverService) ResolveTokens(ctx context.Context, networkID uint32, contracts []string) (map[string]*models.TokenInfo, error) {
	result := make(map[string]*models.TokenInfo, len(contracts))
	missing := make([]string, 0, len(contracts))
	seen := make(map[string]bool, len(contracts))

	for _, raw := range contracts {
		contract := utils.NormalizeAddress(raw)
		if contract == "" || seen[contract] {
			continue
		}
		seen[contract] = true
		if info, ok := s.tokenCache.Get(networkID, contract); ok {
			result[contract] = info
		} else {
			missing = append(missing, contract)
		}
	}

	if len(missing) == 0 {
		return result, nil
	}

	stored, err := s.tokenRepo.FindByContracts(ctx, networkID, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tokens: %w", err)
	}

	for _, contract := range missing {
		info := stored[contract]
		if info != nil {
			s.tokenCache.Put(networkID, contract, info)
		}
		result[contract] = info
	}

	return result, nil
}

// RecordToken persists freshly observed token metadata and refreshes the cache
func (s *ResolverService) RecordToken(ctx context.Context, info *models.TokenInfo) error {
	if err := s.tokenRepo.Upsert(ctx, info); err != nil {
		return err
	}
	s.tokenCache.Put(info.NetworkID, info.ContractAddress, info)
	return nil
}
