package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"sync-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWalletRepo struct {
	fakeWalletRepo
	mu      sync.Mutex
	queries [][]string
}

func (r *countingWalletRepo) FindVerifiedByAddresses(ctx context.Context, addresses []string) ([]*models.Wallet, error) {
	r.mu.Lock()
	r.queries = append(r.queries, addresses)
	r.mu.Unlock()
	return r.fakeWalletRepo.FindVerifiedByAddresses(ctx, addresses)
}

func (r *countingWalletRepo) queryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

type countingTokenRepo struct {
	fakeTokenRepo
	mu      sync.Mutex
	queries int
}

func (r *countingTokenRepo) FindByContracts(ctx context.Context, networkID uint32, contracts []string) (map[string]*models.TokenInfo, error) {
	r.mu.Lock()
	r.queries++
	r.mu.Unlock()
	return r.fakeTokenRepo.FindByContracts(ctx, networkID, contracts)
}

func newCountingTokenRepo() *countingTokenRepo {
	return &countingTokenRepo{fakeTokenRepo: *newFakeTokenRepo()}
}

func TestResolveWalletsBatchesAndCaches(t *testing.T) {
	walletRepo := &countingWalletRepo{fakeWalletRepo: fakeWalletRepo{wallets: []*models.Wallet{
		verifiedWallet(1, addrAlice, false, models.PrivacyModeAuto),
		verifiedWallet(2, addrBob, false, models.PrivacyModeApproval),
	}}}
	resolver := NewResolverService(walletRepo, newFakeTokenRepo(), NewTokenMetadataCache(time.Minute, nil))
	cache := NewRunCache()

	// Mixed case and duplicates collapse into one batched lookup
	resolved, err := resolver.ResolveWallets(context.Background(), cache, []string{
		"0x00000000000000000000000000000000000000A1",
		addrAlice,
		addrBob,
		addrOutsider,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, walletRepo.queryCount())
	require.Len(t, walletRepo.queries[0], 3)

	require.NotNil(t, resolved[addrAlice])
	assert.Equal(t, uint(1), resolved[addrAlice].AccountID)
	require.NotNil(t, resolved[addrBob])
	assert.Nil(t, resolved[addrOutsider])

	// Second resolution within the same run hits the cache only, including
	// the known-unresolved outsider
	resolved, err = resolver.ResolveWallets(context.Background(), cache, []string{addrAlice, addrOutsider})
	require.NoError(t, err)
	assert.Equal(t, 1, walletRepo.queryCount())
	assert.NotNil(t, resolved[addrAlice])
	assert.Nil(t, resolved[addrOutsider])

	// A fresh run cache queries again
	_, err = resolver.ResolveWallets(context.Background(), NewRunCache(), []string{addrAlice})
	require.NoError(t, err)
	assert.Equal(t, 2, walletRepo.queryCount())
}

func TestResolveWalletsIgnoresInvalidAddresses(t *testing.T) {
	walletRepo := &countingWalletRepo{}
	resolver := NewResolverService(walletRepo, newFakeTokenRepo(), NewTokenMetadataCache(time.Minute, nil))

	resolved, err := resolver.ResolveWallets(context.Background(), NewRunCache(), []string{"", "not-an-address", "0x123"})
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.Equal(t, 0, walletRepo.queryCount(), "nothing valid to look up")
}

func TestTokenMetadataCacheExpires(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	cache := NewTokenMetadataCache(10*time.Minute, clock)

	info := &models.TokenInfo{ContractAddress: addrOutsider, NetworkID: 1, Symbol: "CHZ", Decimals: 18}
	cache.Put(1, addrOutsider, info)

	got, ok := cache.Get(1, addrOutsider)
	require.True(t, ok)
	assert.Equal(t, "CHZ", got.Symbol)

	// Same contract on another network is a distinct entry
	_, ok = cache.Get(137, addrOutsider)
	assert.False(t, ok)

	now = now.Add(10*time.Minute + time.Second)
	_, ok = cache.Get(1, addrOutsider)
	assert.False(t, ok, "entry past TTL must not be served")
}

func TestResolveTokensCacheOrder(t *testing.T) {
	tokenRepo := newCountingTokenRepo()
	require.NoError(t, tokenRepo.Upsert(context.Background(), &models.TokenInfo{
		ContractAddress: addrOutsider,
		NetworkID:       1,
		Symbol:          "PSG",
		Decimals:        2,
	}))

	now := time.Unix(1_700_000_000, 0)
	cache := NewTokenMetadataCache(10*time.Minute, func() time.Time { return now })
	resolver := NewResolverService(&fakeWalletRepo{}, tokenRepo, cache)

	resolved, err := resolver.ResolveTokens(context.Background(), 1, []string{addrOutsider})
	require.NoError(t, err)
	require.NotNil(t, resolved[addrOutsider])
	assert.Equal(t, "PSG", resolved[addrOutsider].Symbol)
	assert.Equal(t, 1, tokenRepo.queries)

	// Cached: the store is not consulted again within the TTL
	resolved, err = resolver.ResolveTokens(context.Background(), 1, []string{addrOutsider})
	require.NoError(t, err)
	require.NotNil(t, resolved[addrOutsider])
	assert.Equal(t, 1, tokenRepo.queries)

	// Past the TTL the store is hit again
	now = now.Add(11 * time.Minute)
	_, err = resolver.ResolveTokens(context.Background(), 1, []string{addrOutsider})
	require.NoError(t, err)
	assert.Equal(t, 2, tokenRepo.queries)
}

func TestResolveTokensUnknownContract(t *testing.T) {
	tokenRepo := newCountingTokenRepo()
	resolver := NewResolverService(&fakeWalletRepo{}, tokenRepo, NewTokenMetadataCache(time.Minute, nil))

	resolved, err := resolver.ResolveTokens(context.Background(), 1, []string{addrCarol})
	require.NoError(t, err)
	assert.Nil(t, resolved[addrCarol])

	// Unknown contracts are not negatively cached so a later backfill of the
	// token table becomes visible
	_, err = resolver.ResolveTokens(context.Background(), 1, []string{addrCarol})
	require.NoError(t, err)
	assert.Equal(t, 2, tokenRepo.queries)
}
