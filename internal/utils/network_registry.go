package utils

import "fmt"

// NetworkInfo static metadata for a supported network
type NetworkInfo struct {
	NetworkID   uint32 `json:"network_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Symbol      string `json:"symbol"`
	ExplorerURL string `json:"explorer_url"`
}

// NetworkRegistry lookup table for supported networks
type NetworkRegistry struct {
	byID   map[uint32]*NetworkInfo
	bySlug map[string]*NetworkInfo
}

// GlobalNetworkRegistry global network registry
var GlobalNetworkRegistry *NetworkRegistry

func init() {
	GlobalNetworkRegistry = &NetworkRegistry{
		byID:   make(map[uint32]*NetworkInfo),
		bySlug: make(map[string]*NetworkInfo),
	}

	networks := []*NetworkInfo{
		{
			NetworkID:   1,
			Name:        "Ethereum",
			Slug:        "ethereum",
			Symbol:      "ETH",
			ExplorerURL: "https://etherscan.io",
		},
		{
			NetworkID:   137,
			Name:        "Polygon",
			Slug:        "polygon",
			Symbol:      "MATIC",
			ExplorerURL: "https://polygonscan.com",
		},
		{
			NetworkID:   56,
			Name:        "BSC",
			Slug:        "bsc",
			Symbol:      "BNB",
			ExplorerURL: "https://bscscan.com",
		},
		{
			NetworkID:   8453,
			Name:        "Base",
			Slug:        "base",
			Symbol:      "ETH",
			ExplorerURL: "https://basescan.org",
		},
	}

	for _, n := range networks {
		GlobalNetworkRegistry.byID[n.NetworkID] = n
		GlobalNetworkRegistry.bySlug[n.Slug] = n
	}
}

// GetByID looks up a network by its id
func (r *NetworkRegistry) GetByID(networkID uint32) (*NetworkInfo, error) {
	if n, ok := r.byID[networkID]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("unknown network id %d", networkID)
}

// GetBySlug looks up a network by its slug
func (r *NetworkRegistry) GetBySlug(slug string) (*NetworkInfo, error) {
	if n, ok := r.bySlug[slug]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("unknown network %s", slug)
}

// NetworkName returns the display name for a network id, or the id itself
func NetworkName(networkID uint32) string {
	if n, ok := GlobalNetworkRegistry.byID[networkID]; ok {
		return n.Name
	}
	return fmt.Sprintf("network-%d", networkID)
}
