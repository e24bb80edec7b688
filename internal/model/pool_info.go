package model

// PoolInfo is the externally visible pool state snapshot. ReserveA and
// ReserveB come from the cached ratio, not a live ledger read.
type PoolInfo struct {
	Owner     string         `json:"owner"`
	AssetA    string         `json:"asset_a"`
	AssetB    string         `json:"asset_b"`
	MetadataA *AssetMetadata `json:"metadata_a,omitempty"`
	MetadataB *AssetMetadata `json:"metadata_b,omitempty"`
	ReserveA  string         `json:"reserve_a"`
	ReserveB  string         `json:"reserve_b"`
	LPSupply  string         `json:"lp_supply"`
	Ready     bool           `json:"ready"`
}
