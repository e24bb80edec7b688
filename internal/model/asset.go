package model

// AssetID identifies an external fungible asset ledger.
type AssetID string

// AccountID identifies an account on an asset ledger.
type AccountID string

// AssetMetadata captures fungible-asset metadata fetched from the asset's registry.
type AssetMetadata struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}
