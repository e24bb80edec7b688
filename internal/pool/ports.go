package pool

import (
	"context"

	"github.com/holiman/uint256"

	"ammpool/internal/model"
)

// MetadataFetcher resolves asset metadata from the asset's own registry.
// The call may take arbitrarily long; the pool issues it from a goroutine
// and applies the result through the pending-callback table.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, asset model.AssetID) (model.AssetMetadata, error)
}

// TransferSender executes a real cross-ledger transfer of pool-held funds
// to an account on the asset's own ledger. A nil return confirms the
// transfer; any error means nothing moved.
type TransferSender interface {
	TransferExternal(ctx context.Context, asset model.AssetID, to model.AccountID, amount *uint256.Int) error
}
