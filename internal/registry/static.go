package registry

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammpool/internal/model"
)

// StaticRegistry serves asset metadata from configuration. Used when the
// asset pair has no on-chain registry to query.
type StaticRegistry struct {
	metadata map[model.AssetID]model.AssetMetadata
}

func NewStaticRegistry(metadata map[model.AssetID]model.AssetMetadata) *StaticRegistry {
	return &StaticRegistry{metadata: metadata}
}

func (r *StaticRegistry) FetchMetadata(_ context.Context, asset model.AssetID) (model.AssetMetadata, error) {
	meta, ok := r.metadata[asset]
	if !ok {
		return model.AssetMetadata{}, fmt.Errorf("no metadata configured for asset %s", asset)
	}
	return meta, nil
}

// StubSender acknowledges external transfer requests without moving funds.
// It stands in for a real cross-ledger adapter in local deployments.
type StubSender struct {
	logger *zap.Logger
}

func NewStubSender(logger *zap.Logger) *StubSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubSender{logger: logger}
}

func (s *StubSender) TransferExternal(_ context.Context, asset model.AssetID, to model.AccountID, amount *uint256.Int) error {
	s.logger.Info("external transfer acknowledged",
		zap.String("asset", string(asset)),
		zap.String("to", string(to)),
		zap.String("amount", amount.String()),
	)
	return nil
}
