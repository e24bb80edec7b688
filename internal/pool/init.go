package pool

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ammpool/internal/model"
)

// beginMetadataFetch issues one metadata request per configured asset.
// Each request is tracked in the pending table and resolved by exactly one
// callback; readiness is derived from the metadata map being complete, not
// from an explicit flag. A failed fetch is terminal for that request and
// leaves the pool unusable for the pair until it is restarted.
func (p *Pool) beginMetadataFetch(ctx context.Context) {
	for asset := range p.assets {
		cb := pendingCallback{
			id:    uuid.New(),
			kind:  pendingMetadataFetch,
			asset: asset,
		}
		p.pending.add(cb)
		p.logger.Info("metadata fetch issued",
			zap.String("asset", string(asset)),
			zap.String("request_id", cb.id.String()),
		)

		go func(id uuid.UUID, asset model.AssetID) {
			meta, err := p.fetcher.FetchMetadata(ctx, asset)
			if rerr := p.resolveMetadata(id, meta, err); rerr != nil {
				p.logger.Error("metadata callback rejected",
					zap.String("request_id", id.String()),
					zap.Error(rerr),
				)
			}
		}(cb.id, asset)
	}
}

// resolveMetadata is the single callback for a metadata fetch. Metadata is
// written at most once per asset; a second callback for the same request id
// is rejected with ErrUnknownRequest.
func (p *Pool) resolveMetadata(id uuid.UUID, meta model.AssetMetadata, fetchErr error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cb, ok := p.pending.take(id)
	if !ok || cb.kind != pendingMetadataFetch {
		return ErrUnknownRequest
	}

	if fetchErr != nil {
		p.logger.Error("metadata fetch failed",
			zap.String("asset", string(cb.asset)),
			zap.Error(fetchErr),
		)
		p.emit(model.PoolEvent{
			Type:      model.EventMetadataFailed,
			Asset:     string(cb.asset),
			RequestID: id.String(),
			Error:     fetchErr.Error(),
		})
		return nil
	}

	if _, exists := p.metadata[cb.asset]; !exists {
		p.metadata[cb.asset] = meta
	}
	p.logger.Info("metadata resolved",
		zap.String("asset", string(cb.asset)),
		zap.String("symbol", meta.Symbol),
		zap.Uint8("decimals", meta.Decimals),
	)
	p.emit(model.PoolEvent{
		Type:      model.EventMetadataResolved,
		Asset:     string(cb.asset),
		RequestID: id.String(),
	})

	if len(p.metadata) == len(p.assets) {
		p.readyOnce.Do(func() { close(p.readyCh) })
	}
	return nil
}
