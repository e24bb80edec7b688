package pool

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammpool/internal/model"
)

// Withdraw starts the two-phase exit of funds to the asset's external
// ledger: the external transfer is requested first, and the local mirror is
// debited only when that transfer confirms. The request id is returned
// immediately; until the callback lands, the account's local balance is
// unchanged and the caller must not assume the debit happened.
func (p *Pool) Withdraw(ctx context.Context, caller model.AccountID, asset model.AssetID, amount *uint256.Int) (uuid.UUID, error) {
	p.mu.Lock()
	if _, ok := p.assets[asset]; !ok {
		p.mu.Unlock()
		return uuid.Nil, fmt.Errorf("asset %s: %w", asset, ErrUnsupportedAsset)
	}

	cb := pendingCallback{
		id:      uuid.New(),
		kind:    pendingWithdrawTransfer,
		asset:   asset,
		account: caller,
		amount:  new(uint256.Int).Set(amount),
	}
	p.pending.add(cb)
	p.logger.Info("withdraw requested",
		zap.String("account", string(caller)),
		zap.String("asset", string(asset)),
		zap.String("amount", amount.String()),
		zap.String("request_id", cb.id.String()),
	)
	p.emit(model.PoolEvent{
		Type:      model.EventWithdrawRequested,
		Asset:     string(asset),
		Account:   string(caller),
		Amount:    cb.amount.String(),
		RequestID: cb.id.String(),
	})
	p.mu.Unlock()

	// The external call outlives the initiating request.
	dispatchCtx := context.WithoutCancel(ctx)
	go func() {
		err := p.transfers.TransferExternal(dispatchCtx, cb.asset, cb.account, new(uint256.Int).Set(cb.amount))
		if rerr := p.resolveTransfer(cb.id, err); rerr != nil {
			p.logger.Error("transfer callback rejected",
				zap.String("request_id", cb.id.String()),
				zap.Error(rerr),
			)
		}
	}()

	return cb.id, nil
}

// resolveTransfer is the single callback for an external transfer request.
// On success the local mirror is debited; on failure nothing moves locally
// and the caller must re-issue the withdrawal. A request id resolves at
// most once.
func (p *Pool) resolveTransfer(id uuid.UUID, transferErr error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cb, ok := p.pending.take(id)
	if !ok || cb.kind != pendingWithdrawTransfer {
		return ErrUnknownRequest
	}

	if transferErr != nil {
		p.logger.Warn("external transfer failed",
			zap.String("account", string(cb.account)),
			zap.String("asset", string(cb.asset)),
			zap.String("amount", cb.amount.String()),
			zap.String("request_id", id.String()),
			zap.Error(transferErr),
		)
		p.emit(model.PoolEvent{
			Type:      model.EventWithdrawFailed,
			Asset:     string(cb.asset),
			Account:   string(cb.account),
			Amount:    cb.amount.String(),
			RequestID: id.String(),
			Error:     transferErr.Error(),
		})
		return nil
	}

	if err := p.assets[cb.asset].Withdraw(cb.account, cb.amount); err != nil {
		// The external transfer went through but the mirror cannot cover
		// it; local state is now ahead of the books until reconciled.
		p.logger.Error("local debit failed after confirmed transfer",
			zap.String("account", string(cb.account)),
			zap.String("asset", string(cb.asset)),
			zap.String("amount", cb.amount.String()),
			zap.String("request_id", id.String()),
			zap.Error(err),
		)
		p.emit(model.PoolEvent{
			Type:      model.EventWithdrawFailed,
			Asset:     string(cb.asset),
			Account:   string(cb.account),
			Amount:    cb.amount.String(),
			RequestID: id.String(),
			Error:     err.Error(),
		})
		return err
	}

	p.refreshRatio()
	p.emit(model.PoolEvent{
		Type:      model.EventWithdrawConfirmed,
		Asset:     string(cb.asset),
		Account:   string(cb.account),
		Amount:    cb.amount.String(),
		RequestID: id.String(),
	})
	return nil
}
