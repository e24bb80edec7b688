package pool

import (
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammpool/internal/amm"
	"ammpool/internal/ledger"
	"ammpool/internal/model"
)

// Swap sells sellAmount of sellAsset into the pool and pays out the
// constant-product amount of buyAsset. Pricing uses the live pre-trade
// ledger balances normalized to the pair's common decimal precision; the
// computed output is truncated back to the buy asset's precision. All
// validation and math happen before any balance moves.
func (p *Pool) Swap(trader model.AccountID, buyAsset, sellAsset model.AssetID, sellAmount *uint256.Int) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if buyAsset == sellAsset {
		return nil, ErrEqualAssets
	}
	buyBook, ok := p.assets[buyAsset]
	if !ok {
		return nil, fmt.Errorf("buy asset %s: %w", buyAsset, ErrUnsupportedAsset)
	}
	sellBook, ok := p.assets[sellAsset]
	if !ok {
		return nil, fmt.Errorf("sell asset %s: %w", sellAsset, ErrUnsupportedAsset)
	}
	buyMeta, ok := p.metadata[buyAsset]
	if !ok {
		return nil, fmt.Errorf("buy asset %s: %w", buyAsset, ErrMetadataMissing)
	}
	sellMeta, ok := p.metadata[sellAsset]
	if !ok {
		return nil, fmt.Errorf("sell asset %s: %w", sellAsset, ErrMetadataMissing)
	}
	if !buyBook.Registered(trader) || !sellBook.Registered(trader) {
		return nil, fmt.Errorf("trader %s: %w", trader, ledger.ErrNotRegistered)
	}

	// Pre-trade reserves.
	x := sellBook.BalanceOf(p.account)
	y := buyBook.BalanceOf(p.account)

	maxDecimals := amm.MaxDecimals(buyMeta.Decimals, sellMeta.Decimals)
	xn, err := amm.ScaleUp(x, maxDecimals-sellMeta.Decimals)
	if err != nil {
		return nil, fmt.Errorf("normalize sell reserve: %w", err)
	}
	yn, err := amm.ScaleUp(y, maxDecimals-buyMeta.Decimals)
	if err != nil {
		return nil, fmt.Errorf("normalize buy reserve: %w", err)
	}
	dx, err := amm.ScaleUp(sellAmount, maxDecimals-sellMeta.Decimals)
	if err != nil {
		return nil, fmt.Errorf("normalize sell amount: %w", err)
	}

	dy, err := amm.CalcDy(xn, yn, dx)
	if err != nil {
		return nil, fmt.Errorf("price swap: %w", err)
	}
	buyAmount, err := amm.ScaleDown(dy, maxDecimals-buyMeta.Decimals)
	if err != nil {
		return nil, fmt.Errorf("denormalize buy amount: %w", err)
	}

	if err := sellBook.Transfer(trader, p.account, sellAmount); err != nil {
		return nil, fmt.Errorf("collect sell amount: %w", err)
	}
	if err := buyBook.Transfer(p.account, trader, buyAmount); err != nil {
		// roll back the collected sell amount
		_ = sellBook.Transfer(p.account, trader, sellAmount)
		return nil, fmt.Errorf("pay buy amount: %w", err)
	}

	p.refreshRatio()
	p.logger.Info("swap",
		zap.String("trader", string(trader)),
		zap.String("sell_asset", string(sellAsset)),
		zap.String("sell_amount", sellAmount.String()),
		zap.String("buy_asset", string(buyAsset)),
		zap.String("buy_amount", buyAmount.String()),
	)
	p.emit(model.PoolEvent{
		Type:    model.EventSwap,
		Asset:   string(sellAsset),
		AssetB:  string(buyAsset),
		Account: string(trader),
		Amount:  sellAmount.String(),
		AmountB: buyAmount.String(),
	})

	return buyAmount, nil
}
