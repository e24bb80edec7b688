package pool

import (
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammpool/internal/amm"
	"ammpool/internal/ledger"
	"ammpool/internal/model"
)

// AddLiquidity moves (amtA, amtB) from the owner into the pool reserves and
// mints the LP share. Deposits are accepted only when they match the current
// reserve ratio exactly at the assets' native scale; anything else is
// rejected with reserves unchanged.
func (p *Pool) AddLiquidity(caller model.AccountID, assetA model.AssetID, amtA *uint256.Int, assetB model.AssetID, amtB *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.owner {
		return ErrUnauthorized
	}
	if assetA == assetB {
		return ErrEqualAssets
	}
	bookA, ok := p.assets[assetA]
	if !ok {
		return fmt.Errorf("asset %s: %w", assetA, ErrUnsupportedAsset)
	}
	bookB, ok := p.assets[assetB]
	if !ok {
		return fmt.Errorf("asset %s: %w", assetB, ErrUnsupportedAsset)
	}
	metaA, ok := p.metadata[assetA]
	if !ok {
		return fmt.Errorf("asset %s: %w", assetA, ErrMetadataMissing)
	}
	metaB, ok := p.metadata[assetB]
	if !ok {
		return fmt.Errorf("asset %s: %w", assetB, ErrMetadataMissing)
	}

	resA := bookA.BalanceOf(p.account)
	resB := bookB.BalanceOf(p.account)

	proportional, err := amm.Proportional(resA, resB, amtA, amtB)
	if err != nil {
		return fmt.Errorf("proportion check: %w", err)
	}
	if !proportional {
		return ErrProportionMismatch
	}

	share, err := amm.MintShare(amtA, metaA.Decimals, amtB, metaB.Decimals)
	if err != nil {
		return fmt.Errorf("share calculation: %w", err)
	}

	if bookA.BalanceOf(caller).Cmp(amtA) < 0 {
		return fmt.Errorf("asset %s: %w", assetA, ledger.ErrInsufficientBalance)
	}
	if bookB.BalanceOf(caller).Cmp(amtB) < 0 {
		return fmt.Errorf("asset %s: %w", assetB, ledger.ErrInsufficientBalance)
	}

	if err := bookA.Transfer(caller, p.account, amtA); err != nil {
		return fmt.Errorf("collect %s: %w", assetA, err)
	}
	if err := bookB.Transfer(caller, p.account, amtB); err != nil {
		_ = bookA.Transfer(p.account, caller, amtA)
		return fmt.Errorf("collect %s: %w", assetB, err)
	}
	if err := p.lp.Deposit(caller, share); err != nil {
		_ = bookA.Transfer(p.account, caller, amtA)
		_ = bookB.Transfer(p.account, caller, amtB)
		return fmt.Errorf("mint share: %w", err)
	}

	p.refreshRatio()
	p.logger.Info("liquidity added",
		zap.String("account", string(caller)),
		zap.String("share", share.String()),
		zap.String("amount_a", amtA.String()),
		zap.String("amount_b", amtB.String()),
	)
	p.emit(model.PoolEvent{
		Type:    model.EventLiquidityAdded,
		Asset:   string(assetA),
		AssetB:  string(assetB),
		Account: string(caller),
		Amount:  amtA.String(),
		AmountB: amtB.String(),
	})

	return nil
}

// RemoveLiquidity burns the caller's entire LP balance and pays out
// supply * reserve / callerBalance of each asset. The divisor is the
// caller's own balance, kept exactly as the pool's defined exit formula.
// Returns the paid amounts.
func (p *Pool) RemoveLiquidity(caller model.AccountID, assetA, assetB model.AssetID) (*uint256.Int, *uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.owner {
		return nil, nil, ErrUnauthorized
	}
	if assetA == assetB {
		return nil, nil, ErrEqualAssets
	}
	bookA, ok := p.assets[assetA]
	if !ok {
		return nil, nil, fmt.Errorf("asset %s: %w", assetA, ErrUnsupportedAsset)
	}
	bookB, ok := p.assets[assetB]
	if !ok {
		return nil, nil, fmt.Errorf("asset %s: %w", assetB, ErrUnsupportedAsset)
	}

	resA := bookA.BalanceOf(p.account)
	resB := bookB.BalanceOf(p.account)
	supply := p.lp.TotalSupply()
	balance := p.lp.BalanceOf(caller)

	payoutA, err := amm.Payout(supply, resA, balance)
	if err != nil {
		return nil, nil, fmt.Errorf("payout %s: %w", assetA, err)
	}
	payoutB, err := amm.Payout(supply, resB, balance)
	if err != nil {
		return nil, nil, fmt.Errorf("payout %s: %w", assetB, err)
	}
	if payoutA.Cmp(resA) > 0 || payoutB.Cmp(resB) > 0 {
		return nil, nil, fmt.Errorf("payout exceeds reserves: %w", ledger.ErrInsufficientBalance)
	}

	if err := p.lp.Withdraw(caller, balance); err != nil {
		return nil, nil, fmt.Errorf("burn share: %w", err)
	}
	if err := bookA.Transfer(p.account, caller, payoutA); err != nil {
		_ = p.lp.Deposit(caller, balance)
		return nil, nil, fmt.Errorf("pay out %s: %w", assetA, err)
	}
	if err := bookB.Transfer(p.account, caller, payoutB); err != nil {
		_ = bookA.Transfer(caller, p.account, payoutA)
		_ = p.lp.Deposit(caller, balance)
		return nil, nil, fmt.Errorf("pay out %s: %w", assetB, err)
	}

	p.refreshRatio()
	p.logger.Info("liquidity removed",
		zap.String("account", string(caller)),
		zap.String("burned", balance.String()),
		zap.String("amount_a", payoutA.String()),
		zap.String("amount_b", payoutB.String()),
	)
	p.emit(model.PoolEvent{
		Type:    model.EventLiquidityRemoved,
		Asset:   string(assetA),
		AssetB:  string(assetB),
		Account: string(caller),
		Amount:  payoutA.String(),
		AmountB: payoutB.String(),
	})

	return payoutA, payoutB, nil
}
