package amm

import "github.com/holiman/uint256"

// Proportional reports whether a deposit (amtA, amtB) matches the current
// reserve ratio exactly: resA*amtB == resB*amtA. The comparison happens at
// the assets' native scale; any deviation rejects the whole deposit.
func Proportional(resA, resB, amtA, amtB *uint256.Int) (bool, error) {
	left := new(uint256.Int)
	if _, overflow := left.MulOverflow(resA, amtB); overflow {
		return false, ErrOverflow
	}
	right := new(uint256.Int)
	if _, overflow := right.MulOverflow(resB, amtA); overflow {
		return false, ErrOverflow
	}
	return left.Eq(right), nil
}

// MintShare is the LP share minted for an accepted deposit: the sum of both
// amounts normalized to the pair's common precision. The additive formula is
// kept as-is; it is the pool's defined share accounting, not standard
// geometric-mean LP math.
func MintShare(amtA *uint256.Int, decimalsA uint8, amtB *uint256.Int, decimalsB uint8) (*uint256.Int, error) {
	maxDecimals := MaxDecimals(decimalsA, decimalsB)
	a, err := ScaleUp(amtA, maxDecimals-decimalsA)
	if err != nil {
		return nil, err
	}
	b, err := ScaleUp(amtB, maxDecimals-decimalsB)
	if err != nil {
		return nil, err
	}
	share := new(uint256.Int)
	if _, overflow := share.AddOverflow(a, b); overflow {
		return nil, ErrOverflow
	}
	return share, nil
}

// Payout computes the reserve amount released when a provider exits:
// supply * reserve / callerBalance. The divisor is the caller's own LP
// balance, which is this pool's defined exit formula.
func Payout(supply, reserve, callerBalance *uint256.Int) (*uint256.Int, error) {
	if callerBalance.IsZero() {
		return nil, ErrDivisionByZero
	}
	out := new(uint256.Int)
	if _, overflow := out.MulOverflow(supply, reserve); overflow {
		return nil, ErrOverflow
	}
	return out.Div(out, callerBalance), nil
}
