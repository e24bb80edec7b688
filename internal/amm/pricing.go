package amm

import "github.com/holiman/uint256"

// CalcDy computes the output amount of a constant-product swap. x and y are
// the pre-trade reserves of the sold and bought asset, dx the amount sold,
// all normalized to the same decimal scale.
//
//	x*y = k
//	(x + dx)*(y - dy) = k
//	dy = y - x*y/(x + dx)
//
// Division is integer floor; the rounding residue stays in the pool.
func CalcDy(x, y, dx *uint256.Int) (*uint256.Int, error) {
	denom := new(uint256.Int)
	if _, overflow := denom.AddOverflow(x, dx); overflow {
		return nil, ErrOverflow
	}
	if denom.IsZero() {
		return nil, ErrDivisionByZero
	}
	product := new(uint256.Int)
	if _, overflow := product.MulOverflow(x, y); overflow {
		return nil, ErrOverflow
	}
	residual := product.Div(product, denom)
	return new(uint256.Int).Sub(y, residual), nil
}
