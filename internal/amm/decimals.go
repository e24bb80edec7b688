package amm

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrDivisionByZero = errors.New("division by zero")
)

// MaxDecimals returns the common precision two assets are normalized to.
func MaxDecimals(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

func pow10(n uint8) (*uint256.Int, error) {
	ten := uint256.NewInt(10)
	out := uint256.NewInt(1)
	for i := uint8(0); i < n; i++ {
		if _, overflow := out.MulOverflow(out, ten); overflow {
			return nil, ErrOverflow
		}
	}
	return out, nil
}

// ScaleUp converts value to a representation with decimals more fractional
// digits: value * 10^decimals.
func ScaleUp(value *uint256.Int, decimals uint8) (*uint256.Int, error) {
	factor, err := pow10(decimals)
	if err != nil {
		return nil, err
	}
	out := new(uint256.Int)
	if _, overflow := out.MulOverflow(value, factor); overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// ScaleDown strips decimals fractional digits: value / 10^decimals, truncated
// toward zero. The truncated remainder is forfeited as dust and never credited
// back.
func ScaleDown(value *uint256.Int, decimals uint8) (*uint256.Int, error) {
	factor, err := pow10(decimals)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(value, factor), nil
}
