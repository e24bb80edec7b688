package amm

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestScaleUp(t *testing.T) {
	got, err := ScaleUp(uint256.NewInt(50), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 50_000 {
		t.Fatalf("scale up mismatch: %s != 50000", got)
	}
}

func TestScaleDown(t *testing.T) {
	got, err := ScaleDown(uint256.NewInt(50_000), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 50 {
		t.Fatalf("scale down mismatch: %s != 50", got)
	}
}

func TestScaleDownTruncates(t *testing.T) {
	got, err := ScaleDown(uint256.NewInt(50_999), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 50 {
		t.Fatalf("truncation mismatch: %s != 50", got)
	}
}

func TestScaleRoundTrip(t *testing.T) {
	cases := []struct {
		value    uint64
		decimals uint8
	}{
		{1, 0},
		{50, 3},
		{40_000, 2},
		{1_000_000, 18},
	}

	for _, tc := range cases {
		up, err := ScaleUp(uint256.NewInt(tc.value), tc.decimals)
		if err != nil {
			t.Fatalf("scale up %d by %d: %v", tc.value, tc.decimals, err)
		}
		down, err := ScaleDown(up, tc.decimals)
		if err != nil {
			t.Fatalf("scale down %s by %d: %v", up, tc.decimals, err)
		}
		if down.Uint64() != tc.value {
			t.Fatalf("round trip mismatch: %s != %d", down, tc.value)
		}
	}
}

func TestScaleUpOverflow(t *testing.T) {
	if _, err := ScaleUp(uint256.NewInt(1), 78); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := ScaleUp(uint256.NewInt(2), 77); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestMaxDecimals(t *testing.T) {
	if got := MaxDecimals(3, 1); got != 3 {
		t.Fatalf("max decimals mismatch: %d != 3", got)
	}
	if got := MaxDecimals(1, 8); got != 8 {
		t.Fatalf("max decimals mismatch: %d != 8", got)
	}
}
