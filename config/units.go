package config

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const etherDecimals = 18

// ParseEther converts a decimal amount of whole units ("1", "0.5") to base units.
func ParseEther(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	wei := d.Shift(etherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("%s has more than %d decimals", s, etherDecimals)
	}
	if wei.Sign() < 0 {
		return nil, fmt.Errorf("%s is negative", s)
	}
	return wei.BigInt(), nil
}

// FormatEther renders base units as a decimal amount of whole units.
func FormatEther(wei *big.Int) string {
	return decimal.NewFromBigInt(wei, -etherDecimals).String()
}
