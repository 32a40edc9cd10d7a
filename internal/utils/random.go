package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomSuffix returns a uniformly random integer in [min, max]
func RandomSuffix(min, max int64) (int64, error) {
	if max < min {
		return 0, fmt.Errorf("invalid range [%d, %d]", min, max)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random suffix: %w", err)
	}
	return min + n.Int64(), nil
}

// ThreeDigitSuffix returns a random number in [100, 999]
func ThreeDigitSuffix() (int64, error) {
	return RandomSuffix(100, 999)
}
