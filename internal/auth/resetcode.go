package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

// Reset codes are 6-digit numeric one-time credentials. The small code space
// is an accepted tradeoff given the 10-minute expiry; widen these bounds if
// the security posture changes.
const (
	resetCodeMin = 100000
	resetCodeMax = 999999
)

// generateResetCode draws a code uniformly from [resetCodeMin, resetCodeMax].
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeMax-resetCodeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return strconv.FormatInt(resetCodeMin+n.Int64(), 10), nil
}
