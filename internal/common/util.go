package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// MakeRandHexString returns a hex string built from size cryptographically
// random bytes, so the result is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("rand read: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

const shareCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// MakeRandString returns a string of length characters drawn uniformly from
// the upper-case alphanumeric alphabet.
func MakeRandString(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(shareCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("rand int: %w", err)
		}
		buf[i] = shareCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
