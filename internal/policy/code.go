package policy

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	eventCodeMin   = 100000
	eventCodeRange = 900000
	// EventCodeLength is the number of digits in an event code
	EventCodeLength = 6
)

// GenerateEventCode returns a random six digit code in [100000, 999999]
func GenerateEventCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(eventCodeRange))
	if err != nil {
		return "", fmt.Errorf("failed to generate event code: %w", err)
	}
	return fmt.Sprintf("%d", eventCodeMin+n.Int64()), nil
}

// IsEventCode reports whether s has the shape of an event code
func IsEventCode(s string) bool {
	if len(s) != EventCodeLength {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
