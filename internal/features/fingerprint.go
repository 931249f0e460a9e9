package features

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrFingerprintMismatch is returned when a persisted artifact bundle was
// produced against a different feature layout than the one compiled into
// this binary. Scoring with a drifted layout would silently mis-score
// every row, so the mismatch is terminal.
var ErrFingerprintMismatch = errors.New("feature schema fingerprint mismatch")

// Fingerprint computes the schema fingerprint of an ordered feature list.
// Both names and order are significant.
func Fingerprint(names []string) string {
	sum := sha256.Sum256([]byte(strings.Join(names, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// ValidateFingerprint checks a persisted feature list and fingerprint
// against the layout compiled into this binary.
func ValidateFingerprint(names []string, fingerprint string) error {
	if Fingerprint(names) != fingerprint {
		return ErrFingerprintMismatch
	}
	if Fingerprint(Names()) != fingerprint {
		return ErrFingerprintMismatch
	}
	return nil
}
