package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content fingerprints.
// The version suffix allows a future algorithm migration.
const (
	DomainOrder = "reorder/order/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OrderFingerprint hashes the identity-relevant fields (id, kind, position,
// parent group) of a sequence. Two sequences with equal fingerprints render
// identically; payload bytes are not part of the fingerprint.
func OrderFingerprint(items []DraggableItem) (string, error) {
	canonical, err := MarshalCanonical(OrderMaps(items))
	if err != nil {
		return "", fmt.Errorf("OrderFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOrder, canonical), nil
}

// MustOrderFingerprint is like OrderFingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustOrderFingerprint(items []DraggableItem) string {
	fp, err := OrderFingerprint(items)
	if err != nil {
		panic(err)
	}
	return fp
}
