package snapshot

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode so equal snapshots encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a Snapshot to canonical CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return &s, nil
}

// Hash returns the SHA-256 of the canonical encoding of s.
func Hash(s *Snapshot) ([32]byte, error) {
	data, err := Marshal(s)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}
