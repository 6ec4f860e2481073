package types

import (
	"encoding/hex"
	"errors"
)

var errLenMismatch = errors.New("txid: decoded hex is not 32 bytes")

// TxId is a transaction's canonical 32-byte double-SHA256 identifier.
// The store treats it as an opaque comparable key; nothing in the core
// parses or reinterprets the bytes.
type TxId [32]byte

// String renders the id in the lowercase hex form external protocols
// treat as canonical.
func (id TxId) String() string {
	return hex.EncodeToString(id[:])
}

// TxIdFromHex parses the canonical lowercase-hex textual form.
func TxIdFromHex(s string) (TxId, error) {
	var id TxId
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != len(id) {
		return id, errLenMismatch
	}
	copy(id[:], b)
	return id, nil
}

// TxBytes is an opaque, immutable serialized transaction. The core never
// parses it; it is only ever stored and replayed verbatim.
type TxBytes []byte

// Seq is the store's synthetic, monotonically increasing arrival index.
// It is never reused and is unrelated to any identifier the node itself
// emits. Under rapid reorgs a transaction can be removed and later
// re-inserted, consuming a new Seq each time; callers that cache by Seq
// must tolerate sparse ranges rather than assume density.
type Seq uint64
