package vaulttest

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/iov-one/vault"
)

// NewCondition returns a random, unique condition. Each call returns a
// different one.
func NewCondition() vault.Condition {
	data := make([]byte, 32)
	if _, err := rand.Read(data); err != nil {
		panic(err)
	}
	return vault.NewCondition("sigs", "ed25519", data)
}

// SequenceID encodes a sequence counter the same way the persistence
// layer does it, as a big endian number.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
