package hashes

import (
	"crypto/sha256"
	"hash"

	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// HashWriter is used to incrementally hash data without concatenating all of the data to a single buffer
// it exposes an io.Writer api and a Finalize function to get the resulting hash.
// The used hash function is SHA-256.
type HashWriter struct {
	hash.Hash
}

// NewBlockHashWriter returns a new HashWriter for block hashes
func NewBlockHashWriter() HashWriter {
	return HashWriter{sha256.New()}
}

// InfallibleWrite is just like write but doesn't return anything
func (h HashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash interface contract.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash
func (h HashWriter) Finalize() *externalapi.DomainHash {
	var sum externalapi.DomainHash
	copy(sum[:], h.Sum(sum[:0]))
	return &sum
}
