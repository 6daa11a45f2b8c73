package externalapi

import (
	"bytes"
	"encoding/hex"

	"github.com/hashchaind/hashchaind/domain/consensus/ruleerrors"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

// DomainHashSize of array used to store hashes.
const DomainHashSize = constants.HashSize

// DomainHash is the domain representation of a block hash. It is a fixed size
// array so that it can be used as a map key.
type DomainHash [DomainHashSize]byte

// GenesisHash is the all-zero hash. It stands for "no parent" and is never the
// hash of a stored block.
var GenesisHash = DomainHash{}

// NewDomainHashFromPaddedBytes returns a hash holding hashBytes followed by
// zero bytes up to DomainHashSize. Inputs longer than DomainHashSize are
// rejected with ruleerrors.ErrFormat.
func NewDomainHashFromPaddedBytes(hashBytes []byte) (*DomainHash, error) {
	if len(hashBytes) > DomainHashSize {
		return nil, errors.Wrapf(ruleerrors.ErrFormat, "hash is %d bytes long, "+
			"while it can be at most %d", len(hashBytes), DomainHashSize)
	}
	var hash DomainHash
	copy(hash[:], hashBytes)
	return &hash, nil
}

// NewDomainHashFromString parses a hash from its hexadecimal representation.
func NewDomainHashFromString(hashString string) (*DomainHash, error) {
	expectedLength := DomainHashSize * 2
	if len(hashString) != expectedLength {
		return nil, errors.Wrapf(ruleerrors.ErrFormat, "hash string length is %d, while it should be %d",
			len(hashString), expectedLength)
	}

	hashBytes, err := hex.DecodeString(hashString)
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrFormat, "invalid hash string: %s", err)
	}
	return NewDomainHashFromPaddedBytes(hashBytes)
}

// String returns the Hash as the hexadecimal string of the hash.
func (hash DomainHash) String() string {
	return hex.EncodeToString(hash[:])
}

// ByteSlice returns a copy of the hash bytes.
func (hash *DomainHash) ByteSlice() []byte {
	clone := *hash
	return clone[:]
}

// IsGenesis returns whether hash is the all-zero genesis sentinel.
func (hash *DomainHash) IsGenesis() bool {
	return *hash == GenesisHash
}

// Equal returns whether hash equals to other
func (hash *DomainHash) Equal(other *DomainHash) bool {
	if hash == nil || other == nil {
		return hash == other
	}
	return *hash == *other
}

// Cmp compares two hashes as unsigned big endian numbers and returns:
//
//	-1 if hash <  other
//	 0 if hash == other
//	+1 if hash >  other
func (hash *DomainHash) Cmp(other *DomainHash) int {
	return bytes.Compare(hash[:], other[:])
}

// Less returns true iff hash is numerically less than other
func (hash *DomainHash) Less(other *DomainHash) bool {
	return hash.Cmp(other) < 0
}
