package serialization

import (
	"bytes"
	"io"

	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/consensus/ruleerrors"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

// SerializeBlockTo writes the fixed size encoding of block to w:
// previous hash (32 bytes), nonce (8 bytes, big endian), payload (1024 bytes).
func SerializeBlockTo(w io.Writer, block *externalapi.DomainBlock) error {
	return WriteElements(w, &block.Previous, block.Nonce, &block.Payload)
}

// SerializeBlock returns the fixed size encoding of block.
func SerializeBlock(block *externalapi.DomainBlock) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, constants.BlockSize))
	err := SerializeBlockTo(buf, block)
	if err != nil {
		// bytes.Buffer never fails to write, and every field has a known encoding.
		panic(errors.Wrap(err, "this should never happen. serializing a block into a buffer failed"))
	}
	return buf.Bytes()
}

// DeserializeBlock decodes a block from its fixed size encoding. Buffers of
// any length other than constants.BlockSize are rejected with
// ruleerrors.ErrFormat.
func DeserializeBlock(blockBytes []byte) (*externalapi.DomainBlock, error) {
	if len(blockBytes) != constants.BlockSize {
		return nil, errors.Wrapf(ruleerrors.ErrFormat, "block buffer is %d bytes long, "+
			"while it should be %d", len(blockBytes), constants.BlockSize)
	}

	block := &externalapi.DomainBlock{}
	err := ReadElements(bytes.NewReader(blockBytes), &block.Previous, &block.Nonce, &block.Payload)
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrFormat, "malformed block buffer: %s", err)
	}
	return block, nil
}

// SerializeHash returns the raw bytes of hash.
func SerializeHash(hash *externalapi.DomainHash) []byte {
	return hash.ByteSlice()
}

// DeserializeHash decodes a hash from exactly externalapi.DomainHashSize bytes.
func DeserializeHash(hashBytes []byte) (*externalapi.DomainHash, error) {
	if len(hashBytes) != externalapi.DomainHashSize {
		return nil, errors.Wrapf(ruleerrors.ErrFormat, "hash buffer is %d bytes long, "+
			"while it should be %d", len(hashBytes), externalapi.DomainHashSize)
	}
	return externalapi.NewDomainHashFromPaddedBytes(hashBytes)
}

// SerializePayload returns the raw, padded bytes of payload.
func SerializePayload(payload *externalapi.DomainPayload) []byte {
	clone := *payload
	return clone[:]
}

// DeserializePayload decodes a payload from exactly externalapi.DomainPayloadSize bytes.
func DeserializePayload(payloadBytes []byte) (*externalapi.DomainPayload, error) {
	if len(payloadBytes) != externalapi.DomainPayloadSize {
		return nil, errors.Wrapf(ruleerrors.ErrFormat, "payload buffer is %d bytes long, "+
			"while it should be %d", len(payloadBytes), externalapi.DomainPayloadSize)
	}
	return externalapi.NewDomainPayload(payloadBytes)
}
