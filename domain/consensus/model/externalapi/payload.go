package externalapi

import (
	"bytes"

	"github.com/hashchaind/hashchaind/domain/consensus/ruleerrors"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

// DomainPayloadSize is the size of every block payload.
const DomainPayloadSize = constants.PayloadSize

// DomainPayload is the opaque data carried by a block, always zero padded to
// DomainPayloadSize.
type DomainPayload [DomainPayloadSize]byte

// NewDomainPayload returns a payload holding data followed by zero bytes up to
// DomainPayloadSize. Data longer than DomainPayloadSize is rejected with
// ruleerrors.ErrFormat.
func NewDomainPayload(data []byte) (*DomainPayload, error) {
	if len(data) > DomainPayloadSize {
		return nil, errors.Wrapf(ruleerrors.ErrFormat, "payload is %d bytes long, "+
			"while it can be at most %d", len(data), DomainPayloadSize)
	}
	var payload DomainPayload
	copy(payload[:], data)
	return &payload, nil
}

// Trimmed returns the payload without its trailing zero bytes. It is meant for
// display only: the padding is part of the block's identity.
func (payload *DomainPayload) Trimmed() []byte {
	return bytes.TrimRight(payload[:], "\x00")
}
