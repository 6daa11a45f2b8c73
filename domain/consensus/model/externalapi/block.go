package externalapi

// DomainBlock is a single ledger entry: a link to the previous block, the
// proof-of-work nonce and the payload. Blocks are handled by value and are
// never modified once mined.
type DomainBlock struct {
	Previous DomainHash
	Nonce    uint64
	Payload  DomainPayload
}

// NewDomainBlock returns an unmined block on top of previous.
func NewDomainBlock(previous *DomainHash, payload *DomainPayload) *DomainBlock {
	return &DomainBlock{
		Previous: *previous,
		Nonce:    0,
		Payload:  *payload,
	}
}

// Clone returns a clone of DomainBlock
func (block *DomainBlock) Clone() *DomainBlock {
	clone := *block
	return &clone
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DomainBlock{DomainHash{}, 0, DomainPayload{}}

// Equal returns whether block equals to other
func (block *DomainBlock) Equal(other *DomainBlock) bool {
	if block == nil || other == nil {
		return block == other
	}
	return *block == *other
}
