package ledger

import (
	"context"

	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
)

// BlockBroadcaster delivers an encoded block to every connected peer.
type BlockBroadcaster interface {
	Broadcast(encodedBlock []byte) error
}

// BlockAppender admits blocks received from outside the node.
type BlockAppender interface {
	Append(block *externalapi.DomainBlock) (*externalapi.DomainBlock, error)
}

// BlockWriter mines local data into new blocks.
type BlockWriter interface {
	Write(data []byte) (*externalapi.DomainBlock, error)
	WriteWithContext(ctx context.Context, data []byte) (*externalapi.DomainBlock, error)
}

// ChainProvider exposes the canonical chain, oldest block first.
type ChainProvider interface {
	CanonicalChain() ([]*externalapi.DomainBlock, error)
}

var (
	_ BlockAppender = (*Ledger)(nil)
	_ BlockWriter   = (*Ledger)(nil)
	_ ChainProvider = (*Ledger)(nil)
)
