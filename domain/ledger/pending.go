package ledger

import (
	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
)

type pendingBlock struct {
	hash  externalapi.DomainHash
	block *externalapi.DomainBlock
}

// pendingBlocks holds blocks whose parent is not linked to genesis yet,
// indexed by that parent. Several blocks may wait on the same parent; they
// are kept in the order they were added.
type pendingBlocks struct {
	byParent map[externalapi.DomainHash][]*pendingBlock
	hashes   map[externalapi.DomainHash]struct{}
}

func newPendingBlocks() pendingBlocks {
	return pendingBlocks{
		byParent: make(map[externalapi.DomainHash][]*pendingBlock),
		hashes:   make(map[externalapi.DomainHash]struct{}),
	}
}

func (pb *pendingBlocks) has(hash *externalapi.DomainHash) bool {
	_, ok := pb.hashes[*hash]
	return ok
}

func (pb *pendingBlocks) add(hash *externalapi.DomainHash, block *externalapi.DomainBlock) {
	if pb.has(hash) {
		return
	}
	pb.hashes[*hash] = struct{}{}
	pb.byParent[block.Previous] = append(pb.byParent[block.Previous], &pendingBlock{
		hash:  *hash,
		block: block.Clone(),
	})
}

// removeChildrenOf removes and returns all blocks waiting on parent.
func (pb *pendingBlocks) removeChildrenOf(parent *externalapi.DomainHash) []*pendingBlock {
	children, ok := pb.byParent[*parent]
	if !ok {
		return nil
	}
	delete(pb.byParent, *parent)
	for _, child := range children {
		delete(pb.hashes, child.hash)
	}
	return children
}

func (pb *pendingBlocks) count() int {
	return len(pb.hashes)
}

func (pb *pendingBlocks) parentCount() int {
	return len(pb.byParent)
}
