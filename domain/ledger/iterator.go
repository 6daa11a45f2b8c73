package ledger

import (
	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
)

// ChainIterator walks the canonical chain from its head back to the block
// right after genesis. It reflects the head at the time it was created.
type ChainIterator struct {
	ledger  *Ledger
	cursor  externalapi.DomainHash
	current *externalapi.DomainBlock
	err     error
}

// CanonicalIterator returns an iterator over the canonical chain, newest
// block first. Genesis is never yielded. Every call starts a fresh walk.
func (l *Ledger) CanonicalIterator() *ChainIterator {
	return &ChainIterator{
		ledger: l,
		cursor: *l.Head(),
	}
}

// Next advances the iterator. It returns false once genesis is reached, or
// if reading a block fails; see Err.
func (it *ChainIterator) Next() bool {
	if it.err != nil || it.cursor.IsGenesis() {
		it.current = nil
		return false
	}

	block, err := it.ledger.Block(&it.cursor)
	if err != nil {
		it.err = err
		it.current = nil
		return false
	}
	it.current = block
	it.cursor = block.Previous
	return true
}

// Get returns the block the iterator is at.
func (it *ChainIterator) Get() *externalapi.DomainBlock {
	return it.current
}

// Err returns the error that stopped the iteration, if any.
func (it *ChainIterator) Err() error {
	return it.err
}

// CanonicalChain returns the blocks of the canonical chain ordered from the
// block right after genesis to the head.
func (l *Ledger) CanonicalChain() ([]*externalapi.DomainBlock, error) {
	l.lock.RLock()
	headLength := l.chainLengths[l.tip]
	l.lock.RUnlock()

	chain := make([]*externalapi.DomainBlock, 0, headLength)
	it := l.CanonicalIterator()
	for it.Next() {
		chain = append(chain, it.Get())
	}
	if it.Err() != nil {
		return nil, it.Err()
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
