package ledger

import (
	"context"
	"sync"

	"github.com/hashchaind/hashchaind/domain/consensus/datastructures/blockstore"
	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/consensus/ruleerrors"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/consensushashing"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/pow"
	"github.com/hashchaind/hashchaind/infrastructure/logger"
	"github.com/pkg/errors"
)

// Ledger keeps every verified block it was given and selects the canonical
// chain among them: the longest chain of blocks linked back to genesis, with
// ties broken in favor of the numerically greatest tip hash.
//
// All methods are safe for concurrent access. Every mutation, including the
// cascade of previously pending blocks it may trigger, happens under a single
// lock.
type Ledger struct {
	lock sync.RWMutex

	blockStore *blockstore.BlockStore

	// chainLengths holds the number of blocks between genesis (exclusive) and
	// every block whose ancestry is fully known (inclusive).
	chainLengths map[externalapi.DomainHash]uint64

	// tip caches the hash selected by isBetterTip over all of chainLengths.
	tip externalapi.DomainHash

	pending pendingBlocks
}

// New returns an empty Ledger that only knows about genesis.
func New() (*Ledger, error) {
	blockStore, err := blockstore.New()
	if err != nil {
		return nil, err
	}
	return &Ledger{
		blockStore:   blockStore,
		chainLengths: map[externalapi.DomainHash]uint64{externalapi.GenesisHash: 0},
		tip:          externalapi.GenesisHash,
		pending:      newPendingBlocks(),
	}, nil
}

// Close releases the resources held by the ledger.
func (l *Ledger) Close() error {
	return l.blockStore.Close()
}

// Head returns the hash of the tip of the canonical chain. It is the genesis
// hash while no block is linked to genesis.
func (l *Ledger) Head() *externalapi.DomainHash {
	l.lock.RLock()
	defer l.lock.RUnlock()

	head := l.tip
	return &head
}

// isBetterTip returns whether a block of the given hash and chain length
// should replace tip as the head of the ledger.
func isBetterTip(hash *externalapi.DomainHash, length uint64,
	tip *externalapi.DomainHash, tipLength uint64) bool {

	if length != tipLength {
		return length > tipLength
	}
	return hash.Cmp(tip) > 0
}

// Append admits block into the ledger. Blocks that do not satisfy the
// proof-of-work predicate are rejected with ruleerrors.ErrUnverifiedBlock
// and leave the ledger unchanged.
//
// A block whose parent chain is not known yet is stored and kept pending
// until its parent is appended. Appending a block that was already appended
// is a no-op.
func (l *Ledger) Append(block *externalapi.DomainBlock) (*externalapi.DomainBlock, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.appendNoLock(block)
}

func (l *Ledger) appendNoLock(block *externalapi.DomainBlock) (*externalapi.DomainBlock, error) {
	hash := consensushashing.BlockHash(block)
	if !pow.CheckHash(hash) {
		return nil, errors.Wrapf(ruleerrors.ErrUnverifiedBlock, "block %s", hash)
	}

	if _, ok := l.chainLengths[*hash]; ok {
		log.Debugf("Block %s is already in the ledger", hash)
		return block.Clone(), nil
	}
	if l.pending.has(hash) {
		log.Debugf("Block %s is already pending", hash)
		return block.Clone(), nil
	}

	err := l.blockStore.Put(hash, block)
	if err != nil {
		return nil, err
	}

	parentLength, ok := l.chainLengths[block.Previous]
	if !ok {
		log.Infof("Block %s is pending on unknown parent %s", hash, block.Previous)
		l.pending.add(hash, block)
		return block.Clone(), nil
	}

	l.setChainLength(hash, parentLength+1)
	log.Debugf("Accepted block %s at chain length %d", hash, parentLength+1)
	l.resolvePending(hash)

	return block.Clone(), nil
}

func (l *Ledger) setChainLength(hash *externalapi.DomainHash, length uint64) {
	l.chainLengths[*hash] = length
	if isBetterTip(hash, length, &l.tip, l.chainLengths[l.tip]) {
		log.Debugf("New head %s at chain length %d", hash, length)
		l.tip = *hash
	}
}

// resolvePending links every pending block that was waiting, directly or
// through other pending blocks, on the newly linked block hash. Blocks are
// linked in the order they became pending.
func (l *Ledger) resolvePending(hash *externalapi.DomainHash) {
	queue := []externalapi.DomainHash{*hash}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		parentLength := l.chainLengths[parent]
		for _, child := range l.pending.removeChildrenOf(&parent) {
			if _, ok := l.chainLengths[child.hash]; ok {
				continue
			}
			l.setChainLength(&child.hash, parentLength+1)
			log.Debugf("Accepted previously pending block %s at chain length %d", child.hash, parentLength+1)
			queue = append(queue, child.hash)
		}
	}
}

// Write mines a block carrying data on top of the current head and appends
// it. data is zero padded to the payload size; longer data is rejected with
// ruleerrors.ErrFormat.
//
// The head is read once, before mining. If another block is appended while
// mining, the written block may become a sibling of it rather than its child.
func (l *Ledger) Write(data []byte) (*externalapi.DomainBlock, error) {
	return l.WriteWithContext(context.Background(), data)
}

// WriteWithContext is like Write, but stops mining once ctx is done.
func (l *Ledger) WriteWithContext(ctx context.Context, data []byte) (*externalapi.DomainBlock, error) {
	payload, err := externalapi.NewDomainPayload(data)
	if err != nil {
		return nil, err
	}

	onEnd := logger.LogAndMeasureExecutionTime(log, "Ledger.Write mining")
	mined, err := pow.MineWithContext(ctx, externalapi.NewDomainBlock(l.Head(), payload))
	onEnd()
	if err != nil {
		return nil, err
	}

	return l.Append(mined)
}

// Block returns the stored block of the given hash, pending or not.
func (l *Ledger) Block(hash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	return l.blockStore.Get(hash)
}

// HasBlock returns whether a block of the given hash is stored, pending or not.
func (l *Ledger) HasBlock(hash *externalapi.DomainHash) (bool, error) {
	return l.blockStore.Has(hash)
}

// ChainLength returns the chain length of the given hash, and false if the
// hash is not linked to genesis.
func (l *Ledger) ChainLength(hash *externalapi.DomainHash) (uint64, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	length, ok := l.chainLengths[*hash]
	return length, ok
}

// BlockCount returns the number of stored blocks, pending ones included.
func (l *Ledger) BlockCount() int {
	return l.blockStore.Count()
}

// ChainLengthCount returns the number of hashes linked to genesis, genesis
// itself included.
func (l *Ledger) ChainLengthCount() int {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return len(l.chainLengths)
}

// PendingCount returns the number of blocks waiting for an unknown parent.
func (l *Ledger) PendingCount() int {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return l.pending.count()
}
