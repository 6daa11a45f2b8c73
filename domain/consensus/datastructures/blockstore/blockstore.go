package blockstore

import (
	"sync"

	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// ErrNotFound denotes that the requested block is not in the store.
var ErrNotFound = errors.New("block not found")

var bucket = []byte("blocks/")

// Options returns the leveldb options the store is opened with.
// It's defined as a variable for the sake of testing.
var Options = func() *opt.Options {
	return &opt.Options{
		Compression:            opt.NoCompression,
		WriteBuffer:            4 * opt.MiB,
		DisableSeeksCompaction: true,
	}
}

// BlockStore is a content addressed store of serialized blocks. It is backed
// by a leveldb instance over in-memory storage, so its content lives exactly
// as long as the process.
type BlockStore struct {
	ldb *leveldb.DB

	countLock sync.Mutex
	count     int
}

// New opens an empty BlockStore.
func New() (*BlockStore, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), Options())
	if err != nil {
		return nil, errors.Wrap(err, "failed opening the block store")
	}
	return &BlockStore{ldb: ldb}, nil
}

func key(hash *externalapi.DomainHash) []byte {
	k := make([]byte, 0, len(bucket)+externalapi.DomainHashSize)
	k = append(k, bucket...)
	return append(k, hash[:]...)
}

// Put stores block under hash. Storing a block that is already present is a
// no-op.
func (bs *BlockStore) Put(hash *externalapi.DomainHash, block *externalapi.DomainBlock) error {
	bs.countLock.Lock()
	defer bs.countLock.Unlock()

	exists, err := bs.ldb.Has(key(hash), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return nil
	}

	err = bs.ldb.Put(key(hash), serialization.SerializeBlock(block), nil)
	if err != nil {
		return errors.Wrapf(err, "failed storing block %s", hash)
	}
	bs.count++
	return nil
}

// Get returns the block stored under hash, or an error wrapping ErrNotFound.
func (bs *BlockStore) Get(hash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	blockBytes, err := bs.ldb.Get(key(hash), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "block %s", hash)
		}
		return nil, errors.WithStack(err)
	}
	return serialization.DeserializeBlock(blockBytes)
}

// Has returns whether a block is stored under hash.
func (bs *BlockStore) Has(hash *externalapi.DomainHash) (bool, error) {
	exists, err := bs.ldb.Has(key(hash), nil)
	return exists, errors.WithStack(err)
}

// Count returns the number of stored blocks.
func (bs *BlockStore) Count() int {
	bs.countLock.Lock()
	defer bs.countLock.Unlock()

	return bs.count
}

// Close releases the underlying database. The store must not be used afterwards.
func (bs *BlockStore) Close() error {
	return errors.WithStack(bs.ldb.Close())
}
