package blockstore

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
)

func TestBlockStore(t *testing.T) {
	bs, err := New()
	if err != nil {
		t.Fatalf("New: %+v", err)
	}
	defer bs.Close()

	payload, err := externalapi.NewDomainPayload([]byte("stored"))
	if err != nil {
		t.Fatalf("NewDomainPayload: %+v", err)
	}
	block := externalapi.NewDomainBlock(&externalapi.GenesisHash, payload)
	block.Nonce = 9
	hash := consensushashing.BlockHash(block)

	exists, err := bs.Has(hash)
	if err != nil || exists {
		t.Fatalf("Has before Put: %t, %v", exists, err)
	}
	_, err = bs.Get(hash)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get before Put: expected ErrNotFound, got %v", err)
	}

	for i := 0; i < 2; i++ {
		err = bs.Put(hash, block)
		if err != nil {
			t.Fatalf("Put #%d: %+v", i, err)
		}
	}
	if bs.Count() != 1 {
		t.Fatalf("Count: got %d after storing the same block twice, want 1", bs.Count())
	}

	stored, err := bs.Get(hash)
	if err != nil {
		t.Fatalf("Get: %+v", err)
	}
	if !stored.Equal(block) {
		t.Fatalf("Get: got %s, want %s", spew.Sdump(stored), spew.Sdump(block))
	}
	exists, err = bs.Has(hash)
	if err != nil || !exists {
		t.Fatalf("Has after Put: %t, %v", exists, err)
	}
}
