package ledger

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/consensushashing"
)

func TestCanonicalIteratorOnEmptyLedger(t *testing.T) {
	l := newTestLedger(t)

	it := l.CanonicalIterator()
	if it.Next() {
		t.Fatalf("iterator over an empty ledger yielded %s", spew.Sdump(it.Get()))
	}
	if it.Err() != nil {
		t.Fatalf("Err: %+v", it.Err())
	}
	chain, err := l.CanonicalChain()
	if err != nil {
		t.Fatalf("CanonicalChain: %+v", err)
	}
	if len(chain) != 0 {
		t.Fatalf("expected an empty chain, got %d blocks", len(chain))
	}
}

func TestCanonicalIterator(t *testing.T) {
	l := newTestLedger(t)
	chain := mineChain(t, 3, "iterate")

	// A fork off the first block that loses to the main chain, and a block
	// that stays pending. Neither is part of the canonical chain.
	fork := mineBlock(t, consensushashing.BlockHash(chain[0]), "fork")
	pending := mineBlock(t, consensushashing.BlockHash(fork), "pending")
	pendingChild := mineBlock(t, consensushashing.BlockHash(pending), "pending child")
	appendAll(t, l, chain...)
	appendAll(t, l, fork, pendingChild)

	// Iterating twice yields the same blocks.
	for round := 0; round < 2; round++ {
		it := l.CanonicalIterator()
		i := len(chain) - 1
		for it.Next() {
			block := it.Get()
			if consensushashing.BlockHash(block).IsGenesis() {
				t.Fatalf("round %d: iterator yielded genesis", round)
			}
			if i < 0 {
				t.Fatalf("round %d: iterator yielded more than %d blocks", round, len(chain))
			}
			if !block.Equal(chain[i]) {
				t.Fatalf("round %d: block %d differs: %s", round, i, spew.Sdump(block, chain[i]))
			}
			i--
		}
		if it.Err() != nil {
			t.Fatalf("round %d: Err: %+v", round, it.Err())
		}
		if i != -1 {
			t.Fatalf("round %d: iterator stopped with %d blocks left", round, i+1)
		}
		if it.Next() {
			t.Fatalf("round %d: exhausted iterator advanced again", round)
		}
	}

	canonical, err := l.CanonicalChain()
	if err != nil {
		t.Fatalf("CanonicalChain: %+v", err)
	}
	if len(canonical) != len(chain) {
		t.Fatalf("CanonicalChain returned %d blocks, expected %d", len(canonical), len(chain))
	}
	for i := range chain {
		if !canonical[i].Equal(chain[i]) {
			t.Fatalf("CanonicalChain block %d differs: %s", i, spew.Sdump(canonical[i], chain[i]))
		}
	}
}

func TestCanonicalIteratorFollowsHead(t *testing.T) {
	l := newTestLedger(t)
	chain := mineChain(t, 2, "follow")
	appendAll(t, l, chain[0])

	before := l.CanonicalIterator()
	appendAll(t, l, chain[1])
	after := l.CanonicalIterator()

	count := func(it *ChainIterator) int {
		n := 0
		for it.Next() {
			n++
		}
		return n
	}
	if n := count(before); n != 1 {
		t.Fatalf("iterator created before the append yielded %d blocks", n)
	}
	if n := count(after); n != 2 {
		t.Fatalf("iterator created after the append yielded %d blocks", n)
	}
	if !after.cursor.IsGenesis() {
		t.Fatalf("exhausted iterator is at %s, expected genesis", after.cursor)
	}
	if *l.Head() == (externalapi.DomainHash{}) {
		t.Fatalf("head should not be genesis")
	}
}
