package consensushashing

import (
	"crypto/sha256"
	"testing"

	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/serialization"
)

func TestBlockHashMatchesSerialization(t *testing.T) {
	payload, err := externalapi.NewDomainPayload([]byte("a"))
	if err != nil {
		t.Fatalf("NewDomainPayload: %+v", err)
	}
	block := externalapi.NewDomainBlock(&externalapi.GenesisHash, payload)
	block.Nonce = 42

	expected := externalapi.DomainHash(sha256.Sum256(serialization.SerializeBlock(block)))
	if hash := BlockHash(block); !hash.Equal(&expected) {
		t.Fatalf("BlockHash: got %s, want %s", hash, expected)
	}

	block.Nonce++
	if hash := BlockHash(block); hash.Equal(&expected) {
		t.Fatalf("BlockHash did not change with the nonce")
	}
}
