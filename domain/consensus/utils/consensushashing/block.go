package consensushashing

import (
	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/hashes"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// BlockHash returns the given block's hash: the SHA-256 digest of its full
// fixed size encoding.
func BlockHash(block *externalapi.DomainBlock) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	err := serialization.SerializeBlockTo(writer, block)
	if err != nil {
		// It seems like this could only happen if the writer returned an error.
		// and this writer should never return an error (no allocations or possible failures)
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}

	return writer.Finalize()
}
