package pow

import (
	"context"
	"sync/atomic"

	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/consensus/ruleerrors"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/consensushashing"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

// cancellationCheckInterval is the number of nonces tried between checks of
// the mining context.
const cancellationCheckInterval = 1 << 12

var hashesTried uint64

// HashesTried returns the number of nonces tried by all miners since the
// process started.
func HashesTried() uint64 {
	return atomic.LoadUint64(&hashesTried)
}

// IsVerified returns whether the hash of block satisfies the proof-of-work
// predicate: its first constants.Difficulty bytes sum to zero.
func IsVerified(block *externalapi.DomainBlock) bool {
	return CheckHash(consensushashing.BlockHash(block))
}

// CheckHash returns whether hash satisfies the proof-of-work predicate.
func CheckHash(hash *externalapi.DomainHash) bool {
	sum := 0
	for _, b := range hash[:constants.Difficulty] {
		sum += int(b)
	}
	return sum == 0
}

// Mine returns a verified copy of block. Nonces are tried in increasing order
// starting at block.Nonce+1 and up to constants.MaxMiningNonce; if none of
// them verifies ruleerrors.ErrProofOfWorkExhausted is returned. The passed
// block is never modified.
func Mine(block *externalapi.DomainBlock) (*externalapi.DomainBlock, error) {
	return MineWithContext(context.Background(), block)
}

// MineWithContext is like Mine, but gives up with ctx's error once ctx is done.
func MineWithContext(ctx context.Context, block *externalapi.DomainBlock) (*externalapi.DomainBlock, error) {
	candidate := block.Clone()
	for tried := uint64(0); candidate.Nonce < constants.MaxMiningNonce; tried++ {
		if tried%cancellationCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, errors.WithStack(ctx.Err())
			default:
			}
		}

		candidate.Nonce++
		atomic.AddUint64(&hashesTried, 1)
		if IsVerified(candidate) {
			return candidate, nil
		}
	}

	return nil, errors.Wrapf(ruleerrors.ErrProofOfWorkExhausted, "no verified nonce in (%d, %d] for payload %q",
		block.Nonce, constants.MaxMiningNonce, candidate.Payload.Trimmed())
}
