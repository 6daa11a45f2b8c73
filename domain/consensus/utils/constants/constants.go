package constants

const (
	// HashSize is the size in bytes of a block hash (the width of a SHA-256 digest).
	HashSize = 32

	// PayloadSize is the fixed size in bytes of a block's payload.
	PayloadSize = 1024

	// NonceSize is the size in bytes of a serialized nonce.
	NonceSize = 8

	// BlockSize is the size in bytes of a serialized block:
	// previous hash, nonce and payload.
	BlockSize = HashSize + NonceSize + PayloadSize

	// Difficulty is the number of leading bytes of a block hash that must all
	// be zero for the block to be considered verified.
	Difficulty = 2

	// MaxMiningNonce bounds the nonce search performed while mining. Mining
	// never tries a nonce greater than this value.
	MaxMiningNonce uint64 = 1 << 24
)
