package binaryserializer

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// maxItems is the number of buffers to keep in the free
// list to use for binary serialization and deserialization.
const maxItems = 1024

// All multi-byte integers on the wire are in network byte order.
var byteOrder = binary.BigEndian

// Borrow returns a byte slice from the free list with a length of 8. A new
// buffer is allocated if there are not any available on the free list.
func Borrow() []byte {
	var buf []byte
	select {
	case buf = <-binaryFreeList:
	default:
		buf = make([]byte, 8)
	}
	return buf[:8]
}

// Return puts the provided byte slice back on the free list. The buffer MUST
// have been obtained via the Borrow function and therefore have a cap of 8.
func Return(buf []byte) {
	select {
	case binaryFreeList <- buf:
	default:
		// Let it go to the garbage collector.
	}
}

// Uint64 reads eight bytes from the provided reader using a buffer from the
// free list and returns them as a big endian uint64.
func Uint64(r io.Reader) (uint64, error) {
	buf := Borrow()
	defer Return(buf)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, errors.WithStack(err)
	}
	return byteOrder.Uint64(buf), nil
}

// PutUint64 serializes the provided uint64 in big endian order and writes the
// resulting eight bytes to the given writer.
func PutUint64(w io.Writer, val uint64) error {
	buf := Borrow()
	defer Return(buf)
	byteOrder.PutUint64(buf, val)
	_, err := w.Write(buf)
	return errors.WithStack(err)
}

// binaryFreeList provides a concurrent safe free list of 8-byte buffers used
// when serializing and deserializing integers to and from io.Readers and
// io.Writers, which keeps the number of allocations per block low.
var binaryFreeList = make(chan []byte, maxItems)
