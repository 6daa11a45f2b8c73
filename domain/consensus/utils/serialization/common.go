package serialization

import (
	"io"

	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/util/binaryserializer"
	"github.com/pkg/errors"
)

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

// WriteElement writes the network byte order representation of element to w.
func WriteElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case uint64:
		return binaryserializer.PutUint64(w, e)

	case externalapi.DomainHash:
		_, err := w.Write(e[:])
		return errors.WithStack(err)

	case *externalapi.DomainHash:
		_, err := w.Write(e[:])
		return errors.WithStack(err)

	case externalapi.DomainPayload:
		_, err := w.Write(e[:])
		return errors.WithStack(err)

	case *externalapi.DomainPayload:
		_, err := w.Write(e[:])
		return errors.WithStack(err)
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to WriteElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadElement reads the next sequence of bytes from r in network byte order
// into the concrete type pointed to by element.
func ReadElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *uint64:
		rv, err := binaryserializer.Uint64(r)
		if err != nil {
			return err
		}
		*e = rv
		return nil

	case *externalapi.DomainHash:
		_, err := io.ReadFull(r, e[:])
		return errors.WithStack(err)

	case *externalapi.DomainPayload:
		_, err := io.ReadFull(r, e[:])
		return errors.WithStack(err)
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to read type %T", element)
}

// ReadElements reads multiple items from r. It is equivalent to multiple
// calls to ReadElement.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}
