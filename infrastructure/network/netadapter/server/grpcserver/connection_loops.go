package grpcserver

import (
	"io"

	"github.com/hashchaind/hashchaind/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (c *gRPCConnection) connectionLoops() error {
	errChan := make(chan error, 2) // both loops may return before anyone reads

	spawn("gRPCConnection.receiveLoop", func() {
		err := c.receiveLoop()
		errChan <- err
	})

	spawn("gRPCConnection.sendLoop", func() {
		err := c.sendLoop()
		errChan <- err
	})

	err := <-errChan

	c.Disconnect()

	return err
}

func (c *gRPCConnection) sendLoop() error {
	outgoingRoute := c.router.OutgoingRoute()
	for c.IsConnected() {
		message, err := outgoingRoute.Dequeue()
		if err != nil {
			if errors.Is(err, router.ErrRouteClosed) {
				return nil
			}
			return err
		}

		err = c.send(message)
		if err != nil {
			return c.filterClosedStreamError(err)
		}
	}
	return nil
}

func (c *gRPCConnection) receiveLoop() error {
	incomingRoute := c.router.IncomingRoute()
	for c.IsConnected() {
		message, err := c.receive()
		if err != nil {
			return c.filterClosedStreamError(err)
		}

		err = incomingRoute.Enqueue(message.GetValue())
		if err != nil {
			if errors.Is(err, router.ErrRouteClosed) {
				return nil
			}
			return err
		}
	}
	return nil
}

// filterClosedStreamError drops errors caused by either side closing the
// stream on purpose.
func (c *gRPCConnection) filterClosedStreamError(err error) error {
	if errors.Is(err, io.EOF) || !c.IsConnected() || status.Code(err) == codes.Canceled {
		return nil
	}
	return errors.WithStack(err)
}
