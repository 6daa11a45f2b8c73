package grpcserver

import (
	"sync"
	"sync/atomic"

	"github.com/hashchaind/hashchaind/infrastructure/network/netadapter/router"
	"github.com/hashchaind/hashchaind/infrastructure/network/netadapter/server"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type gRPCConnection struct {
	server                   *gRPCServer
	address                  string
	stream                   grpcStream
	router                   *router.Router
	lowLevelClientConnection *grpc.ClientConn

	// sendLock serializes Send and CloseSend, which gRPC does not allow to
	// run concurrently on the same stream.
	sendLock sync.Mutex

	stopChan              chan struct{}
	onDisconnectedHandler server.OnDisconnectedHandler

	isConnected uint32
}

type grpcStream interface {
	Send(*wrapperspb.BytesValue) error
	Recv() (*wrapperspb.BytesValue, error)
}

func newConnection(server *gRPCServer, address string, stream grpcStream,
	lowLevelClientConnection *grpc.ClientConn) *gRPCConnection {
	connection := &gRPCConnection{
		server:                   server,
		address:                  address,
		stream:                   stream,
		stopChan:                 make(chan struct{}),
		isConnected:              1,
		lowLevelClientConnection: lowLevelClientConnection,
	}

	return connection
}

func (c *gRPCConnection) Start(router *router.Router) {
	if c.onDisconnectedHandler == nil {
		panic(errors.New("onDisconnectedHandler is nil"))
	}

	c.router = router

	spawn("gRPCConnection.Start-connectionLoops", func() {
		err := c.connectionLoops()
		if err != nil {
			log.Errorf("error from connectionLoops for %s: %s", c.address, err)
		}
	})
}

func (c *gRPCConnection) String() string {
	return c.address
}

func (c *gRPCConnection) IsConnected() bool {
	return atomic.LoadUint32(&c.isConnected) != 0
}

func (c *gRPCConnection) SetOnDisconnectedHandler(onDisconnectedHandler server.OnDisconnectedHandler) {
	c.onDisconnectedHandler = onDisconnectedHandler
}

func (c *gRPCConnection) IsOutbound() bool {
	return c.lowLevelClientConnection != nil
}

// Disconnect disconnects the connection
// Calling this function a second time doesn't do anything
//
// This is part of the Connection interface
func (c *gRPCConnection) Disconnect() {
	if !atomic.CompareAndSwapUint32(&c.isConnected, 1, 0) {
		return
	}

	close(c.stopChan)

	if c.IsOutbound() {
		c.closeSend()
		log.Debugf("Disconnected from %s", c)
	}

	log.Infof("Disconnecting from %s", c)
	if c.onDisconnectedHandler != nil {
		c.onDisconnectedHandler()
	}
}

func (c *gRPCConnection) Address() string {
	return c.address
}

func (c *gRPCConnection) receive() (*wrapperspb.BytesValue, error) {
	return c.stream.Recv()
}

func (c *gRPCConnection) send(message []byte) error {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	return c.stream.Send(&wrapperspb.BytesValue{Value: message})
}

func (c *gRPCConnection) closeSend() {
	// Closing the client connection first unblocks a pending Send or Recv.
	_ = c.lowLevelClientConnection.Close()

	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	clientStream := c.stream.(grpc.ClientStream)

	// ignore error because we don't really know what's the status of the connection
	_ = clientStream.CloseSend()
}
