package grpcserver

import (
	"context"
	"net"
	"time"

	"github.com/hashchaind/hashchaind/infrastructure/network/netadapter/server"
	"github.com/hashchaind/hashchaind/util/panics"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding/gzip"
)

// DialFunc opens a raw connection to a peer. net.DialTimeout and proxy
// dialers both fit it.
type DialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

type p2pServer struct {
	*gRPCServer
	dial DialFunc
}

const (
	// p2pMaxMessageSize is well above the size of an encoded block
	p2pMaxMessageSize = 64 * 1024

	dialTimeout = 30 * time.Second
)

// NewP2PServer creates a new P2PServer
func NewP2PServer(listeningAddresses []string, listenRetries int, dial DialFunc) (server.P2PServer, error) {
	if dial == nil {
		dial = net.DialTimeout
	}
	gRPCServer := newGRPCServer(listeningAddresses, listenRetries, p2pMaxMessageSize, "P2P")
	p2pServer := &p2pServer{gRPCServer: gRPCServer, dial: dial}
	gRPCServer.server.RegisterService(&p2pServiceDesc, p2pServer)
	return p2pServer, nil
}

func (p *p2pServer) MessageStream(stream *messageStreamServer) error {
	defer panics.HandlePanic(log, "p2pServer.MessageStream", nil)

	return p.handleInboundConnection(stream)
}

// Connect connects to the given address
// This is part of the P2PServer interface
func (p *p2pServer) Connect(address string) (server.Connection, error) {
	log.Debugf("%s Dialing to %s", p.name, address)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	gRPCClientConnection, err := grpc.DialContext(ctx, address,
		grpc.WithInsecure(),
		grpc.WithBlock(),
		grpc.FailOnNonTempDialError(true),
		grpc.WithContextDialer(p.contextDialer),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(p2pMaxMessageSize), grpc.MaxCallSendMsgSize(p2pMaxMessageSize)))
	if err != nil {
		return nil, errors.Wrapf(err, "%s error connecting to %s", p.name, address)
	}

	stream, err := newMessageStreamClient(context.Background(), gRPCClientConnection, grpc.UseCompressor(gzip.Name))
	if err != nil {
		_ = gRPCClientConnection.Close()
		return nil, errors.Wrapf(err, "error getting client stream for %s", address)
	}

	connection := newConnection(p.gRPCServer, address, stream, gRPCClientConnection)

	err = p.onConnectedHandler(connection)
	if err != nil {
		return nil, err
	}

	log.Infof("%s Connected to %s", p.name, address)

	return connection, nil
}

func (p *p2pServer) contextDialer(ctx context.Context, address string) (net.Conn, error) {
	timeout := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	return p.dial("tcp", address, timeout)
}
