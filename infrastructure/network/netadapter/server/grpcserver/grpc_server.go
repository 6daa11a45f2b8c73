package grpcserver

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/hashchaind/hashchaind/infrastructure/network/netadapter/server"
	"github.com/hashchaind/hashchaind/util/panics"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
)

type gRPCServer struct {
	onConnectedHandler server.OnConnectedHandler
	listeningAddresses []string
	listenRetries      int
	server             *grpc.Server
	name               string

	boundAddresses     []string
	boundAddressesLock sync.Mutex
}

// newGRPCServer creates a gRPC server
func newGRPCServer(listeningAddresses []string, listenRetries int, maxMessageSize int, name string) *gRPCServer {
	log.Debugf("Created new %s GRPC server with maxMessageSize %d", name, maxMessageSize)
	return &gRPCServer{
		server:             grpc.NewServer(grpc.MaxRecvMsgSize(maxMessageSize), grpc.MaxSendMsgSize(maxMessageSize)),
		listeningAddresses: listeningAddresses,
		listenRetries:      listenRetries,
		name:               name,
	}
}

func (s *gRPCServer) Start() error {
	if s.onConnectedHandler == nil {
		return errors.New("onConnectedHandler is nil")
	}

	for _, listenAddress := range s.listeningAddresses {
		err := s.listenOn(listenAddress)
		if err != nil {
			return err
		}
	}

	return nil
}

// listenOn listens on listenAddr. If its port is taken, the following ports
// are tried until listenRetries attempts were made.
func (s *gRPCServer) listenOn(listenAddr string) error {
	host, portString, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return errors.Wrapf(err, "%s invalid listen address %s", s.name, listenAddr)
	}
	port, err := strconv.Atoi(portString)
	if err != nil {
		return errors.Wrapf(err, "%s invalid listen port %s", s.name, portString)
	}

	var listener net.Listener
	for attempt := 0; ; attempt++ {
		address := net.JoinHostPort(host, strconv.Itoa(port+attempt))
		listener, err = net.Listen("tcp", address)
		if err == nil {
			break
		}
		// Port 0 lets the system pick a port, so there is no next one to try.
		if port == 0 || attempt+1 >= s.listenRetries {
			return errors.Wrapf(err, "%s error listening on %s", s.name, listenAddr)
		}
		log.Warnf("%s could not listen on %s, trying the next port: %s", s.name, address, err)
	}

	boundAddress := listener.Addr().String()
	s.boundAddressesLock.Lock()
	s.boundAddresses = append(s.boundAddresses, boundAddress)
	s.boundAddressesLock.Unlock()

	spawn(fmt.Sprintf("%s.gRPCServer.listenOn-Serve", s.name), func() {
		err := s.server.Serve(listener)
		if err != nil {
			panics.Exit(log, fmt.Sprintf("error serving %s on %s: %+v", s.name, boundAddress, err))
		}
	})

	log.Infof("%s Server listening on %s", s.name, boundAddress)
	return nil
}

// ListeningAddresses returns the addresses the server actually listens on.
func (s *gRPCServer) ListeningAddresses() []string {
	s.boundAddressesLock.Lock()
	defer s.boundAddressesLock.Unlock()

	addresses := make([]string, len(s.boundAddresses))
	copy(addresses, s.boundAddresses)
	return addresses
}

func (s *gRPCServer) Stop() error {
	const stopTimeout = 2 * time.Second

	stopChan := make(chan interface{})
	spawn(fmt.Sprintf("%s.gRPCServer.Stop", s.name), func() {
		s.server.GracefulStop()
		close(stopChan)
	})

	select {
	case <-stopChan:
	case <-time.After(stopTimeout):
		log.Warnf("Could not gracefully stop %s: timed out after %s", s.name, stopTimeout)
		s.server.Stop()
	}
	return nil
}

// SetOnConnectedHandler sets the peer connected handler
// function for the server
func (s *gRPCServer) SetOnConnectedHandler(onConnectedHandler server.OnConnectedHandler) {
	s.onConnectedHandler = onConnectedHandler
}

func (s *gRPCServer) handleInboundConnection(stream *messageStreamServer) error {
	peerInfo, ok := peer.FromContext(stream.Context())
	if !ok {
		return errors.Errorf("Error getting stream peer info from context")
	}

	connection := newConnection(s, peerInfo.Addr.String(), stream, nil)

	err := s.onConnectedHandler(connection)
	if err != nil {
		return err
	}

	log.Infof("%s Incoming connection from %s", s.name, peerInfo.Addr)

	<-connection.stopChan

	return nil
}
