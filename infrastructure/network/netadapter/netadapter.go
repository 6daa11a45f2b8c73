package netadapter

import (
	"sync"
	"sync/atomic"

	"github.com/hashchaind/hashchaind/infrastructure/config"
	routerpkg "github.com/hashchaind/hashchaind/infrastructure/network/netadapter/router"
	"github.com/hashchaind/hashchaind/infrastructure/network/netadapter/server"
	"github.com/hashchaind/hashchaind/infrastructure/network/netadapter/server/grpcserver"
	"github.com/pkg/errors"
)

// OnConnectedHandler is called once for every new connection, before any of
// its messages are handled.
type OnConnectedHandler func(connection *NetConnection)

// OnMessageHandler is called for every message received from a peer.
type OnMessageHandler func(connection *NetConnection, message []byte)

// NetAdapter is an abstraction layer over networking.
// This type expects an OnConnectedHandler and an OnMessageHandler
// to be set before it is started. Messages are opaque byte slices;
// making sense of them is up to the handlers.
type NetAdapter struct {
	cfg                *config.Config
	p2pServer          server.P2PServer
	onConnectedHandler OnConnectedHandler
	onMessageHandler   OnMessageHandler
	stop               uint32

	connections     map[*NetConnection]struct{}
	connectionsLock sync.RWMutex
}

// NewNetAdapter creates a new NetAdapter listening on
// cfg.Listeners once started
func NewNetAdapter(cfg *config.Config) (*NetAdapter, error) {
	p2pServer, err := grpcserver.NewP2PServer(cfg.Listeners, cfg.ListenRetries, grpcserver.DialFunc(cfg.Dial))
	if err != nil {
		return nil, err
	}
	adapter := NetAdapter{
		cfg:       cfg,
		p2pServer: p2pServer,

		connections: make(map[*NetConnection]struct{}),
	}

	adapter.p2pServer.SetOnConnectedHandler(adapter.onP2PConnectedHandler)

	return &adapter, nil
}

// Start begins the operation of the NetAdapter
func (na *NetAdapter) Start() error {
	if na.onConnectedHandler == nil {
		return errors.New("onConnectedHandler was not set")
	}
	if na.onMessageHandler == nil {
		return errors.New("onMessageHandler was not set")
	}

	return na.p2pServer.Start()
}

// Stop safely closes the NetAdapter
func (na *NetAdapter) Stop() error {
	if atomic.AddUint32(&na.stop, 1) != 1 {
		return errors.New("net adapter stopped more than once")
	}
	for _, connection := range na.Connections() {
		connection.Disconnect()
	}
	return na.p2pServer.Stop()
}

// Connect tells the NetAdapter's underlying p2p server to initiate a connection
// to the given address
func (na *NetAdapter) Connect(address string) error {
	_, err := na.p2pServer.Connect(address)
	return err
}

// ListeningAddresses returns the addresses the NetAdapter listens on
func (na *NetAdapter) ListeningAddresses() []string {
	return na.p2pServer.ListeningAddresses()
}

// Connections returns a list of connections currently connected and active
func (na *NetAdapter) Connections() []*NetConnection {
	na.connectionsLock.RLock()
	defer na.connectionsLock.RUnlock()

	netConnections := make([]*NetConnection, 0, len(na.connections))

	for netConnection := range na.connections {
		netConnections = append(netConnections, netConnection)
	}

	return netConnections
}

// ConnectionCount returns the count of the connected connections
func (na *NetAdapter) ConnectionCount() int {
	na.connectionsLock.RLock()
	defer na.connectionsLock.RUnlock()

	return len(na.connections)
}

func (na *NetAdapter) onP2PConnectedHandler(connection server.Connection) error {
	netConnection := newNetConnection(connection)

	na.connectionsLock.Lock()
	netConnection.setOnDisconnectedHandler(func() {
		na.connectionsLock.Lock()
		defer na.connectionsLock.Unlock()

		delete(na.connections, netConnection)
		netConnection.router.Close()
	})
	na.connections[netConnection] = struct{}{}
	na.connectionsLock.Unlock()

	na.onConnectedHandler(netConnection)
	netConnection.start(na.onMessageHandler)

	return nil
}

// SetOnConnectedHandler sets the function called for every new connection
func (na *NetAdapter) SetOnConnectedHandler(onConnectedHandler OnConnectedHandler) {
	na.onConnectedHandler = onConnectedHandler
}

// SetOnMessageHandler sets the function called for every received message
func (na *NetAdapter) SetOnMessageHandler(onMessageHandler OnMessageHandler) {
	na.onMessageHandler = onMessageHandler
}

// Broadcast sends the given message to every connected peer. Peers whose
// outgoing route is full are disconnected.
func (na *NetAdapter) Broadcast(message []byte) error {
	for _, netConnection := range na.Connections() {
		err := netConnection.Send(message)
		if err != nil {
			if errors.Is(err, routerpkg.ErrRouteClosed) {
				log.Debugf("Cannot enqueue message to %s: router is closed", netConnection)
				continue
			}
			if errors.Is(err, routerpkg.ErrRouteCapacityReached) {
				log.Warnf("Disconnecting from %s: %s", netConnection, err)
				netConnection.Disconnect()
				continue
			}
			return err
		}
	}
	return nil
}
