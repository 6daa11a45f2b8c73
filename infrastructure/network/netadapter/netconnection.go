package netadapter

import (
	"fmt"

	routerpkg "github.com/hashchaind/hashchaind/infrastructure/network/netadapter/router"
	"github.com/hashchaind/hashchaind/infrastructure/network/netadapter/server"
)

// NetConnection is a connection to a peer, together with the routes its
// messages travel through.
type NetConnection struct {
	connection server.Connection
	router     *routerpkg.Router
}

func newNetConnection(connection server.Connection) *NetConnection {
	return &NetConnection{
		connection: connection,
		router:     routerpkg.NewRouter(connection.String()),
	}
}

func (c *NetConnection) String() string {
	direction := "inbound"
	if c.connection.IsOutbound() {
		direction = "outbound"
	}
	return fmt.Sprintf("<%s %s>", direction, c.connection)
}

// Address returns the address of the peer
func (c *NetConnection) Address() string {
	return c.connection.Address()
}

// IsOutbound returns whether the connection was initiated by this node
func (c *NetConnection) IsOutbound() bool {
	return c.connection.IsOutbound()
}

// IsConnected returns whether the connection is still up
func (c *NetConnection) IsConnected() bool {
	return c.connection.IsConnected()
}

// Send queues message to be sent to the peer
func (c *NetConnection) Send(message []byte) error {
	return c.router.OutgoingRoute().Enqueue(message)
}

// Disconnect disconnects the connection
func (c *NetConnection) Disconnect() {
	c.connection.Disconnect()
}

func (c *NetConnection) setOnDisconnectedHandler(onDisconnectedHandler server.OnDisconnectedHandler) {
	c.connection.SetOnDisconnectedHandler(onDisconnectedHandler)
}

// start starts the connection loops and hands every received message to
// onMessage, one at a time and in order of arrival.
func (c *NetConnection) start(onMessage OnMessageHandler) {
	c.connection.Start(c.router)

	spawn("NetConnection.start-handleIncomingMessages", func() {
		for {
			message, err := c.router.IncomingRoute().Dequeue()
			if err != nil {
				log.Debugf("Stopped handling messages from %s: %s", c, err)
				return
			}
			onMessage(c, message)
		}
	})
}
