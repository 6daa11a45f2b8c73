package netadapter

import (
	"bytes"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/hashchaind/hashchaind/infrastructure/config"
)

const testTimeout = 5 * time.Second

type receivedMessage struct {
	connection *NetConnection
	message    []byte
}

func testConfig(listener string, listenRetries int) *config.Config {
	return &config.Config{
		Flags: &config.Flags{
			Listeners:     []string{listener},
			ListenRetries: listenRetries,
		},
		Dial: net.DialTimeout,
	}
}

// startTestAdapter starts a NetAdapter on a free local port and reports its
// connections and messages on the returned channels.
func startTestAdapter(t *testing.T) (*NetAdapter, chan *NetConnection, chan receivedMessage) {
	adapter, err := NewNetAdapter(testConfig("127.0.0.1:0", 1))
	if err != nil {
		t.Fatalf("NewNetAdapter: %+v", err)
	}

	connected := make(chan *NetConnection, 10)
	received := make(chan receivedMessage, 10)
	adapter.SetOnConnectedHandler(func(connection *NetConnection) {
		connected <- connection
	})
	adapter.SetOnMessageHandler(func(connection *NetConnection, message []byte) {
		received <- receivedMessage{connection: connection, message: message}
	})

	err = adapter.Start()
	if err != nil {
		t.Fatalf("Start: %+v", err)
	}
	t.Cleanup(func() {
		_ = adapter.Stop()
	})
	return adapter, connected, received
}

func waitForConnection(t *testing.T, connected chan *NetConnection) *NetConnection {
	select {
	case connection := <-connected:
		return connection
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for a connection")
	}
	return nil
}

func waitForMessage(t *testing.T, received chan receivedMessage, expected []byte) *NetConnection {
	select {
	case message := <-received:
		if !bytes.Equal(message.message, expected) {
			t.Fatalf("unexpected message: got %x, want %x", message.message, expected)
		}
		return message.connection
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for message %x", expected)
	}
	return nil
}

func TestNetAdapter(t *testing.T) {
	adapterA, connectedA, receivedA := startTestAdapter(t)
	adapterB, connectedB, receivedB := startTestAdapter(t)

	addressesA := adapterA.ListeningAddresses()
	if len(addressesA) != 1 {
		t.Fatalf("expected a single listening address, got %v", addressesA)
	}

	err := adapterB.Connect(addressesA[0])
	if err != nil {
		t.Fatalf("Connect: %+v", err)
	}
	outbound := waitForConnection(t, connectedB)
	inbound := waitForConnection(t, connectedA)
	if !outbound.IsOutbound() || inbound.IsOutbound() {
		t.Fatalf("wrong connection directions: %s, %s", outbound, inbound)
	}
	if outbound.Address() != addressesA[0] {
		t.Fatalf("outbound connection address is %s, expected %s", outbound.Address(), addressesA[0])
	}

	// Messages arrive in the order they were sent, in both directions.
	messages := [][]byte{{1, 2, 3}, {4, 5}, {6}}
	for _, message := range messages {
		err := inbound.Send(message)
		if err != nil {
			t.Fatalf("Send: %+v", err)
		}
	}
	for _, message := range messages {
		connection := waitForMessage(t, receivedB, message)
		if connection != outbound {
			t.Fatalf("message was received on %s, expected %s", connection, outbound)
		}
	}

	err = adapterB.Broadcast([]byte{7, 7})
	if err != nil {
		t.Fatalf("Broadcast: %+v", err)
	}
	waitForMessage(t, receivedA, []byte{7, 7})

	if adapterA.ConnectionCount() != 1 || adapterB.ConnectionCount() != 1 {
		t.Fatalf("unexpected connection counts %d and %d", adapterA.ConnectionCount(), adapterB.ConnectionCount())
	}

	outbound.Disconnect()
	deadline := time.Now().Add(testTimeout)
	for adapterA.ConnectionCount() != 0 || adapterB.ConnectionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("connections were not removed after disconnecting: %d and %d",
				adapterA.ConnectionCount(), adapterB.ConnectionCount())
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Broadcasting without peers is not an error.
	err = adapterB.Broadcast([]byte{8})
	if err != nil {
		t.Fatalf("Broadcast without peers: %+v", err)
	}
}

func TestNetAdapterStartRequiresHandlers(t *testing.T) {
	adapter, err := NewNetAdapter(testConfig("127.0.0.1:0", 1))
	if err != nil {
		t.Fatalf("NewNetAdapter: %+v", err)
	}
	err = adapter.Start()
	if err == nil {
		t.Fatalf("Start without handlers succeeded")
	}
}

func TestNetAdapterConnectFailure(t *testing.T) {
	adapter, _, _ := startTestAdapter(t)

	// Take a free port and release it so nothing listens there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %+v", err)
	}
	address := listener.Addr().String()
	listener.Close()

	err = adapter.Connect(address)
	if err == nil {
		t.Fatalf("Connect to %s succeeded with nothing listening", address)
	}
	if adapter.ConnectionCount() != 0 {
		t.Fatalf("a failed connect left a connection behind")
	}
}

func TestNetAdapterListenRetries(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %+v", err)
	}
	defer taken.Close()
	takenPort := taken.Addr().(*net.TCPAddr).Port

	noop := func(adapter *NetAdapter) {
		adapter.SetOnConnectedHandler(func(*NetConnection) {})
		adapter.SetOnMessageHandler(func(*NetConnection, []byte) {})
	}

	// Without retries a taken port fails the start.
	adapter, err := NewNetAdapter(testConfig(taken.Addr().String(), 1))
	if err != nil {
		t.Fatalf("NewNetAdapter: %+v", err)
	}
	noop(adapter)
	err = adapter.Start()
	if err == nil {
		_ = adapter.Stop()
		t.Fatalf("Start on a taken port succeeded")
	}

	const retries = 16
	adapter, err = NewNetAdapter(testConfig(taken.Addr().String(), retries))
	if err != nil {
		t.Fatalf("NewNetAdapter: %+v", err)
	}
	noop(adapter)
	err = adapter.Start()
	if err != nil {
		t.Fatalf("Start with retries: %+v", err)
	}
	defer adapter.Stop()

	addresses := adapter.ListeningAddresses()
	if len(addresses) != 1 {
		t.Fatalf("expected a single listening address, got %v", addresses)
	}
	_, portString, err := net.SplitHostPort(addresses[0])
	if err != nil {
		t.Fatalf("SplitHostPort: %+v", err)
	}
	port, err := strconv.Atoi(portString)
	if err != nil {
		t.Fatalf("Atoi: %+v", err)
	}
	if port <= takenPort || port >= takenPort+retries {
		t.Fatalf("listening on port %d, expected one of the %d ports after %d", port, retries-1, takenPort)
	}
}
