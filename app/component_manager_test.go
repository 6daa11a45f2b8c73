package app

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hashchaind/hashchaind/infrastructure/config"
)

const testTimeout = 10 * time.Second

func testConfig(connectPeers ...string) *config.Config {
	return &config.Config{
		Flags: &config.Flags{
			Listeners:     []string{"127.0.0.1:0"},
			ListenRetries: 1,
			ConnectPeers:  connectPeers,
		},
		Dial: net.DialTimeout,
	}
}

func startTestComponentManager(t *testing.T, cfg *config.Config) *ComponentManager {
	componentManager, err := NewComponentManager(cfg)
	if err != nil {
		t.Fatalf("NewComponentManager: %+v", err)
	}
	componentManager.Start()
	t.Cleanup(componentManager.Stop)
	return componentManager
}

func waitForBlockCount(t *testing.T, componentManager *ComponentManager, expected int) {
	deadline := time.Now().Add(testTimeout)
	for componentManager.Ledger().BlockCount() != expected {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d blocks, have %d",
				expected, componentManager.Ledger().BlockCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestComponentManagerSync(t *testing.T) {
	first := startTestComponentManager(t, testConfig())
	for _, data := range []string{"first", "second"} {
		_, err := first.ProtocolManager().WriteAndBroadcast(context.Background(), []byte(data))
		if err != nil {
			t.Fatalf("WriteAndBroadcast: %+v", err)
		}
	}

	listeningAddresses := first.NetAdapter().ListeningAddresses()
	if len(listeningAddresses) != 1 {
		t.Fatalf("unexpected listening addresses: %v", listeningAddresses)
	}
	second := startTestComponentManager(t, testConfig(listeningAddresses[0]))

	// The second node catches up on connect.
	waitForBlockCount(t, second, 2)
	if *second.Ledger().Head() != *first.Ledger().Head() {
		t.Fatalf("heads differ after sync: %s, %s", second.Ledger().Head(), first.Ledger().Head())
	}

	// New blocks propagate both ways.
	_, err := second.ProtocolManager().WriteAndBroadcast(context.Background(), []byte("third"))
	if err != nil {
		t.Fatalf("WriteAndBroadcast: %+v", err)
	}
	waitForBlockCount(t, first, 3)
	if *second.Ledger().Head() != *first.Ledger().Head() {
		t.Fatalf("heads differ after broadcast: %s, %s", second.Ledger().Head(), first.Ledger().Head())
	}
}

func TestComponentManagerUnreachablePeer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %s", err)
	}
	address := listener.Addr().String()
	listener.Close()

	componentManager := startTestComponentManager(t, testConfig(address))
	if componentManager.NetAdapter().ConnectionCount() != 0 {
		t.Fatalf("unexpected connection to closed address %s", address)
	}

	// Stopping twice is harmless.
	componentManager.Stop()
	componentManager.Stop()
}
