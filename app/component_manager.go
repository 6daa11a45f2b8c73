package app

import (
	"fmt"
	"sync/atomic"

	"github.com/hashchaind/hashchaind/app/protocol"
	"github.com/hashchaind/hashchaind/domain/ledger"
	"github.com/hashchaind/hashchaind/infrastructure/config"
	"github.com/hashchaind/hashchaind/infrastructure/network/netadapter"
	"github.com/hashchaind/hashchaind/util/panics"
)

// ComponentManager is a wrapper for all the hashchaind services
type ComponentManager struct {
	cfg             *config.Config
	ledger          *ledger.Ledger
	netAdapter      *netadapter.NetAdapter
	protocolManager *protocol.Manager

	started, shutdown int32
}

// Start launches all the hashchaind services and dials the peers given
// with --connect. A peer that cannot be reached is logged and skipped.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Trace("Starting hashchaind")

	err := a.netAdapter.Start()
	if err != nil {
		panics.Exit(log, fmt.Sprintf("Error starting the net adapter: %+v", err))
	}

	for _, address := range a.cfg.ConnectPeers {
		err := a.netAdapter.Connect(address)
		if err != nil {
			log.Warnf("Could not connect to %s: %s", address, err)
		}
	}
}

// Stop gracefully shuts down all the hashchaind services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Hashchaind is already in the process of shutting down")
		return
	}

	log.Warnf("Hashchaind shutting down")

	err := a.netAdapter.Stop()
	if err != nil {
		log.Errorf("Error stopping the net adapter: %+v", err)
	}

	err = a.ledger.Close()
	if err != nil {
		log.Errorf("Error closing the ledger: %+v", err)
	}
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config) (*ComponentManager, error) {
	l, err := ledger.New()
	if err != nil {
		return nil, err
	}

	netAdapter, err := netadapter.NewNetAdapter(cfg)
	if err != nil {
		_ = l.Close()
		return nil, err
	}

	protocolManager := protocol.NewManager(l, netAdapter)

	return &ComponentManager{
		cfg:             cfg,
		ledger:          l,
		netAdapter:      netAdapter,
		protocolManager: protocolManager,
	}, nil
}

// Ledger returns the ledger of this node
func (a *ComponentManager) Ledger() *ledger.Ledger {
	return a.ledger
}

// NetAdapter returns the NetAdapter associated with this ComponentManager
func (a *ComponentManager) NetAdapter() *netadapter.NetAdapter {
	return a.netAdapter
}

// ProtocolManager returns the protocol.Manager associated with this ComponentManager
func (a *ComponentManager) ProtocolManager() *protocol.Manager {
	return a.protocolManager
}
