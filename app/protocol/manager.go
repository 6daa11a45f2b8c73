package protocol

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hashchaind/hashchaind/domain/consensus/model/externalapi"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/consensushashing"
	"github.com/hashchaind/hashchaind/domain/consensus/utils/serialization"
	"github.com/hashchaind/hashchaind/domain/ledger"
	"github.com/hashchaind/hashchaind/infrastructure/network/netadapter"
	"github.com/pkg/errors"
)

// Ledger is the part of the ledger the protocol needs.
type Ledger interface {
	ledger.BlockAppender
	ledger.BlockWriter
	ledger.ChainProvider
}

// Peer is a connected peer that blocks can be sent to.
type Peer interface {
	fmt.Stringer
	Send(message []byte) error
}

// Manager keeps the ledger and the connected peers in sync. Every message on
// the wire is exactly one encoded block.
type Manager struct {
	ledger      Ledger
	broadcaster ledger.BlockBroadcaster
	isOffline   uint32
}

// NewManager creates a new instance of the p2p protocol manager and registers
// it as the handler of netAdapter's connections and messages.
func NewManager(l Ledger, netAdapter *netadapter.NetAdapter) *Manager {
	manager := newManager(l, netAdapter)

	netAdapter.SetOnConnectedHandler(func(connection *netadapter.NetConnection) {
		manager.OnPeerConnected(connection)
	})
	netAdapter.SetOnMessageHandler(func(connection *netadapter.NetConnection, message []byte) {
		// Errors were already logged, and a bad message is no reason to
		// drop the peer.
		_ = manager.HandleInbound(connection, message)
	})

	return manager
}

func newManager(l Ledger, broadcaster ledger.BlockBroadcaster) *Manager {
	return &Manager{
		ledger:      l,
		broadcaster: broadcaster,
	}
}

// HandleInbound decodes a message received from peer and appends the block it
// carries to the ledger. Empty messages are ignored.
func (m *Manager) HandleInbound(peer Peer, message []byte) error {
	if len(message) == 0 {
		return nil
	}

	block, err := serialization.DeserializeBlock(message)
	if err != nil {
		log.Warnf("Dropping a malformed message of %d bytes from %s: %s", len(message), peer, err)
		return err
	}

	hash := consensushashing.BlockHash(block)
	_, err = m.ledger.Append(block)
	if err != nil {
		log.Warnf("Rejected block %s from %s: %s", hash, peer, err)
		return err
	}

	log.Debugf("Received block %s from %s", hash, peer)
	return nil
}

// WriteAndBroadcast mines data into a new block on top of the ledger's head,
// and sends it to all peers unless the manager is offline.
func (m *Manager) WriteAndBroadcast(ctx context.Context, data []byte) (*externalapi.DomainBlock, error) {
	block, err := m.ledger.WriteWithContext(ctx, data)
	if err != nil {
		return nil, err
	}

	hash := consensushashing.BlockHash(block)
	log.Infof("Created block %s", hash)

	if m.IsOffline() {
		log.Debugf("Offline, not broadcasting block %s", hash)
		return block, nil
	}

	err = m.broadcaster.Broadcast(serialization.SerializeBlock(block))
	if err != nil {
		return block, errors.Wrapf(err, "error broadcasting block %s", hash)
	}
	return block, nil
}

// OnPeerConnected sends the whole canonical chain to peer, oldest block
// first, so that every block arrives after its parent.
func (m *Manager) OnPeerConnected(peer Peer) {
	chain, err := m.ledger.CanonicalChain()
	if err != nil {
		log.Errorf("Could not read the canonical chain for %s: %+v", peer, err)
		return
	}

	for _, block := range chain {
		err := peer.Send(serialization.SerializeBlock(block))
		if err != nil {
			log.Warnf("Could not synchronize %s: %s", peer, err)
			return
		}
	}
	log.Infof("Finished synchronizing peer %s (%d blocks)", peer, len(chain))
}

// SetOffline sets whether newly written blocks are kept from peers. Blocks
// received from peers are accepted either way.
func (m *Manager) SetOffline(isOffline bool) {
	var value uint32
	if isOffline {
		value = 1
	}
	atomic.StoreUint32(&m.isOffline, value)
}

// IsOffline returns whether newly written blocks are kept from peers.
func (m *Manager) IsOffline() bool {
	return atomic.LoadUint32(&m.isOffline) != 0
}
