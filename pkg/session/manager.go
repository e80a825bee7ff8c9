// Package session owns one wallet connection slot per ecosystem and the
// notion of which chain is currently active. Adapters and the orchestrator
// obtain signer handles from here and never mutate session state themselves.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omnidex-labs/swapcore/pkg/chains"
	"github.com/omnidex-labs/swapcore/pkg/constants"
	"github.com/omnidex-labs/swapcore/pkg/swaperr"
)

// Status is the lifecycle state of one ecosystem's connection slot.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

type providerKey struct {
	ecosystem constants.Ecosystem
	walletID  string
}

// slot is one ecosystem's connection state.
type slot struct {
	status   Status
	address  string
	walletID string
	reason   string
	provider Provider
	signer   *signerHandle
	revoked  *atomic.Bool
}

// Manager resolves the active ecosystem, owns connect/disconnect/switch-chain
// lifecycle and issues revocable signer handles. One session may exist per
// ecosystem concurrently; exactly one chain is active at a time.
type Manager struct {
	mu        sync.RWMutex
	providers map[providerKey]Provider
	slots     map[constants.Ecosystem]*slot
	active    int // aggregator chain index
	store     Store
	logger    *slog.Logger
}

// NewManager creates a session manager. A nil store falls back to an
// in-memory one; a previously saved, unexpired snapshot restores the active
// chain selection.
func NewManager(store Store, logger *slog.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		providers: make(map[providerKey]Provider),
		slots:     make(map[constants.Ecosystem]*slot),
		active:    constants.ChainIndexEthereum,
		store:     store,
		logger:    logger,
	}
	for _, eco := range constants.Ecosystems {
		m.slots[eco] = emptySlot()
	}

	if snap, err := store.Load(); err != nil {
		logger.Warn("failed to load session snapshot", "error", err)
	} else if snap != nil && !snap.Expired(time.Now()) {
		if _, ok := constants.Chains[snap.ChainIndex]; ok {
			m.active = snap.ChainIndex
		}
	}

	return m
}

func emptySlot() *slot {
	return &slot{status: StatusDisconnected, revoked: new(atomic.Bool)}
}

// RegisterProvider registers one wallet integration for an ecosystem under a
// wallet id. Registration replaces any previous provider for the same key.
func (m *Manager) RegisterProvider(ecosystem constants.Ecosystem, walletID string, provider Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[providerKey{ecosystem, walletID}] = provider
}

// Connect establishes a session for the ecosystem through the registered
// wallet. On failure the slot moves to StatusError with the reason recorded;
// the error is returned, never panicked.
func (m *Manager) Connect(ctx context.Context, ecosystem constants.Ecosystem, walletID string) error {
	m.mu.Lock()
	provider, ok := m.providers[providerKey{ecosystem, walletID}]
	if !ok {
		m.mu.Unlock()
		return swaperr.New(swaperr.ProviderUnavailable,
			fmt.Sprintf("no wallet provider registered for %s/%s", ecosystem, walletID))
	}
	s := m.slots[ecosystem]
	s.status = StatusConnecting
	s.walletID = walletID
	m.mu.Unlock()

	// The provider call may block on a wallet prompt; do not hold the lock.
	address, signer, err := provider.Connect(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	s = m.slots[ecosystem]
	if err != nil {
		s.status = StatusError
		s.reason = swaperr.Truncate(err.Error(), constants.MaxDisplayErrorLength)
		m.logger.Warn("wallet connect failed", "ecosystem", ecosystem, "wallet", walletID, "error", err)
		return swaperr.Wrap(swaperr.ProviderUnavailable, "wallet connect failed", err)
	}

	s.status = StatusConnected
	s.address = address
	s.provider = provider
	s.reason = ""
	s.revoked = new(atomic.Bool)
	s.signer = newSignerHandle(signer, s.revoked)
	m.logger.Info("wallet connected", "ecosystem", ecosystem, "wallet", walletID, "address", address)
	return nil
}

// Status returns the connection status of an ecosystem's slot.
func (m *Manager) Status(ecosystem constants.Ecosystem) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots[ecosystem].status
}

// Address returns the connected address for an ecosystem, or "".
func (m *Manager) Address(ecosystem constants.Ecosystem) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.slots[ecosystem]
	if s.status != StatusConnected {
		return ""
	}
	return s.address
}

// Provider returns the connected provider handle for an ecosystem, or nil if
// not connected. Callers must treat nil as "cannot proceed".
func (m *Manager) Provider(ecosystem constants.Ecosystem) Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.slots[ecosystem]
	if s.status != StatusConnected {
		return nil
	}
	return s.provider
}

// Signer returns the signer handle for an ecosystem, or nil if not
// connected. The handle stops signing the moment Disconnect returns.
func (m *Manager) Signer(ecosystem constants.Ecosystem) chains.Signer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.slots[ecosystem]
	if s.status != StatusConnected || s.signer == nil {
		return nil
	}
	return s.signer
}

// ActiveChainIndex returns the currently selected chain.
func (m *Manager) ActiveChainIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// ActiveEcosystem derives the ecosystem implied by the selected chain. It is
// independent of which ecosystems happen to have live sessions.
func (m *Manager) ActiveEcosystem() (constants.Ecosystem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return constants.ChainEcosystem(m.active)
}

// SwitchChain makes chainIndex the active chain. For EVM chains with a live
// session it additionally asks the wallet to switch networks; for non-EVM
// chains switching only changes which session is considered active, with no
// on-chain effect. That asymmetry is intentional.
func (m *Manager) SwitchChain(ctx context.Context, chainIndex int) error {
	info, ok := constants.Chains[chainIndex]
	if !ok {
		return swaperr.New(swaperr.UnsupportedChain, fmt.Sprintf("unknown chain index %d", chainIndex))
	}

	if info.Ecosystem == constants.EcosystemEVM {
		if signer := m.Signer(constants.EcosystemEVM); signer != nil {
			if switcher, ok := signer.(chains.ChainSwitcher); ok {
				if err := switcher.SwitchChain(ctx, info.EVMChainID); err != nil {
					return swaperr.Wrap(swaperr.ProviderUnavailable, "network switch failed", err)
				}
			}
		}
	}

	m.mu.Lock()
	m.active = chainIndex
	m.mu.Unlock()

	m.persist()
	return nil
}

// Disconnect clears every ecosystem's session, not only the active one, and
// invalidates all issued signer handles before returning.
func (m *Manager) Disconnect(ctx context.Context) {
	m.mu.Lock()
	released := make([]Provider, 0, len(m.slots))
	for eco, s := range m.slots {
		s.revoked.Store(true)
		if s.provider != nil {
			released = append(released, s.provider)
		}
		m.slots[eco] = emptySlot()
	}
	m.mu.Unlock()

	for _, p := range released {
		if err := p.Disconnect(ctx); err != nil {
			m.logger.Warn("provider disconnect failed", "error", err)
		}
	}
	m.logger.Info("all wallet sessions disconnected")
}

// ReportProviderFailure records a provider-level failure against a connected
// slot, moving it to StatusError. Adapters use this instead of mutating
// session state directly.
func (m *Manager) ReportProviderFailure(ecosystem constants.Ecosystem, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.slots[ecosystem]
	if s.status != StatusConnected {
		return
	}
	s.status = StatusError
	s.reason = swaperr.Truncate(err.Error(), constants.MaxDisplayErrorLength)
}

// persist writes the current snapshot through the storage collaborator.
func (m *Manager) persist() {
	m.mu.RLock()
	eco, _ := constants.ChainEcosystem(m.active)
	snap := &Snapshot{
		Ecosystem:  eco,
		ChainIndex: m.active,
		Addresses:  make(map[constants.Ecosystem]string),
		SavedAt:    time.Now(),
	}
	for e, s := range m.slots {
		if s.status == StatusConnected {
			snap.Addresses[e] = s.address
		}
	}
	m.mu.RUnlock()

	if err := m.store.Save(snap); err != nil {
		m.logger.Warn("failed to save session snapshot", "error", err)
	}
}
