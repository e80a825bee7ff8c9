package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/omnidex-labs/swapcore/pkg/constants"
)

// SnapshotTTL is the validity window of a persisted session snapshot.
// Snapshots older than this are ignored on restore.
const SnapshotTTL = 24 * time.Hour

// Snapshot is the key-value session state handed to the external storage
// collaborator: which chain was active and which addresses were connected.
// The engine reads it to restore the active chain on startup and writes it
// on every chain switch; it does not own the storage medium.
type Snapshot struct {
	Ecosystem  constants.Ecosystem            `json:"ecosystem"`
	ChainIndex int                            `json:"chainIndex"`
	Addresses  map[constants.Ecosystem]string `json:"addresses"`
	SavedAt    time.Time                      `json:"savedAt"`
}

// Expired reports whether the snapshot is outside its validity window.
func (s *Snapshot) Expired(now time.Time) bool {
	return now.Sub(s.SavedAt) > SnapshotTTL
}

// Store is the persistence collaborator contract. Load returns (nil, nil)
// when no snapshot exists.
type Store interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
}

// MemoryStore is an in-process Store, used in tests and as the default when
// the host provides no persistence collaborator.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(m.data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode session snapshot: %w", err)
	}
	return &snap, nil
}

func (m *MemoryStore) Save(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode session snapshot: %w", err)
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}
