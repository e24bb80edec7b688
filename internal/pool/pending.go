package pool

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"ammpool/internal/model"
)

type pendingKind int

const (
	pendingMetadataFetch pendingKind = iota
	pendingWithdrawTransfer
)

// pendingCallback correlates an outbound async request with the single
// callback expected for it. Failure is terminal; no retry state is kept.
type pendingCallback struct {
	id       uuid.UUID
	kind     pendingKind
	asset    model.AssetID
	account  model.AccountID
	amount   *uint256.Int
	issuedAt time.Time
}

type pendingTable struct {
	mu      sync.Mutex
	entries map[uuid.UUID]pendingCallback
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[uuid.UUID]pendingCallback)}
}

func (t *pendingTable) add(cb pendingCallback) {
	if cb.issuedAt.IsZero() {
		cb.issuedAt = time.Now()
	}
	t.mu.Lock()
	t.entries[cb.id] = cb
	t.mu.Unlock()
}

// take removes and returns the entry, so each request resolves at most once.
func (t *pendingTable) take(id uuid.UUID) (pendingCallback, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cb, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return cb, ok
}

func (t *pendingTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
