package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammpool/internal/ledger"
	"ammpool/internal/model"
	"ammpool/internal/storage"
)

var (
	ErrUnsupportedAsset   = errors.New("asset not supported")
	ErrEqualAssets        = errors.New("assets must be distinct")
	ErrMetadataMissing    = errors.New("asset metadata not resolved")
	ErrUnauthorized       = errors.New("caller is not the pool owner")
	ErrProportionMismatch = errors.New("deposit does not match pool proportions")
	ErrUnknownRequest     = errors.New("unknown or already resolved request")
)

// Config holds the dependencies and identities for a pool instance.
type Config struct {
	Owner       model.AccountID
	PoolAccount model.AccountID
	AssetA      model.AssetID
	AssetB      model.AssetID
	Metadata    MetadataFetcher
	Transfers   TransferSender
	Journal     storage.Storage
	Logger      *zap.Logger
}

// Pool is a two-asset constant-product liquidity pool. It owns a local
// balance mirror per asset plus the LP share ledger, and serializes every
// state-changing operation behind one mutex: async callbacks run as their
// own critical section, so there is no interleaving within an operation.
type Pool struct {
	mu sync.Mutex

	owner   model.AccountID
	account model.AccountID
	assetA  model.AssetID
	assetB  model.AssetID
	lpAsset model.AssetID

	assets   map[model.AssetID]*ledger.Ledger
	metadata map[model.AssetID]model.AssetMetadata
	lp       *ledger.Ledger

	// cached reserves for external inspection; pricing always re-reads
	// the ledgers
	ratioA *uint256.Int
	ratioB *uint256.Int

	pending   *pendingTable
	readyCh   chan struct{}
	readyOnce sync.Once

	fetcher   MetadataFetcher
	transfers TransferSender
	journal   storage.Storage
	logger    *zap.Logger
}

// New creates the pool, registers its accounts on every ledger, and issues
// the metadata fetch for each asset. The pool is returned immediately;
// metadata-dependent operations fail with ErrMetadataMissing until both
// fetches resolve.
func New(ctx context.Context, cfg Config) (*Pool, error) {
	if cfg.Owner == "" || cfg.PoolAccount == "" {
		return nil, fmt.Errorf("owner and pool account are required")
	}
	if cfg.AssetA == "" || cfg.AssetB == "" {
		return nil, fmt.Errorf("both assets are required")
	}
	if cfg.AssetA == cfg.AssetB {
		return nil, ErrEqualAssets
	}
	if cfg.Metadata == nil {
		return nil, fmt.Errorf("metadata fetcher is required")
	}
	if cfg.Transfers == nil {
		return nil, fmt.Errorf("transfer sender is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		owner:     cfg.Owner,
		account:   cfg.PoolAccount,
		assetA:    cfg.AssetA,
		assetB:    cfg.AssetB,
		lpAsset:   model.AssetID(cfg.PoolAccount),
		assets:    make(map[model.AssetID]*ledger.Ledger, 2),
		metadata:  make(map[model.AssetID]model.AssetMetadata, 2),
		lp:        ledger.New(),
		ratioA:    uint256.NewInt(0),
		ratioB:    uint256.NewInt(0),
		pending:   newPendingTable(),
		readyCh:   make(chan struct{}),
		fetcher:   cfg.Metadata,
		transfers: cfg.Transfers,
		journal:   cfg.Journal,
		logger:    logger,
	}

	for _, asset := range []model.AssetID{cfg.AssetA, cfg.AssetB} {
		book := ledger.New()
		book.Register(p.account)
		book.Register(p.owner)
		p.assets[asset] = book
	}
	p.lp.Register(p.account)
	p.lp.Register(p.owner)

	p.beginMetadataFetch(ctx)

	return p, nil
}

// Ready reports whether metadata for both assets has resolved.
func (p *Pool) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.metadata) == len(p.assets)
}

// WaitReady blocks until both metadata fetches resolve or ctx expires.
func (p *Pool) WaitReady(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.readyCh:
		return nil
	}
}

// BalanceOf returns the account's balance for a supported asset. Querying
// the pool's own account id as the asset returns the LP share balance.
func (p *Pool) BalanceOf(asset model.AssetID, account model.AccountID) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if asset == p.lpAsset {
		return p.lp.BalanceOf(account), nil
	}
	book, ok := p.assets[asset]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", asset, ErrUnsupportedAsset)
	}
	return book.BalanceOf(account), nil
}

// RegisterAccount creates a zero-balance entry so the account can receive
// funds on the asset's local mirror.
func (p *Pool) RegisterAccount(asset model.AssetID, account model.AccountID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if asset == p.lpAsset {
		p.lp.Register(account)
		return nil
	}
	book, ok := p.assets[asset]
	if !ok {
		return fmt.Errorf("asset %s: %w", asset, ErrUnsupportedAsset)
	}
	book.Register(account)
	return nil
}

// Credit records an inbound transfer from the asset's external ledger:
// the sender moved funds to the pool's address there, and the local mirror
// credits them here. Unknown accounts are registered on the fly.
func (p *Pool) Credit(asset model.AssetID, account model.AccountID, amount *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	book, ok := p.assets[asset]
	if !ok {
		return fmt.Errorf("asset %s: %w", asset, ErrUnsupportedAsset)
	}
	book.Register(account)
	if err := book.Deposit(account, amount); err != nil {
		return fmt.Errorf("credit %s: %w", asset, err)
	}
	p.refreshRatio()
	p.emit(model.PoolEvent{
		Type:    model.EventCredit,
		Asset:   string(asset),
		Account: string(account),
		Amount:  amount.String(),
	})
	return nil
}

// Info returns the externally visible pool snapshot.
func (p *Pool) Info() model.PoolInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	info := model.PoolInfo{
		Owner:    string(p.owner),
		AssetA:   string(p.assetA),
		AssetB:   string(p.assetB),
		ReserveA: p.ratioA.String(),
		ReserveB: p.ratioB.String(),
		LPSupply: p.lp.TotalSupply().String(),
		Ready:    len(p.metadata) == len(p.assets),
	}
	if meta, ok := p.metadata[p.assetA]; ok {
		metaCopy := meta
		info.MetadataA = &metaCopy
	}
	if meta, ok := p.metadata[p.assetB]; ok {
		metaCopy := meta
		info.MetadataB = &metaCopy
	}
	return info
}

// refreshRatio recomputes the cached reserve pair. Callers hold p.mu.
func (p *Pool) refreshRatio() {
	p.ratioA = p.assets[p.assetA].BalanceOf(p.account)
	p.ratioB = p.assets[p.assetB].BalanceOf(p.account)
}

// emit writes one event to the journal. Journal failures never fail the
// operation that produced the event.
func (p *Pool) emit(event model.PoolEvent) {
	if event.OccurredAt == "" {
		event.OccurredAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if p.journal == nil {
		return
	}
	if err := p.journal.PutEventBatch([]model.PoolEvent{event}); err != nil {
		p.logger.Warn("journal write failed", zap.String("type", event.Type), zap.Error(err))
	}
}
