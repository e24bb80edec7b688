package registry

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammpool/internal/chain"
	"ammpool/internal/model"
)

// EthRegistry resolves asset metadata from ERC-20 contracts over RPC.
// Transient RPC failures are retried with backoff inside the single
// logical fetch; the pool still sees exactly one completion per request.
type EthRegistry struct {
	client     *chain.Client
	tokens     map[model.AssetID]common.Address
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func NewEthRegistry(client *chain.Client, tokens map[model.AssetID]common.Address, maxRetries int, backoff time.Duration, logger *zap.Logger) *EthRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EthRegistry{
		client:     client,
		tokens:     tokens,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

// FetchMetadata loads decimals (required) plus symbol and name
// (best-effort) for the asset's configured contract.
func (r *EthRegistry) FetchMetadata(ctx context.Context, asset model.AssetID) (model.AssetMetadata, error) {
	token, ok := r.tokens[asset]
	if !ok {
		return model.AssetMetadata{}, fmt.Errorf("no contract address configured for asset %s", asset)
	}

	var meta model.AssetMetadata
	err := withRetry(ctx, r.maxRetries, r.backoff, func(ctx context.Context) error {
		fetched, err := r.fetchTokenMeta(ctx, token)
		if err != nil {
			r.logger.Warn("metadata fetch attempt failed",
				zap.String("asset", string(asset)),
				zap.String("token", token.Hex()),
				zap.Error(err),
			)
			return err
		}
		meta = fetched
		return nil
	})
	return meta, err
}

func (r *EthRegistry) fetchTokenMeta(ctx context.Context, token common.Address) (model.AssetMetadata, error) {
	meta := model.AssetMetadata{}
	if r.client == nil {
		return meta, fmt.Errorf("chain client is nil")
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := r.client.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		r.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := call("name", stringABI); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := call("name", bytes32ABI); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else {
		r.logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
