package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"ammpool/internal/model"
	"ammpool/internal/pool"
)

type fetcherFunc func(ctx context.Context, asset model.AssetID) (model.AssetMetadata, error)

func (f fetcherFunc) FetchMetadata(ctx context.Context, asset model.AssetID) (model.AssetMetadata, error) {
	return f(ctx, asset)
}

type senderFunc func(ctx context.Context, asset model.AssetID, to model.AccountID, amount *uint256.Int) error

func (f senderFunc) TransferExternal(ctx context.Context, asset model.AssetID, to model.AccountID, amount *uint256.Int) error {
	return f(ctx, asset, to, amount)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	fetcher := fetcherFunc(func(_ context.Context, asset model.AssetID) (model.AssetMetadata, error) {
		return model.AssetMetadata{Symbol: string(asset), Decimals: 2}, nil
	})
	sender := senderFunc(func(context.Context, model.AssetID, model.AccountID, *uint256.Int) error {
		return nil
	})

	p, err := pool.New(context.Background(), pool.Config{
		Owner:       "owner",
		PoolAccount: "pool",
		AssetA:      "usdn",
		AssetB:      "wnear",
		Metadata:    fetcher,
		Transfers:   sender,
	})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.WaitReady(ctx); err != nil {
		t.Fatalf("pool not ready: %v", err)
	}

	return NewServer(":0", p, nil)
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPoolInfoEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/v1/pool", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body)
	}

	var info model.PoolInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !info.Ready || info.AssetA != "usdn" || info.AssetB != "wnear" {
		t.Fatalf("unexpected pool info: %+v", info)
	}
}

func TestCreditAndBalanceEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/credit",
		`{"asset":"usdn","account":"alice","amount":"1500"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("credit status %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, "/v1/balance/usdn/alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("balance status %d, body %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["balance"] != "1500" {
		t.Fatalf("balance %q, want 1500", resp["balance"])
	}
}

func TestSwapEndpointErrors(t *testing.T) {
	s := newTestServer(t)

	// Same asset on both sides.
	rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/swap",
		`{"account":"alice","buy_asset":"usdn","sell_asset":"usdn","sell_amount":"10"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("equal assets status %d, body %s", rec.Code, rec.Body)
	}

	// Non-numeric amount.
	rec = doJSON(t, s.Handler(), http.MethodPost, "/v1/swap",
		`{"account":"alice","buy_asset":"wnear","sell_asset":"usdn","sell_amount":"ten"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad amount status %d, body %s", rec.Code, rec.Body)
	}

	// Unknown asset.
	rec = doJSON(t, s.Handler(), http.MethodPost, "/v1/swap",
		`{"account":"alice","buy_asset":"doge","sell_asset":"usdn","sell_amount":"10"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown asset status %d, body %s", rec.Code, rec.Body)
	}
}

func TestAddLiquidityEndpointUnauthorized(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/liquidity/add",
		`{"account":"mallory","asset_a":"usdn","amount_a":"100","asset_b":"wnear","amount_b":"100"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body)
	}
}

func TestWithdrawEndpointAccepted(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/credit",
		`{"asset":"usdn","account":"alice","amount":"500"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("credit status %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s.Handler(), http.MethodPost, "/v1/withdraw",
		`{"account":"alice","asset":"usdn","amount":"200"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("withdraw status %d, body %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["request_id"] == "" {
		t.Fatalf("missing request id in %s", rec.Body)
	}
}
