package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammpool/internal/amm"
	"ammpool/internal/ledger"
	"ammpool/internal/model"
	"ammpool/internal/pool"
)

// Server exposes the pool operations over HTTP.
type Server struct {
	pool   *pool.Pool
	logger *zap.Logger
	srv    *http.Server
}

func NewServer(addr string, p *pool.Pool, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{pool: p, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/v1/pool", s.handleInfo).Methods(http.MethodGet)
	router.HandleFunc("/v1/balance/{asset}/{account}", s.handleBalance).Methods(http.MethodGet)
	router.HandleFunc("/v1/register", s.handleRegister).Methods(http.MethodPost)
	router.HandleFunc("/v1/credit", s.handleCredit).Methods(http.MethodPost)
	router.HandleFunc("/v1/swap", s.handleSwap).Methods(http.MethodPost)
	router.HandleFunc("/v1/liquidity/add", s.handleAddLiquidity).Methods(http.MethodPost)
	router.HandleFunc("/v1/liquidity/remove", s.handleRemoveLiquidity).Methods(http.MethodPost)
	router.HandleFunc("/v1/withdraw", s.handleWithdraw).Methods(http.MethodPost)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.pool.Info())
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	balance, err := s.pool.BalanceOf(model.AssetID(vars["asset"]), model.AccountID(vars["account"]))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"asset":   vars["asset"],
		"account": vars["account"],
		"balance": balance.String(),
	})
}

type registerRequest struct {
	Asset   string `json:"asset"`
	Account string `json:"account"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.pool.RegisterAccount(model.AssetID(req.Asset), model.AccountID(req.Account)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

type creditRequest struct {
	Asset   string `json:"asset"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, ok := s.parseAmount(w, req.Amount)
	if !ok {
		return
	}
	if err := s.pool.Credit(model.AssetID(req.Asset), model.AccountID(req.Account), amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "credited"})
}

type swapRequest struct {
	Account    string `json:"account"`
	BuyAsset   string `json:"buy_asset"`
	SellAsset  string `json:"sell_asset"`
	SellAmount string `json:"sell_amount"`
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, ok := s.parseAmount(w, req.SellAmount)
	if !ok {
		return
	}
	buyAmount, err := s.pool.Swap(model.AccountID(req.Account), model.AssetID(req.BuyAsset), model.AssetID(req.SellAsset), amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"buy_amount": buyAmount.String()})
}

type addLiquidityRequest struct {
	Account string `json:"account"`
	AssetA  string `json:"asset_a"`
	AmountA string `json:"amount_a"`
	AssetB  string `json:"asset_b"`
	AmountB string `json:"amount_b"`
}

func (s *Server) handleAddLiquidity(w http.ResponseWriter, r *http.Request) {
	var req addLiquidityRequest
	if !s.decode(w, r, &req) {
		return
	}
	amtA, ok := s.parseAmount(w, req.AmountA)
	if !ok {
		return
	}
	amtB, ok := s.parseAmount(w, req.AmountB)
	if !ok {
		return
	}
	err := s.pool.AddLiquidity(model.AccountID(req.Account), model.AssetID(req.AssetA), amtA, model.AssetID(req.AssetB), amtB)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

type removeLiquidityRequest struct {
	Account string `json:"account"`
	AssetA  string `json:"asset_a"`
	AssetB  string `json:"asset_b"`
}

func (s *Server) handleRemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	var req removeLiquidityRequest
	if !s.decode(w, r, &req) {
		return
	}
	amtA, amtB, err := s.pool.RemoveLiquidity(model.AccountID(req.Account), model.AssetID(req.AssetA), model.AssetID(req.AssetB))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"amount_a": amtA.String(),
		"amount_b": amtB.String(),
	})
}

type withdrawRequest struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, ok := s.parseAmount(w, req.Amount)
	if !ok {
		return
	}
	id, err := s.pool.Withdraw(r.Context(), model.AccountID(req.Account), model.AssetID(req.Asset), amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"request_id": id.String()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (s *Server) parseAmount(w http.ResponseWriter, raw string) (*uint256.Int, bool) {
	amount, err := uint256.FromDecimal(raw)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return nil, false
	}
	return amount, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pool.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, pool.ErrUnsupportedAsset):
		status = http.StatusNotFound
	case errors.Is(err, pool.ErrMetadataMissing):
		status = http.StatusConflict
	case errors.Is(err, pool.ErrEqualAssets),
		errors.Is(err, pool.ErrProportionMismatch),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrNotRegistered),
		errors.Is(err, amm.ErrOverflow),
		errors.Is(err, amm.ErrDivisionByZero):
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write response failed", zap.Error(err))
	}
}
