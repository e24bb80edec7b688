package model

// Pool event types written to the journal.
const (
	EventSwap              = "swap"
	EventLiquidityAdded    = "liquidity_added"
	EventLiquidityRemoved  = "liquidity_removed"
	EventCredit            = "credit"
	EventMetadataResolved  = "metadata_resolved"
	EventMetadataFailed    = "metadata_failed"
	EventWithdrawRequested = "withdraw_requested"
	EventWithdrawConfirmed = "withdraw_confirmed"
	EventWithdrawFailed    = "withdraw_failed"
)

// PoolEvent records a pool state change for the event journal.
type PoolEvent struct {
	Type       string `json:"type"`
	Asset      string `json:"asset,omitempty"`
	AssetB     string `json:"asset_b,omitempty"`
	Account    string `json:"account,omitempty"`
	Amount     string `json:"amount,omitempty"`
	AmountB    string `json:"amount_b,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Error      string `json:"error,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
