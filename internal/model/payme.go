package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PaymeJSONRPCVersion is the protocol version echoed in every response.
const PaymeJSONRPCVersion = "2.0"

// PaymeRequest is the JSON-RPC envelope sent by Payme.
type PaymeRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     json.RawMessage `json:"id"`
}

// PaymeResponse is the JSON-RPC envelope returned to Payme.
type PaymeResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *PaymeError     `json:"error,omitempty"`
}

// PaymeError is the error object of a JSON-RPC response.
type PaymeError struct {
	Code    int          `json:"code"`
	Message PaymeMessage `json:"message"`
	Data    string       `json:"data,omitempty"`
}

// PaymeMessage holds the localized error messages.
type PaymeMessage struct {
	RU string `json:"ru"`
	UZ string `json:"uz"`
	EN string `json:"en"`
}

// PaymeAccount holds the merchant account fields of a request.
type PaymeAccount map[string]json.RawMessage

// --- Params ---

// PaymeCheckPerformParams are the params of CheckPerformTransaction.
type PaymeCheckPerformParams struct {
	Amount  decimal.Decimal `json:"amount"`
	Account PaymeAccount    `json:"account"`
}

// PaymeCreateParams are the params of CreateTransaction.
type PaymeCreateParams struct {
	ID      string          `json:"id"`
	Time    int64           `json:"time"`
	Amount  decimal.Decimal `json:"amount"`
	Account PaymeAccount    `json:"account"`
}

// PaymeTransactionParams are the params of Perform/CheckTransaction.
type PaymeTransactionParams struct {
	ID string `json:"id"`
}

// PaymeCancelParams are the params of CancelTransaction.
type PaymeCancelParams struct {
	ID     string `json:"id"`
	Reason *int   `json:"reason"`
}

// PaymeStatementParams are the params of GetStatement.
type PaymeStatementParams struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// --- Results ---

// PaymeCheckPerformResult is the result of CheckPerformTransaction.
type PaymeCheckPerformResult struct {
	Allow bool `json:"allow"`
}

// PaymeCreateResult is the result of CreateTransaction.
type PaymeCreateResult struct {
	CreateTime  int64  `json:"create_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
}

// PaymePerformResult is the result of PerformTransaction.
type PaymePerformResult struct {
	Transaction string `json:"transaction"`
	PerformTime int64  `json:"perform_time"`
	State       int    `json:"state"`
}

// PaymeCancelResult is the result of CancelTransaction.
type PaymeCancelResult struct {
	Transaction string `json:"transaction"`
	CancelTime  int64  `json:"cancel_time"`
	State       int    `json:"state"`
	Reason      *int   `json:"reason,omitempty"`
}

// PaymeCheckResult is the result of CheckTransaction.
type PaymeCheckResult struct {
	CreateTime  int64  `json:"create_time"`
	PerformTime int64  `json:"perform_time"`
	CancelTime  int64  `json:"cancel_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	Reason      *int   `json:"reason"`
}

// PaymeStatementTransaction is one entry of a GetStatement result.
type PaymeStatementTransaction struct {
	ID          string            `json:"id"`
	Time        int64             `json:"time"`
	Amount      int64             `json:"amount"`
	Account     map[string]string `json:"account"`
	CreateTime  int64             `json:"create_time"`
	PerformTime int64             `json:"perform_time"`
	CancelTime  int64             `json:"cancel_time"`
	Transaction string            `json:"transaction"`
	State       int               `json:"state"`
	Reason      *int              `json:"reason"`
}

// PaymeStatementResult is the result of GetStatement.
type PaymeStatementResult struct {
	Transactions []PaymeStatementTransaction `json:"transactions"`
}
