package dto

import "strconv"

// FormatAmount renders an amount as a decimal string
func FormatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}

// CreateClassResponse carries the id assigned to a new token class
type CreateClassResponse struct {
	ClassID uint64 `json:"class_id"`
}

// ClassResponse describes one registered token class
type ClassResponse struct {
	ID             uint64 `json:"id"`
	MetadataSuffix string `json:"metadata_suffix"`
}

// ClassListResponse lists the registered token classes in id order
type ClassListResponse struct {
	Classes []ClassResponse `json:"classes"`
	Total   uint64          `json:"total"`
}

// MetadataResponse carries the resolved metadata locator of a class
type MetadataResponse struct {
	ClassID uint64 `json:"class_id"`
	URI     string `json:"uri"`
}

// BalanceResponse carries one holder's balance for one class
type BalanceResponse struct {
	Holder  string `json:"holder"`
	ClassID uint64 `json:"class_id"`
	Amount  string `json:"amount"`
}

// GatesResponse reports the two global gates
type GatesResponse struct {
	TransfersEnabled bool `json:"transfers_enabled"`
	MarketEnabled    bool `json:"market_enabled"`
}

// LedgerInfoResponse describes the ledger identity
type LedgerInfoResponse struct {
	Name             string `json:"name"`
	Administrator    string `json:"administrator"`
	ClassCount       uint64 `json:"class_count"`
	TransfersEnabled bool   `json:"transfers_enabled"`
	MarketEnabled    bool   `json:"market_enabled"`
}

// OperationResponse acknowledges a mutating operation
type OperationResponse struct {
	Status string `json:"status"`
}

// OK is the acknowledgement for a completed operation
var OK = OperationResponse{Status: "ok"}
