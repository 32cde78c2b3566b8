package api

import "time"

// QueryResponse represents the standard query response format
type QueryResponse struct {
	Data      interface{} `json:"data"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListingResponse is a listing. Lamports is the price in base units of the
// payment mint; Price renders it with the requested decimals.
type ListingResponse struct {
	Seller   string `json:"seller"`
	Mint     string `json:"mint"`
	Lamports uint64 `json:"lamports"`
	Price    string `json:"price"`
	Payment  string `json:"payment"`
	Item     string `json:"item"`
}

// OperationResponse is one journaled operation
type OperationResponse struct {
	OperationID string    `json:"operation_id"`
	Kind        string    `json:"kind"`
	Signer      string    `json:"signer"`
	Lamports    uint64    `json:"lamports"`
	Signature   string    `json:"signature,omitempty"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
