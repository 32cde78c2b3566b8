package errors

import (
	"fmt"
)

// ErrorCode represents different categories of errors
type ErrorCode string

const (
	// ErrCodeDerivation indicates no program address could be derived for a seed set
	ErrCodeDerivation ErrorCode = "DERIVATION"

	// ErrCodeEncoding indicates a value could not be represented in its binary field
	ErrCodeEncoding ErrorCode = "ENCODING"

	// ErrCodeDecoding indicates a byte buffer did not match the expected layout
	ErrCodeDecoding ErrorCode = "DECODING"

	// ErrCodeAbsentRecord indicates an account holds no data (no active listing)
	ErrCodeAbsentRecord ErrorCode = "ABSENT_RECORD"

	// ErrCodeValidation indicates input validation errors
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeConfig indicates configuration errors
	ErrCodeConfig ErrorCode = "CONFIG"

	// ErrCodeRPC indicates RPC-related errors
	ErrCodeRPC ErrorCode = "RPC"

	// ErrCodeTransaction indicates a transaction was rejected or failed on the ledger
	ErrCodeTransaction ErrorCode = "TRANSACTION"

	// ErrCodeDatabase indicates database operation errors
	ErrCodeDatabase ErrorCode = "DATABASE"

	// ErrCodeTimeout indicates timeout errors
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeInternal indicates internal system errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// TradeError is the typed error returned by the marketplace client packages.
type TradeError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Severity Severity               `json:"severity"`
	Cause    error                  `json:"-"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

// New creates a new TradeError
func New(code ErrorCode, message string, cause error) *TradeError {
	return &TradeError{
		Code:     code,
		Message:  message,
		Severity: determineSeverity(code),
		Cause:    cause,
		Context:  make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *TradeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *TradeError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a TradeError with the same code, so that
// errors.Is(err, ErrAbsentRecord) matches any absent-record error.
func (e *TradeError) Is(target error) bool {
	t, ok := target.(*TradeError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithContext adds context to the error
func (e *TradeError) WithContext(key string, value interface{}) *TradeError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity overrides the default severity
func (e *TradeError) WithSeverity(severity Severity) *TradeError {
	e.Severity = severity
	return e
}

// IsRetryable returns true if the error is retryable
func (e *TradeError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeRPC, ErrCodeTimeout:
		return true
	case ErrCodeDatabase:
		return e.Severity != SeverityCritical
	default:
		return false
	}
}

func determineSeverity(code ErrorCode) Severity {
	switch code {
	case ErrCodeDerivation, ErrCodeInternal:
		return SeverityCritical
	case ErrCodeDecoding, ErrCodeDatabase:
		return SeverityHigh
	case ErrCodeTransaction, ErrCodeRPC, ErrCodeTimeout:
		return SeverityMedium
	case ErrCodeEncoding, ErrCodeValidation, ErrCodeConfig:
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// ErrAbsentRecord is the canonical "not listed" signal. Compare with errors.Is.
var ErrAbsentRecord = &TradeError{Code: ErrCodeAbsentRecord, Message: "account has no data", Severity: SeverityInfo}

// NewDerivationError creates a derivation error
func NewDerivationError(message string, cause error) *TradeError {
	return New(ErrCodeDerivation, message, cause)
}

// NewEncodingError creates an encoding error
func NewEncodingError(message string) *TradeError {
	return New(ErrCodeEncoding, message, nil)
}

// NewDecodingError creates a decoding error
func NewDecodingError(message string) *TradeError {
	return New(ErrCodeDecoding, message, nil)
}

// NewAbsentRecordError creates an absent-record error for a specific address
func NewAbsentRecordError(address string) *TradeError {
	return New(ErrCodeAbsentRecord, "account has no data", nil).WithContext("address", address)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *TradeError {
	return New(ErrCodeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string) *TradeError {
	return New(ErrCodeConfig, message, nil)
}

// NewRPCError creates an RPC error
func NewRPCError(message string, cause error) *TradeError {
	return New(ErrCodeRPC, message, cause)
}

// NewTransactionError creates a transaction error
func NewTransactionError(message string, cause error) *TradeError {
	return New(ErrCodeTransaction, message, cause)
}

// NewDatabaseError creates a database error
func NewDatabaseError(message string, cause error) *TradeError {
	return New(ErrCodeDatabase, message, cause)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string) *TradeError {
	return New(ErrCodeTimeout, message, nil)
}
