package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsCode checks if an error is a TradeError with specific code
func IsCode(err error, code ErrorCode) bool {
	var tradeErr *TradeError
	if errors.As(err, &tradeErr) {
		return tradeErr.Code == code
	}
	return false
}

// IsAbsent reports whether err means the account holds no data.
func IsAbsent(err error) bool {
	return IsCode(err, ErrCodeAbsentRecord)
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var tradeErr *TradeError
	if errors.As(err, &tradeErr) {
		return tradeErr.IsRetryable()
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"too many requests",
		"rate limit",
		"blockhash not found",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// GetSeverity returns the severity of an error
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityInfo
	}

	var tradeErr *TradeError
	if errors.As(err, &tradeErr) {
		return tradeErr.Severity
	}
	return SeverityHigh
}
