// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package naver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors returned by the client.
var (
	ErrMissingCredentials = errors.New("naver API credentials are not configured")
	ErrInvalidQuery       = errors.New("invalid search query")
)

// ErrorType classifies failures of the search provider.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified provider failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit too many requests per second.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded daily quota exhausted or API not enabled.
	ErrorTypeQuotaExceeded
	// ErrorTypeUnauthorized rejected credentials.
	ErrorTypeUnauthorized
	// ErrorTypeInvalidRequest the provider rejected the parameters.
	ErrorTypeInvalidRequest
	// ErrorTypeUnavailable provider side outage.
	ErrorTypeUnavailable
	// ErrorTypeNetwork transport failure before a response arrived.
	ErrorTypeNetwork
	// ErrorTypeParse the response body could not be decoded.
	ErrorTypeParse
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeQuotaExceeded:
		return "quota_exceeded"
	case ErrorTypeUnauthorized:
		return "unauthorized"
	case ErrorTypeInvalidRequest:
		return "invalid_request"
	case ErrorTypeUnavailable:
		return "unavailable"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeParse:
		return "parse"
	default:
		return "unknown"
	}
}

// ProviderError is a failure talking to the search provider.
type ProviderError struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// TypeOf returns the provider error type of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return pErr.Type
	}

	return ErrorTypeUnknown
}

// IsRateLimitError reports whether err is caused by request throttling.
func IsRateLimitError(err error) bool {
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return pErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// apiError is the error body of the Naver open API.
type apiError struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    string `json:"errorCode"`
}

// ClassifyHTTPError maps a non 200 response into a ProviderError.
func ClassifyHTTPError(statusCode int, body string) *ProviderError {
	detail := strings.TrimSpace(body)

	var ae apiError
	if err := json.Unmarshal([]byte(body), &ae); err == nil && ae.ErrorMessage != "" {
		detail = ae.ErrorMessage
		if ae.ErrorCode != "" {
			detail = fmt.Sprintf("%s (%s)", ae.ErrorMessage, ae.ErrorCode)
		}
	}

	e := &ProviderError{StatusCode: statusCode}

	switch statusCode {
	case http.StatusTooManyRequests:
		e.Type, e.Message = ErrorTypeRateLimit, "rate limit exceeded"
	case http.StatusForbidden:
		e.Type, e.Message = ErrorTypeQuotaExceeded, "quota exceeded or access denied"
	case http.StatusUnauthorized:
		e.Type, e.Message = ErrorTypeUnauthorized, "authentication failed"
	case http.StatusBadRequest, http.StatusNotFound:
		e.Type, e.Message = ErrorTypeInvalidRequest, "invalid request"
	case http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		e.Type, e.Message = ErrorTypeUnavailable, fmt.Sprintf("service unavailable (status %d)", statusCode)
	default:
		e.Type, e.Message = ErrorTypeUnknown, fmt.Sprintf("HTTP error %d", statusCode)
	}

	if detail != "" {
		e.Message += ": " + detail
	}

	return e
}
