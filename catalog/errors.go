// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies catalog failures.
type ErrorKind int

const (
	// ErrorKindUnknown is an unclassified failure.
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindValidation is malformed caller input; never retried.
	ErrorKindValidation
	// ErrorKindNotFound is a lookup by id that found no row.
	ErrorKindNotFound
	// ErrorKindStore is a failure of the persistence layer.
	ErrorKindStore
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindValidation:
		return "validation"
	case ErrorKindNotFound:
		return "not_found"
	case ErrorKindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error is the error type returned by catalog operations.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError builds a validation error.
func NewValidationError(message string, err error) *Error {
	return &Error{Kind: ErrorKindValidation, Message: message, Err: err}
}

// NewNotFoundError builds a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{Kind: ErrorKindNotFound, Message: message}
}

// NewStoreError wraps a persistence failure.
func NewStoreError(message string, err error) *Error {
	return &Error{Kind: ErrorKindStore, Message: message, Err: err}
}

func kindOf(err error) ErrorKind {
	var catErr *Error
	if errors.As(err, &catErr) {
		return catErr.Kind
	}

	return ErrorKindUnknown
}

// IsValidation reports whether err is caused by malformed input.
func IsValidation(err error) bool {
	return kindOf(err) == ErrorKindValidation
}

// IsNotFound reports whether err is a missing row.
func IsNotFound(err error) bool {
	return kindOf(err) == ErrorKindNotFound
}

// IsStore reports whether err comes from the persistence layer.
func IsStore(err error) bool {
	return kindOf(err) == ErrorKindStore
}

// HTTPStatus maps an error to the status code exposed at the boundary:
// client errors for validation, 404 for missing rows, server errors otherwise.
func HTTPStatus(err error) int {
	switch kindOf(err) {
	case ErrorKindValidation:
		return http.StatusBadRequest
	case ErrorKindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
