package common

import (
	"errors"
	"fmt"
)

// Error taxonomy for the pipeline. Each fallible stage has its own type
// so the batch runner can record which stage broke without string
// matching. All of them unwrap to their cause.

// FetchError covers network/HTTP failures while downloading a PDF:
// non-2xx status, wrong content type, timeout, transport errors.
type FetchError struct {
	URL     string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Cause }

func NewFetchError(url, message string, cause error) *FetchError {
	return &FetchError{URL: url, Message: message, Cause: cause}
}

// EmptyContentError means the PDF yielded no extractable text (for
// example a scanned, image-only document). Terminal and non-retryable
// for that URL.
type EmptyContentError struct {
	Filename string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("no text content extracted from %s", e.Filename)
}

// ProviderError is any AI call failure: HTTP error, rate limit,
// malformed response. The provider clients never retry; retry policy
// belongs to the caller.
type ProviderError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

func NewProviderError(provider, message string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Message: message, Cause: cause}
}

// StoreError is a persistence failure. It is logged and never changes a
// record's SUCCESS/FAILED outcome; the in-memory result stays
// authoritative for the run.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

func NewStoreError(op string, cause error) *StoreError {
	return &StoreError{Op: op, Cause: cause}
}

// IsEmptyContent reports whether err is (or wraps) an EmptyContentError.
func IsEmptyContent(err error) bool {
	var ece *EmptyContentError
	return errors.As(err, &ece)
}

// WrapError annotates err with a message, preserving the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
