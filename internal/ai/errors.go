package ai

import (
	"context"
	"errors"
	"fmt"
)

// Contract violations. These abort the call immediately and are never
// retried against another provider.
var (
	ErrEmptyBatch        = errors.New("analysis request contains no articles")
	ErrIncompleteArticle = errors.New("article requires both title and content")
)

// Kind classifies a provider failure for failover purposes.
type Kind int

const (
	// KindTransient covers timeouts, rate limits and 5xx-class failures;
	// the next provider in priority order is tried.
	KindTransient Kind = iota
	// KindUnavailable means the provider is not usable at all (missing or
	// rejected credentials); skipped silently, not counted as an attempt.
	KindUnavailable
	// KindMalformed means the provider answered but the response could not
	// be parsed into usable text. Treated as transient for failover.
	KindMalformed
	// KindFatal is a programming or contract error; propagated immediately.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindUnavailable:
		return "unavailable"
	case KindMalformed:
		return "malformed"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

// ProviderError wraps a failure from one adapter with its classification.
type ProviderError struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Transient marks err as eligible for failover.
func Transient(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindTransient, Err: err}
}

// Malformed marks an unparseable response.
func Malformed(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindMalformed, Err: err}
}

// Unavailable marks a provider that cannot serve requests at all.
func Unavailable(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindUnavailable, Err: err}
}

// Fatal marks a contract error that must not be swallowed by failover.
func Fatal(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindFatal, Err: err}
}

// Classify extracts the failover classification from an adapter error.
// Unclassified errors and deadline expiry default to transient.
func Classify(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindTransient
}
