// Package apperr gives the error taxonomy from spec.md §7 concrete Go
// types so callers can branch on kind with errors.As instead of string
// matching. Built on the standard library: none of the retrieved examples
// carry a dedicated error-classification library (pkg/errors and
// go-faster/errors in the corpus only add stack traces / wrapping sugar,
// which errors.Is/As plus fmt.Errorf("%w") already give us here), so this
// is the one ambient concern in the system implemented on stdlib alone.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the propagation rules in spec.md §7.
type Kind string

const (
	// KindDomain is a domain-rule violation: invariant breach or illegal
	// aggregate state transition. Surfaces as 4xx at the HTTP edge.
	KindDomain Kind = "domain"
	// KindNotFound is an unknown customer/restaurant/order/product.
	KindNotFound Kind = "not_found"
	// KindOptimisticLock is a recoverable CAS conflict on a versioned row.
	KindOptimisticLock Kind = "optimistic_lock"
	// KindTransport is a recoverable publish/transport failure.
	KindTransport Kind = "transport"
	// KindSchema is a fatal deserialization error for one message.
	KindSchema Kind = "schema"
)

// Error is the concrete error type every apperr constructor returns.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Is lets errors.Is(err, apperr.ErrOptimisticLock) work against sentinels
// constructed for the same Kind, without requiring identical messages.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newErr(k Kind, msg string) *Error { return &Error{Kind: k, msg: msg} }

// Domain builds a domain-rule-violation error, e.g. an illegal transition.
func Domain(msg string) error { return newErr(KindDomain, msg) }

// Domainf builds a domain-rule-violation error with formatting.
func Domainf(format string, args ...any) error {
	return newErr(KindDomain, fmt.Sprintf(format, args...))
}

// NotFound builds a not-found error.
func NotFound(msg string) error { return newErr(KindNotFound, msg) }

// NotFoundf builds a not-found error with formatting.
func NotFoundf(format string, args ...any) error {
	return newErr(KindNotFound, fmt.Sprintf(format, args...))
}

// OptimisticLock builds an optimistic-lock-conflict error. Consumers treat
// this as an idempotent no-op; sweepers retry the row next tick.
func OptimisticLock(msg string) error { return newErr(KindOptimisticLock, msg) }

// Transport wraps a transport/publish failure so the sweeper can recognize
// it as retryable.
func Transport(msg string, err error) error {
	return &Error{Kind: KindTransport, msg: msg, err: err}
}

// Schema wraps a deserialization failure. Per spec.md §7 this is fatal for
// the one message — it is logged and the message is skipped/parked, never
// retried.
func Schema(msg string, err error) error {
	return &Error{Kind: KindSchema, msg: msg, err: err}
}

// ErrOptimisticLock is a sentinel usable with errors.Is to classify any
// optimistic-lock error regardless of message.
var ErrOptimisticLock = newErr(KindOptimisticLock, "")

// ErrNotFound is a sentinel usable with errors.Is.
var ErrNotFound = newErr(KindNotFound, "")

// Is reports whether err is of the given kind.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
