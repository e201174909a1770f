// Package errors provides error handling for the delta consumer.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for operators
//
// On top of that it defines the four error kinds an ingestion can fail
// with. Every kind is scoped to one delta file; none is fatal to the poller.
//
// Usage:
//
//	if err := client.Download(ctx, f); err != nil {
//	    return errors.Transport(err, "download delta file")
//	}
//
//	switch errors.KindOf(err) {
//	case errors.KindTransport:
//	    // retried on the next poll
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	Mark           = crdb.Mark
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Ingestion error kinds. Errors are marked with one of these sentinels so
// errors.Is keeps working through any amount of wrapping.
var (
	// ErrTransport: the remote catalog or download endpoint could not be
	// reached or answered with a non-success status.
	ErrTransport = New("transport error")

	// ErrParse: a catalog listing or a downloaded delta file did not have
	// the expected shape.
	ErrParse = New("parse error")

	// ErrStoreWrite: an insert batch or a delete statement failed.
	ErrStoreWrite = New("store write error")

	// ErrRouting: moving staged data into its destination graph failed.
	ErrRouting = New("routing error")
)

// Kind names, as recorded in the ingestion history.
const (
	KindTransport  = "transport"
	KindParse      = "parse"
	KindStoreWrite = "store_write"
	KindRouting    = "routing"
	KindCanceled   = "canceled"
	KindUnknown    = "unknown"
)

// Transport wraps err with msg and marks it as a transport error.
func Transport(err error, msg string) error {
	return Mark(Wrap(err, msg), ErrTransport)
}

// Transportf is Transport with a format string.
func Transportf(err error, format string, args ...interface{}) error {
	return Mark(Wrapf(err, format, args...), ErrTransport)
}

// Parse wraps err with msg and marks it as a parse error.
func Parse(err error, msg string) error {
	return Mark(Wrap(err, msg), ErrParse)
}

// Parsef is Parse with a format string.
func Parsef(err error, format string, args ...interface{}) error {
	return Mark(Wrapf(err, format, args...), ErrParse)
}

// StoreWrite wraps err with msg and marks it as a store write error.
func StoreWrite(err error, msg string) error {
	return Mark(Wrap(err, msg), ErrStoreWrite)
}

// StoreWritef is StoreWrite with a format string.
func StoreWritef(err error, format string, args ...interface{}) error {
	return Mark(Wrapf(err, format, args...), ErrStoreWrite)
}

// Routing wraps err with msg and marks it as a routing error.
func Routing(err error, msg string) error {
	return Mark(Wrap(err, msg), ErrRouting)
}

// Routingf is Routing with a format string.
func Routingf(err error, format string, args ...interface{}) error {
	return Mark(Wrapf(err, format, args...), ErrRouting)
}

// KindOf classifies err into one of the Kind* names. Cancellation wins over
// the other kinds: a canceled store write is reported as canceled.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case IsCanceled(err):
		return KindCanceled
	case Is(err, ErrTransport):
		return KindTransport
	case Is(err, ErrParse):
		return KindParse
	case Is(err, ErrStoreWrite):
		return KindStoreWrite
	case Is(err, ErrRouting):
		return KindRouting
	default:
		return KindUnknown
	}
}
