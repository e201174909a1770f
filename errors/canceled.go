package errors

import "context"

// IsCanceled reports whether err was caused by context cancellation.
// Deadline expiry is not cancellation: a timed-out store call keeps the kind
// of the operation that timed out.
func IsCanceled(err error) bool {
	return err != nil && Is(err, context.Canceled)
}
