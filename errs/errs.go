// Package errs defines the closed error taxonomy shared by the wire codec,
// the p2p/api handlers and the stabilization engine, mirroring the
// taxonomy in the original implementation's error module: framing
// errors, unexpected-message errors, I/O errors, and the programmer-error
// invariant violations that must never occur in a correct build.
package errs

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a framing/protocol error: truncated frame,
// oversized frame, size-field mismatch, or unknown message type. The
// connection carrying it is aborted; the process keeps running.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnexpectedMessage marks a reply that didn't match what the calling
// procedure expected (e.g. a PeerFound where a PredecessorReply was
// wanted). The originating outbound procedure abandons its current
// operation.
var ErrUnexpectedMessage = errors.New("unexpected message")

// Invariant panics on violation of a routing-table invariant (I1-I4).
// These must never happen in correct code; they are bugs, not runtime
// conditions to recover from.
func Invariant(format string, args ...any) {
	panic(fmt.Sprintf("invariant violation: "+format, args...))
}

// WrapInvalidInput formats a description of the problem and wraps it as
// ErrInvalidInput.
func WrapInvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

// WrapUnexpectedMessage wraps a description of the unexpected reply as
// ErrUnexpectedMessage.
func WrapUnexpectedMessage(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUnexpectedMessage}, args...)...)
}
