package predictor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Error is returned by every failed call to the prediction service.  Status
// is the HTTP status when the service answered, zero when it did not.
// Callers can use errors.As to pull it out of a wrapped chain.
type Error struct {
	URL    string
	Status int
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("prediction call failed: status %d: %s", e.Status, e.Detail)
	}
	return "prediction call failed: " + e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// isNetworkError reports whether err means the request never got an answer
// because the connection could not be made or was dropped.  Timeouts and
// cancellations are not network errors here.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
