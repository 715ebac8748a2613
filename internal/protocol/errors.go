package protocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for envelope validation.
var (
	ErrInvalidInvokeRequest  = errors.New("protocol: invalid invoke request")
	ErrInvalidInvokeResponse = errors.New("protocol: invalid invoke response")
	ErrUnknownShape          = errors.New("protocol: unknown payload shape")
)

// InvokeError is the failure of one capability invocation. Transient
// failures may be retried by the executor; permanent failures abort the
// pipeline immediately.
type InvokeError struct {
	Capability string
	Transient  bool
	Err        error
}

func (e *InvokeError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("invoke %s: %s failure: %v", e.Capability, kind, e.Err)
}

func (e *InvokeError) Unwrap() error { return e.Err }

// IsTransient reports whether the error chain contains a transient
// invocation failure.
func IsTransient(err error) bool {
	var ie *InvokeError
	if errors.As(err, &ie) {
		return ie.Transient
	}
	return false
}
