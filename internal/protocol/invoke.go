package protocol

import "fmt"

// Invocation status values reported by capability hosts.
const (
	StatusOK             = "ok"
	StatusTransientError = "transient_error"
	StatusPermanentError = "permanent_error"
)

// InvokeRequest asks a capability host to run one pipeline step.
type InvokeRequest struct {
	RunID      string            `json:"run_id"`
	StepIndex  int               `json:"step_index"`
	Capability string            `json:"capability"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Payload    Payload           `json:"payload"`
}

// Validate reports whether the request satisfies baseline invariants.
func (r InvokeRequest) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("%w: run id required", ErrInvalidInvokeRequest)
	}
	if r.StepIndex < 1 {
		return fmt.Errorf("%w: step index must be >= 1", ErrInvalidInvokeRequest)
	}
	if r.Capability == "" {
		return fmt.Errorf("%w: capability required", ErrInvalidInvokeRequest)
	}
	return nil
}

// InvokeResponse reports the outcome of one step invocation.
type InvokeResponse struct {
	Status  string  `json:"status"`
	Payload Payload `json:"payload"`
	Error   string  `json:"error,omitempty"`
}

// Validate reports whether the response satisfies baseline invariants.
func (r InvokeResponse) Validate() error {
	switch r.Status {
	case StatusOK:
		if r.Error != "" {
			return fmt.Errorf("%w: status ok cannot carry an error", ErrInvalidInvokeResponse)
		}
	case StatusTransientError, StatusPermanentError:
		if r.Error == "" {
			return fmt.Errorf("%w: status %s requires an error", ErrInvalidInvokeResponse, r.Status)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInvokeResponse, r.Status)
	}
	return nil
}
