package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

// HTTPInvoker posts invoke envelopes to remote capability hosts.
type HTTPInvoker struct {
	client *http.Client
}

var _ Invoker = (*HTTPInvoker)(nil)

// NewHTTPInvoker builds an invoker. A nil client selects a default with a
// 30s transport timeout; per-step deadlines come from the executor's ctx.
func NewHTTPInvoker(client *http.Client) *HTTPInvoker {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPInvoker{client: client}
}

func (h *HTTPInvoker) Invoke(ctx context.Context, target registry.Capability, req protocol.InvokeRequest) (protocol.Payload, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return protocol.Payload{}, &protocol.InvokeError{Capability: target.Name, Err: err}
	}
	url := target.Target.BaseURL() + "/invoke"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return protocol.Payload{}, &protocol.InvokeError{Capability: target.Name, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		log.Warn().
			Str("capability", target.Name).
			Str("url", url).
			Err(err).
			Msg("invoke_transport_failed")
		return protocol.Payload{}, &protocol.InvokeError{Capability: target.Name, Transient: true, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return protocol.Payload{}, &protocol.InvokeError{Capability: target.Name, Transient: true, Err: err}
	}

	var env protocol.InvokeResponse
	if err := json.Unmarshal(raw, &env); err == nil {
		if verr := env.Validate(); verr == nil {
			return envelopeResult(target.Name, env)
		}
	}
	// No usable envelope; the status code decides.
	return protocol.Payload{}, &protocol.InvokeError{
		Capability: target.Name,
		Transient:  resp.StatusCode >= http.StatusInternalServerError,
		Err:        fmt.Errorf("node answered %d: %s", resp.StatusCode, snippet(raw)),
	}
}
