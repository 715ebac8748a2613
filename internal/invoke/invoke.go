// Package invoke routes pipeline steps to the process that executes them:
// in-process handlers, remote HTTP capability hosts, or subprocesses
// speaking JSON on stdio. Invokers classify failures as transient or
// permanent but never retry; retry policy belongs to the executor alone.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

// Invoker executes one step against a capability target. Errors are
// always *protocol.InvokeError.
type Invoker interface {
	Invoke(ctx context.Context, target registry.Capability, req protocol.InvokeRequest) (protocol.Payload, error)
}

// Dispatcher routes invocations by target kind.
type Dispatcher struct {
	invokers map[registry.TargetKind]Invoker
}

var _ Invoker = (*Dispatcher)(nil)

func NewDispatcher() *Dispatcher {
	return &Dispatcher{invokers: make(map[registry.TargetKind]Invoker)}
}

// WithInvoker registers the invoker for a kind and returns the dispatcher.
func (d *Dispatcher) WithInvoker(kind registry.TargetKind, inv Invoker) *Dispatcher {
	d.invokers[kind] = inv
	return d
}

func (d *Dispatcher) Invoke(ctx context.Context, target registry.Capability, req protocol.InvokeRequest) (protocol.Payload, error) {
	inv, ok := d.invokers[target.Target.Kind]
	if !ok {
		return protocol.Payload{}, &protocol.InvokeError{
			Capability: target.Name,
			Err:        fmt.Errorf("no invoker for target kind %q", target.Target.Kind),
		}
	}
	return inv.Invoke(ctx, target, req)
}

// envelopeResult maps a validated response envelope onto a payload or an
// invocation error.
func envelopeResult(capName string, env protocol.InvokeResponse) (protocol.Payload, error) {
	switch env.Status {
	case protocol.StatusOK:
		return env.Payload, nil
	case protocol.StatusTransientError:
		return protocol.Payload{}, &protocol.InvokeError{Capability: capName, Transient: true, Err: errors.New(env.Error)}
	default:
		return protocol.Payload{}, &protocol.InvokeError{Capability: capName, Err: errors.New(env.Error)}
	}
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
