package invoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/loomctl/internal/capability"
	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

// LocalInvoker runs capabilities registered in this process.
type LocalInvoker struct {
	handlers *capability.Registry
}

var _ Invoker = (*LocalInvoker)(nil)

func NewLocalInvoker(handlers *capability.Registry) *LocalInvoker {
	return &LocalInvoker{handlers: handlers}
}

func (l *LocalInvoker) Invoke(ctx context.Context, target registry.Capability, req protocol.InvokeRequest) (protocol.Payload, error) {
	h, ok := l.handlers.Get(target.Name)
	if !ok {
		return protocol.Payload{}, &protocol.InvokeError{
			Capability: target.Name,
			Err:        fmt.Errorf("no local handler for %q", target.Name),
		}
	}
	out, err := h.Invoke(ctx, req)
	if err != nil {
		return protocol.Payload{}, &protocol.InvokeError{
			Capability: target.Name,
			Transient:  isRecoverable(err),
			Err:        err,
		}
	}
	return out, nil
}

func isRecoverable(err error) bool {
	return errors.Is(err, capability.ErrTransient) ||
		errors.Is(err, context.DeadlineExceeded)
}
