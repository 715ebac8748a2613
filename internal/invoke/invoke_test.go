package invoke

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/danmuck/loomctl/internal/capability"
	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
	"github.com/danmuck/loomctl/internal/testutil/testlog"
)

type fakeHandler struct {
	name string
	out  protocol.Payload
	err  error
}

func (f fakeHandler) Name() string { return f.name }

func (f fakeHandler) Describe() registry.Capability {
	return registry.Capability{
		Name:        f.name,
		Description: "fake handler",
		InputShape:  protocol.ShapeText,
		OutputShape: protocol.ShapeText,
		Target:      registry.Target{Kind: registry.TargetLocal},
	}
}

func (f fakeHandler) Invoke(context.Context, protocol.InvokeRequest) (protocol.Payload, error) {
	return f.out, f.err
}

type recordingInvoker struct {
	target registry.Capability
}

func (r *recordingInvoker) Invoke(_ context.Context, target registry.Capability, _ protocol.InvokeRequest) (protocol.Payload, error) {
	r.target = target
	return protocol.Payload{Text: "routed"}, nil
}

func localCap(name string) registry.Capability {
	return registry.Capability{
		Name:        name,
		Description: "test capability",
		InputShape:  protocol.ShapeText,
		OutputShape: protocol.ShapeText,
		Target:      registry.Target{Kind: registry.TargetLocal},
	}
}

func stepReq(capName string) protocol.InvokeRequest {
	return protocol.InvokeRequest{
		RunID:      "run-1",
		StepIndex:  1,
		Capability: capName,
		Payload:    protocol.Payload{Text: "input"},
	}
}

func TestDispatcherRoutesByKind(t *testing.T) {
	testlog.Start(t)
	rec := &recordingInvoker{}
	d := NewDispatcher().WithInvoker(registry.TargetLocal, rec)

	out, err := d.Invoke(context.Background(), localCap("summarizer"), stepReq("summarizer"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Text != "routed" || rec.target.Name != "summarizer" {
		t.Fatalf("dispatch did not reach invoker: out=%q target=%q", out.Text, rec.target.Name)
	}
}

func TestDispatcherUnknownKind(t *testing.T) {
	testlog.Start(t)
	d := NewDispatcher()
	_, err := d.Invoke(context.Background(), localCap("summarizer"), stepReq("summarizer"))
	var ie *protocol.InvokeError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InvokeError, got %v", err)
	}
	if ie.Transient {
		t.Fatalf("missing invoker must be permanent: %v", ie)
	}
}

func TestLocalInvokerSuccess(t *testing.T) {
	testlog.Start(t)
	handlers := capability.NewRegistry()
	if err := handlers.Register(fakeHandler{name: "summarizer", out: protocol.Payload{Text: "done"}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inv := NewLocalInvoker(handlers)
	out, err := inv.Invoke(context.Background(), localCap("summarizer"), stepReq("summarizer"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out.Text != "done" {
		t.Fatalf("unexpected payload: %q", out.Text)
	}
}

func TestLocalInvokerMissingHandler(t *testing.T) {
	testlog.Start(t)
	inv := NewLocalInvoker(capability.NewRegistry())
	_, err := inv.Invoke(context.Background(), localCap("summarizer"), stepReq("summarizer"))
	var ie *protocol.InvokeError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InvokeError, got %v", err)
	}
	if ie.Transient {
		t.Fatalf("missing handler must be permanent: %v", ie)
	}
}

func TestLocalInvokerClassification(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		err       error
		transient bool
	}{
		{fmt.Errorf("%w: model unreachable", capability.ErrTransient), true},
		{fmt.Errorf("step gave up: %w", context.DeadlineExceeded), true},
		{errors.New("malformed input"), false},
		{capability.ErrMissingMetadata, false},
	}
	for i, c := range cases {
		handlers := capability.NewRegistry()
		_ = handlers.Register(fakeHandler{name: "summarizer", err: c.err})
		_, err := NewLocalInvoker(handlers).Invoke(context.Background(), localCap("summarizer"), stepReq("summarizer"))
		if err == nil {
			t.Fatalf("case %d: expected error", i)
		}
		if got := protocol.IsTransient(err); got != c.transient {
			t.Fatalf("case %d: transient=%v, want %v (%v)", i, got, c.transient, err)
		}
		if !errors.Is(err, c.err) {
			t.Fatalf("case %d: cause lost: %v", i, err)
		}
	}
}
