package capnode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/danmuck/loomctl/internal/capability"
	"github.com/danmuck/loomctl/internal/invoke"
	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
	"github.com/danmuck/loomctl/internal/testutil/testlog"
)

func TestHostInvokeOK(t *testing.T) {
	testlog.Start(t)
	host := newTestHost(t, upperHandler())

	w := postInvoke(t, host, protocol.InvokeRequest{
		RunID:      "run-1",
		StepIndex:  1,
		Capability: "echo",
		Payload:    protocol.Payload{Text: "hello"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Status != protocol.StatusOK || env.Error != "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Payload.Text != "HELLO" {
		t.Fatalf("expected uppercased payload, got %q", env.Payload.Text)
	}
}

func TestHostInvokeTransient(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		err  error
	}{
		{"wrapped transient", fmt.Errorf("%w: upstream flap", capability.ErrTransient)},
		{"deadline", context.DeadlineExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			host := newTestHost(t, &scriptedHandler{name: "echo", fn: func(context.Context, protocol.InvokeRequest) (protocol.Payload, error) {
				return protocol.Payload{}, tc.err
			}})
			w := postInvoke(t, host, validReq())
			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
			}
			env := decodeEnvelope(t, w)
			if env.Status != protocol.StatusTransientError || env.Error == "" {
				t.Fatalf("unexpected envelope: %+v", env)
			}
		})
	}
}

func TestHostInvokePermanent(t *testing.T) {
	testlog.Start(t)
	host := newTestHost(t, &scriptedHandler{name: "echo", fn: func(context.Context, protocol.InvokeRequest) (protocol.Payload, error) {
		return protocol.Payload{}, errors.New("unsupported document")
	}})

	w := postInvoke(t, host, validReq())
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Status != protocol.StatusPermanentError || env.Error == "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestHostInvokeWrongCapability(t *testing.T) {
	testlog.Start(t)
	host := newTestHost(t, upperHandler())

	req := validReq()
	req.Capability = "translator"
	w := postInvoke(t, host, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Status != protocol.StatusPermanentError || !strings.Contains(env.Error, "echo") {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestHostInvokeBadRequest(t *testing.T) {
	testlog.Start(t)
	host := newTestHost(t, upperHandler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(`{"run_id": `))
	req.Header.Set("Content-Type", "application/json")
	host.HTTPRouter().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}

	missing := validReq()
	missing.RunID = ""
	w = postInvoke(t, host, missing)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing run id, got %d: %s", w.Code, w.Body.String())
	}
	if env := decodeEnvelope(t, w); env.Status != protocol.StatusPermanentError {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestHostDescribe(t *testing.T) {
	testlog.Start(t)
	host := newTestHost(t, upperHandler())

	w := httptest.NewRecorder()
	host.HTTPRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/capability", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var c registry.Capability
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode descriptor: %v", err)
	}
	if c.Name != "echo" || c.InputShape != protocol.ShapeText {
		t.Fatalf("unexpected descriptor: %+v", c)
	}
}

func TestHostHealthAndMetrics(t *testing.T) {
	testlog.Start(t)
	host := newTestHost(t, upperHandler())

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		w := httptest.NewRecorder()
		host.HTTPRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 from %s, got %d", path, w.Code)
		}
	}
	w := httptest.NewRecorder()
	host.HTTPRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(w.Body.String(), `"capability":"echo"`) {
		t.Fatalf("expected the hosted capability in health, got %s", w.Body.String())
	}
}

func TestAppearRejectsNilHandler(t *testing.T) {
	testlog.Start(t)
	if _, err := Appear("cap.test", ":0", nil, nil); !errors.Is(err, capability.ErrHandlerNil) {
		t.Fatalf("expected nil handler rejection, got %v", err)
	}
	if _, err := Attach("cap.test", gin.New(), "", nil); !errors.Is(err, capability.ErrHandlerNil) {
		t.Fatalf("expected nil handler rejection, got %v", err)
	}
}

func TestHostRoundTripThroughHTTPInvoker(t *testing.T) {
	testlog.Start(t)
	host := newTestHost(t, upperHandler())
	ts := httptest.NewServer(host.HTTPRouter())
	defer ts.Close()

	target := registry.Capability{
		Name:        "echo",
		InputShape:  protocol.ShapeText,
		OutputShape: protocol.ShapeText,
		Target:      registry.Target{Kind: registry.TargetHTTP, Addr: ts.URL},
	}
	inv := invoke.NewHTTPInvoker(nil)
	out, err := inv.Invoke(context.Background(), target, protocol.InvokeRequest{
		RunID:      "run-1",
		StepIndex:  1,
		Capability: "echo",
		Payload:    protocol.Payload{Text: "hello"},
	})
	if err != nil {
		t.Fatalf("expected round trip to succeed, got %v", err)
	}
	if out.Text != "HELLO" {
		t.Fatalf("expected uppercased payload, got %q", out.Text)
	}
}

func TestHostRoundTripTransientClassification(t *testing.T) {
	testlog.Start(t)
	host := newTestHost(t, &scriptedHandler{name: "echo", fn: func(context.Context, protocol.InvokeRequest) (protocol.Payload, error) {
		return protocol.Payload{}, fmt.Errorf("%w: model busy", capability.ErrTransient)
	}})
	ts := httptest.NewServer(host.HTTPRouter())
	defer ts.Close()

	target := registry.Capability{
		Name:   "echo",
		Target: registry.Target{Kind: registry.TargetHTTP, Addr: ts.URL},
	}
	_, err := invoke.NewHTTPInvoker(nil).Invoke(context.Background(), target, validReq())
	if err == nil {
		t.Fatalf("expected the failure to cross the wire")
	}
	if !protocol.IsTransient(err) {
		t.Fatalf("expected a transient classification, got %v", err)
	}
}

// scriptedHandler answers invokes with fn.
type scriptedHandler struct {
	name string
	fn   func(ctx context.Context, req protocol.InvokeRequest) (protocol.Payload, error)
}

var _ capability.Handler = (*scriptedHandler)(nil)

func (s *scriptedHandler) Name() string { return s.name }

func (s *scriptedHandler) Describe() registry.Capability {
	return registry.Capability{
		Name:        s.name,
		Description: "test capability",
		InputShape:  protocol.ShapeText,
		OutputShape: protocol.ShapeText,
		Target:      registry.Target{Kind: registry.TargetLocal},
	}
}

func (s *scriptedHandler) Invoke(ctx context.Context, req protocol.InvokeRequest) (protocol.Payload, error) {
	return s.fn(ctx, req)
}

func upperHandler() *scriptedHandler {
	return &scriptedHandler{name: "echo", fn: func(_ context.Context, req protocol.InvokeRequest) (protocol.Payload, error) {
		out := req.Payload.Clone()
		out.Text = strings.ToUpper(out.Text)
		return out, nil
	}}
}

func newTestHost(t *testing.T, h capability.Handler) *Host {
	t.Helper()
	gin.SetMode(gin.TestMode)
	host, err := Attach("cap.test", gin.New(), "", h)
	if err != nil {
		t.Fatalf("attach host: %v", err)
	}
	host.RegisterRoutes()
	return host
}

func validReq() protocol.InvokeRequest {
	return protocol.InvokeRequest{
		RunID:      "run-1",
		StepIndex:  1,
		Capability: "echo",
		Payload:    protocol.Payload{Text: "hello"},
	}
}

func postInvoke(t *testing.T, host *Host, req protocol.InvokeRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal invoke request: %v", err)
	}
	w := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(string(body)))
	httpReq.Header.Set("Content-Type", "application/json")
	host.HTTPRouter().ServeHTTP(w, httpReq)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) protocol.InvokeResponse {
	t.Helper()
	var env protocol.InvokeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}
