package capability

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/danmuck/loomctl/internal/llm"
	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
	"github.com/danmuck/loomctl/internal/testutil/testlog"
)

type stubGen struct {
	lastReq llm.GenerateRequest
	calls   int
	reply   string
	err     error
}

func (s *stubGen) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func invokeReq(text string, params map[string]string) protocol.InvokeRequest {
	return protocol.InvokeRequest{
		RunID:      "run-1",
		StepIndex:  1,
		Capability: "test",
		Parameters: params,
		Payload:    protocol.Payload{Text: text, Metadata: map[string]string{"[NAME_1]": "Ada"}},
	}
}

func TestSummarizerInvoke(t *testing.T) {
	testlog.Start(t)
	gen := &stubGen{reply: "short version"}
	out, err := NewSummarizer(gen).Invoke(context.Background(), invokeReq("a very long document", nil))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out.Text != "short version" {
		t.Fatalf("unexpected output: %q", out.Text)
	}
	if out.Metadata["[NAME_1]"] != "Ada" {
		t.Fatalf("metadata dropped: %v", out.Metadata)
	}
	if !strings.Contains(gen.lastReq.Prompt, "a very long document") {
		t.Fatalf("payload text missing from prompt: %q", gen.lastReq.Prompt)
	}
	if gen.lastReq.Temperature == nil || *gen.lastReq.Temperature != 1.0 {
		t.Fatalf("expected temperature 1.0, got %v", gen.lastReq.Temperature)
	}
}

func TestTranslatorTargetLanguage(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		params map[string]string
		want   string
	}{
		{map[string]string{"target_language": "de"}, "German"},
		{map[string]string{"target_language": "ja"}, "Japanese"},
		{map[string]string{"target_language": "pt"}, "pt"},
		{nil, "English"},
	}
	for _, c := range cases {
		gen := &stubGen{reply: "translated"}
		_, err := NewTranslator(gen).Invoke(context.Background(), invokeReq("hello", c.params))
		if err != nil {
			t.Fatalf("invoke: %v", err)
		}
		if !strings.Contains(gen.lastReq.Prompt, "Target language: "+c.want) {
			t.Fatalf("expected language %q in prompt: %q", c.want, gen.lastReq.Prompt)
		}
		if gen.lastReq.Temperature == nil || *gen.lastReq.Temperature != 0.2 {
			t.Fatalf("expected temperature 0.2, got %v", gen.lastReq.Temperature)
		}
	}
}

func TestSimplifierInvoke(t *testing.T) {
	testlog.Start(t)
	gen := &stubGen{reply: "plain words"}
	out, err := NewSimplifier(gen).Invoke(context.Background(), invokeReq("myocardial infarction", nil))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out.Text != "plain words" {
		t.Fatalf("unexpected output: %q", out.Text)
	}
	if !strings.Contains(gen.lastReq.Prompt, "myocardial infarction") {
		t.Fatalf("payload text missing from prompt")
	}
}

func TestLLMFailureIsTransient(t *testing.T) {
	testlog.Start(t)
	gen := &stubGen{err: errors.New("backend 503")}
	for _, h := range []Handler{NewSummarizer(gen), NewTranslator(gen), NewSimplifier(gen)} {
		_, err := h.Invoke(context.Background(), invokeReq("text", nil))
		if !errors.Is(err, ErrTransient) {
			t.Fatalf("%s: expected ErrTransient, got %v", h.Name(), err)
		}
	}
}

func TestEmptyInputSkipsModel(t *testing.T) {
	testlog.Start(t)
	gen := &stubGen{reply: "should not be used"}
	for _, h := range []Handler{NewSummarizer(gen), NewTranslator(gen), NewSimplifier(gen)} {
		out, err := h.Invoke(context.Background(), invokeReq("   ", nil))
		if err != nil {
			t.Fatalf("%s: %v", h.Name(), err)
		}
		if out.Text != "   " {
			t.Fatalf("%s: empty input rewritten: %q", h.Name(), out.Text)
		}
	}
	if gen.calls != 0 {
		t.Fatalf("model called %d times for empty input", gen.calls)
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	if err := r.Register(NewAnonymizer()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(NewAnonymizer()); !errors.Is(err, ErrHandlerExists) {
		t.Fatalf("expected ErrHandlerExists, got %v", err)
	}
	if err := r.Register(nil); !errors.Is(err, ErrHandlerNil) {
		t.Fatalf("expected ErrHandlerNil, got %v", err)
	}
	if _, ok := r.Get("anonymizer"); !ok {
		t.Fatalf("registered handler not found")
	}
	if _, ok := r.Get("paraphraser"); ok {
		t.Fatalf("expected missing handler to return ok=false")
	}
}

func TestBuiltinsCatalogIsValid(t *testing.T) {
	testlog.Start(t)
	handlers := Builtins(&stubGen{reply: "x"})
	if len(handlers) != 5 {
		t.Fatalf("expected 5 builtins, got %d", len(handlers))
	}
	reg, err := registry.New(Catalog(handlers))
	if err != nil {
		t.Fatalf("builtin catalog rejected: %v", err)
	}
	want := []string{"anonymizer", "deanonymizer", "simplifier", "summarizer", "translator"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("catalog names: got=%v want=%v", got, want)
	}

	r := NewRegistry()
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			t.Fatalf("register %s: %v", h.Name(), err)
		}
	}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("handler names: got=%v want=%v", got, want)
	}
}

func TestRequiresModel(t *testing.T) {
	testlog.Start(t)
	for name, want := range map[string]bool{
		"summarizer":   true,
		"translator":   true,
		"simplifier":   true,
		"anonymizer":   false,
		"deanonymizer": false,
	} {
		if got := RequiresModel(name); got != want {
			t.Fatalf("RequiresModel(%s) = %v, want %v", name, got, want)
		}
	}
}
