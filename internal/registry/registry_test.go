package registry

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/testutil/testlog"
)

func textCap(name string) Capability {
	return Capability{
		Name:        name,
		Description: "capability under test",
		InputShape:  protocol.ShapeText,
		OutputShape: protocol.ShapeText,
		Target:      Target{Kind: TargetLocal},
	}
}

func TestNewAndGet(t *testing.T) {
	testlog.Start(t)
	reg, err := New([]Capability{textCap("summarizer"), textCap("translator")})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	got, ok := reg.Get("summarizer")
	if !ok || got.Name != "summarizer" {
		t.Fatalf("get failed: ok=%v name=%q", ok, got.Name)
	}
	if _, ok := reg.Get("paraphraser"); ok {
		t.Fatalf("expected missing capability to return ok=false")
	}
}

func TestNewRejectsDuplicate(t *testing.T) {
	testlog.Start(t)
	_, err := New([]Capability{textCap("summarizer"), textCap("summarizer")})
	if !errors.Is(err, ErrInvalidRegistry) {
		t.Fatalf("expected ErrInvalidRegistry, got %v", err)
	}
}

func TestNewRejectsInvalidCapabilities(t *testing.T) {
	testlog.Start(t)
	httpNoAddr := textCap("remote")
	httpNoAddr.Target = Target{Kind: TargetHTTP}
	execNoCommand := textCap("shell")
	execNoCommand.Target = Target{Kind: TargetExec}
	badShape := textCap("odd")
	badShape.InputShape = protocol.Shape("binary")
	unknownKind := textCap("weird")
	unknownKind.Target = Target{Kind: TargetKind("carrier-pigeon")}

	cases := []Capability{
		{},
		textCap("Upper.Case"),
		textCap(".leading"),
		textCap("double..dot"),
		badShape,
		httpNoAddr,
		execNoCommand,
		unknownKind,
	}
	for i, c := range cases {
		if _, err := New([]Capability{c}); !errors.Is(err, ErrInvalidRegistry) {
			t.Fatalf("case %d: expected ErrInvalidRegistry, got %v", i, err)
		}
	}
}

func TestNamesAndListSorted(t *testing.T) {
	testlog.Start(t)
	reg, err := New([]Capability{textCap("zeta"), textCap("alpha"), textCap("mid")})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("names not sorted: got=%v want=%v", got, want)
	}
	list := reg.List()
	for i, c := range list {
		if c.Name != want[i] {
			t.Fatalf("list not sorted: got=%q at %d", c.Name, i)
		}
	}
}

func TestEmptyRegistryIsValid(t *testing.T) {
	testlog.Start(t)
	reg, err := New(nil)
	if err != nil {
		t.Fatalf("empty registry rejected: %v", err)
	}
	if reg.Len() != 0 || len(reg.Names()) != 0 {
		t.Fatalf("expected empty registry")
	}
}

func TestParseTargetKind(t *testing.T) {
	testlog.Start(t)
	for _, raw := range []string{"local", "http", "exec"} {
		kind, err := ParseTargetKind(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if string(kind) != raw {
			t.Fatalf("parse %q: got %q", raw, kind)
		}
	}
	if _, err := ParseTargetKind("carrier-pigeon"); !errors.Is(err, ErrInvalidRegistry) {
		t.Fatalf("expected ErrInvalidRegistry, got %v", err)
	}
}

func TestTargetBaseURL(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		target Target
		want   string
	}{
		{Target{Kind: TargetHTTP, Addr: "http://cap-host:9001/"}, "http://cap-host:9001"},
		{Target{Kind: TargetHTTP, Host: "cap-host", Addr: ":9001"}, "http://cap-host:9001"},
		{Target{Kind: TargetHTTP, Addr: ":9001"}, "http://localhost:9001"},
		{Target{Kind: TargetHTTP, Addr: "cap-host:9001"}, "http://cap-host:9001"},
	}
	for _, c := range cases {
		if got := c.target.BaseURL(); got != c.want {
			t.Fatalf("BaseURL(%+v) = %q, want %q", c.target, got, c.want)
		}
	}
}
