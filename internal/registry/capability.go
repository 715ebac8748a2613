package registry

import (
	"fmt"
	"strings"

	"github.com/danmuck/loomctl/internal/protocol"
)

// TargetKind selects how a capability is invoked.
type TargetKind string

const (
	// TargetLocal runs the capability in-process.
	TargetLocal TargetKind = "local"
	// TargetHTTP posts invoke envelopes to a remote capability host.
	TargetHTTP TargetKind = "http"
	// TargetExec pipes invoke envelopes through a subprocess on stdio.
	TargetExec TargetKind = "exec"
)

// ParseTargetKind maps a config string onto a target kind.
func ParseTargetKind(raw string) (TargetKind, error) {
	switch TargetKind(raw) {
	case TargetLocal, TargetHTTP, TargetExec:
		return TargetKind(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown target kind %q", ErrInvalidRegistry, raw)
	}
}

// Target describes where a capability runs. HTTP targets use Host/Addr,
// exec targets use Command/Args, local targets need neither.
type Target struct {
	Kind    TargetKind `json:"kind"`
	Host    string     `json:"host,omitempty"`
	Addr    string     `json:"addr,omitempty"`
	Command string     `json:"command,omitempty"`
	Args    []string   `json:"args,omitempty"`
}

// BaseURL resolves the HTTP base for a remote target. A full http(s)
// address is taken as-is; a bare ":port" addr is combined with the host,
// defaulting to localhost.
func (t Target) BaseURL() string {
	addr := strings.TrimSpace(t.Addr)
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	host := strings.TrimSpace(t.Host)
	if host == "" {
		host = "localhost"
	}
	if strings.HasPrefix(addr, ":") {
		return "http://" + host + addr
	}
	return "http://" + addr
}

func (t Target) validate() error {
	switch t.Kind {
	case TargetLocal:
		return nil
	case TargetHTTP:
		if strings.TrimSpace(t.Addr) == "" {
			return fmt.Errorf("http target requires addr")
		}
		return nil
	case TargetExec:
		if strings.TrimSpace(t.Command) == "" {
			return fmt.Errorf("exec target requires command")
		}
		return nil
	default:
		return fmt.Errorf("unknown target kind %q", t.Kind)
	}
}

// Capability is one registered transformation: a name the planner may use,
// the payload shapes it consumes and produces, and where it runs.
type Capability struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputShape  protocol.Shape `json:"input"`
	OutputShape protocol.Shape `json:"output"`
	Target      Target         `json:"target"`
}

// Validate checks name format, shapes, and target wiring.
func (c Capability) Validate() error {
	name := strings.TrimSpace(c.Name)
	desc := strings.TrimSpace(c.Description)
	if name == "" || desc == "" {
		return fmt.Errorf("%w: name and description are required", ErrInvalidRegistry)
	}
	if !isValidName(name) {
		return fmt.Errorf("%w: invalid capability name %q", ErrInvalidRegistry, name)
	}
	if _, err := protocol.ParseShape(string(c.InputShape)); err != nil {
		return fmt.Errorf("%w: %s: input: %v", ErrInvalidRegistry, name, err)
	}
	if _, err := protocol.ParseShape(string(c.OutputShape)); err != nil {
		return fmt.Errorf("%w: %s: output: %v", ErrInvalidRegistry, name, err)
	}
	if err := c.Target.validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRegistry, name, err)
	}
	return nil
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(name)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
