package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

// ExecInvoker pipes invoke envelopes through a subprocess: request JSON on
// stdin, response JSON on stdout, stderr captured into the error.
type ExecInvoker struct{}

var _ Invoker = (*ExecInvoker)(nil)

func NewExecInvoker() *ExecInvoker { return &ExecInvoker{} }

func (e *ExecInvoker) Invoke(ctx context.Context, target registry.Capability, req protocol.InvokeRequest) (protocol.Payload, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return protocol.Payload{}, &protocol.InvokeError{Capability: target.Name, Err: err}
	}

	cmd := exec.CommandContext(ctx, target.Target.Command, target.Target.Args...)
	cmd.Stdin = bytes.NewReader(body)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return protocol.Payload{}, &protocol.InvokeError{Capability: target.Name, Transient: true, Err: ctx.Err()}
	}

	var env protocol.InvokeResponse
	if err := json.Unmarshal(stdout.Bytes(), &env); err == nil {
		if verr := env.Validate(); verr == nil {
			return envelopeResult(target.Name, env)
		}
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			runErr = fmt.Errorf("exit %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return protocol.Payload{}, &protocol.InvokeError{Capability: target.Name, Err: runErr}
	}
	return protocol.Payload{}, &protocol.InvokeError{
		Capability: target.Name,
		Err:        fmt.Errorf("undecodable response on stdout: %s", snippet(stdout.Bytes())),
	}
}
