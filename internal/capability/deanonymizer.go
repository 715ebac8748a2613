package capability

import (
	"context"
	"fmt"
	"regexp"

	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

var placeholderPattern = regexp.MustCompile(`\[[A-Z]+_\d+\]`)

// Deanonymizer restores identifiers from the anonymizer's substitution
// map. It requires metadata: a pipeline that routes it a bare text payload
// is a planning bug, caught by shape validation.
type Deanonymizer struct{}

var _ Handler = (*Deanonymizer)(nil)

func NewDeanonymizer() *Deanonymizer { return &Deanonymizer{} }

func (d *Deanonymizer) Name() string { return "deanonymizer" }

func (d *Deanonymizer) Describe() registry.Capability {
	return registry.Capability{
		Name:        "deanonymizer",
		Description: "restore identifiers masked by the anonymizer from the substitution map",
		InputShape:  protocol.ShapeTextMetadata,
		OutputShape: protocol.ShapeText,
		Target:      registry.Target{Kind: registry.TargetLocal},
	}
}

func (d *Deanonymizer) Invoke(_ context.Context, req protocol.InvokeRequest) (protocol.Payload, error) {
	if len(req.Payload.Metadata) == 0 {
		return protocol.Payload{}, fmt.Errorf("%w: no substitution map in payload", ErrMissingMetadata)
	}
	out := req.Payload.Clone()
	out.Text = placeholderPattern.ReplaceAllStringFunc(out.Text, func(ph string) string {
		orig, ok := out.Metadata[ph]
		if !ok {
			return ph
		}
		delete(out.Metadata, ph)
		return orig
	})
	return out, nil
}
