package capability

import (
	"context"
	"fmt"
	"maps"
	"regexp"

	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

// piiPatterns are applied in order; earlier labels win overlapping text
// (an SSN must not be half-eaten by the phone pattern).
var piiPatterns = []struct {
	label string
	re    *regexp.Regexp
}{
	{"EMAIL", regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)},
	{"SSN", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"MRN", regexp.MustCompile(`(?i)\bMRN[:#]?\s*\d{6,10}\b`)},
	{"PHONE", regexp.MustCompile(`(?:\(\d{3}\)\s?|\b\d{3}[-.\s])\d{3}[-.\s]\d{4}\b`)},
	{"DATE", regexp.MustCompile(`\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4})\b`)},
	{"NAME", regexp.MustCompile(`\b(?:Dr|Mr|Mrs|Ms|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)},
}

// Anonymizer deterministically scrubs identifiers into indexed
// placeholders and records the substitution map in payload metadata, so a
// later step can restore them. No text ever leaves the process.
type Anonymizer struct{}

var _ Handler = (*Anonymizer)(nil)

func NewAnonymizer() *Anonymizer { return &Anonymizer{} }

func (a *Anonymizer) Name() string { return "anonymizer" }

func (a *Anonymizer) Describe() registry.Capability {
	return registry.Capability{
		Name:        "anonymizer",
		Description: "mask personal identifiers with placeholders, keeping a substitution map",
		InputShape:  protocol.ShapeText,
		OutputShape: protocol.ShapeTextMetadata,
		Target:      registry.Target{Kind: registry.TargetLocal},
	}
}

func (a *Anonymizer) Invoke(_ context.Context, req protocol.InvokeRequest) (protocol.Payload, error) {
	out := req.Payload.Clone()
	text, subs := scrub(out.Text)
	out.Text = text
	if len(subs) > 0 {
		if out.Metadata == nil {
			out.Metadata = make(map[string]string, len(subs))
		}
		maps.Copy(out.Metadata, subs)
	}
	return out, nil
}

// scrub replaces every identifier with an indexed placeholder like
// [EMAIL_1] and returns placeholder -> original.
func scrub(text string) (string, map[string]string) {
	subs := make(map[string]string)
	counts := make(map[string]int)
	out := text
	for _, p := range piiPatterns {
		out = p.re.ReplaceAllStringFunc(out, func(match string) string {
			counts[p.label]++
			ph := fmt.Sprintf("[%s_%d]", p.label, counts[p.label])
			subs[ph] = match
			return ph
		})
	}
	return out, subs
}
