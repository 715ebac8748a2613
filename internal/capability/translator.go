package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/danmuck/loomctl/internal/llm"
	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

const translatorSystem = `You translate documents. Translate the text you are given accurately
into the requested language. Preserve the meaning and tone. Output ONLY the
translated text, with no preamble or explanation.`

var languageNames = map[string]string{
	"en": "English",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"ja": "Japanese",
}

// languageName maps a code onto a full name for prompt clarity. Unknown
// codes pass through verbatim; absent means English.
func languageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "English"
	}
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// Translator renders the payload text in another language.
type Translator struct {
	gen llm.Generator
}

var _ Handler = (*Translator)(nil)

func NewTranslator(gen llm.Generator) *Translator { return &Translator{gen: gen} }

func (tr *Translator) Name() string { return "translator" }

func (tr *Translator) Describe() registry.Capability {
	return registry.Capability{
		Name:        "translator",
		Description: "translate text into a target language (parameter: target_language)",
		InputShape:  protocol.ShapeText,
		OutputShape: protocol.ShapeText,
		Target:      registry.Target{Kind: registry.TargetLocal},
	}
}

func (tr *Translator) Invoke(ctx context.Context, req protocol.InvokeRequest) (protocol.Payload, error) {
	out := req.Payload.Clone()
	if strings.TrimSpace(out.Text) == "" {
		return out, nil
	}
	lang := languageName(req.Parameters["target_language"])
	temp := float32(0.2)
	text, err := tr.gen.Generate(ctx, llm.GenerateRequest{
		System: translatorSystem,
		Prompt: fmt.Sprintf("Target language: %s\n\nText to Translate:\n---\n%s\n---\n\nTranslated Text (%s):",
			lang, out.Text, lang),
		Temperature: &temp,
	})
	if err != nil {
		return protocol.Payload{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	out.Text = text
	return out, nil
}
