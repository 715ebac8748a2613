package protocol

import "fmt"

// Shape identifies the payload form a capability consumes or produces.
type Shape string

const (
	// ShapeText is a bare text document; metadata, if present, is ignored.
	ShapeText Shape = "text"
	// ShapeTextMetadata is a text document plus required metadata.
	ShapeTextMetadata Shape = "text+metadata"
)

// ParseShape maps a config string onto a known shape.
func ParseShape(raw string) (Shape, error) {
	switch Shape(raw) {
	case ShapeText:
		return ShapeText, nil
	case ShapeTextMetadata:
		return ShapeTextMetadata, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownShape, raw)
	}
}

// Satisfies reports whether a payload of shape out can feed a consumer
// expecting shape in. Metadata-bearing output satisfies a text-only
// consumer; bare text cannot satisfy a consumer that requires metadata.
func Satisfies(out, in Shape) bool {
	switch in {
	case ShapeText:
		return out == ShapeText || out == ShapeTextMetadata
	case ShapeTextMetadata:
		return out == ShapeTextMetadata
	default:
		return false
	}
}
