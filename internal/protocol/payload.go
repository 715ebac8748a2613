// Package protocol defines the payload and invocation envelopes exchanged
// between the run coordinator, the pipeline executor, and capability hosts.
//
// Envelopes are validated at every boundary: handlers validate what they
// decode, invokers validate what comes back. Payloads are cloned whenever
// they cross a module boundary so no capability can mutate the
// coordinator's copy.
package protocol

import "maps"

// Payload is the document flowing through a pipeline: the text under
// transformation plus any metadata accumulated along the way.
type Payload struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the payload.
func (p Payload) Clone() Payload {
	out := Payload{Text: p.Text}
	if len(p.Metadata) > 0 {
		out.Metadata = make(map[string]string, len(p.Metadata))
		maps.Copy(out.Metadata, p.Metadata)
	}
	return out
}
