package model

import (
	"encoding/json"
	"fmt"
)

// wirePart is the on-wire envelope for a Part: a discriminator plus the
// concrete part's fields inlined. This lets Message round-trip through
// persisted workflow state without losing which concrete type each part is.
type wirePart struct {
	Kind string `json:"kind"`

	Text string `json:"text,omitempty"`

	MediaType string `json:"mediaType,omitempty"`
	Base64    string  `json:"base64,omitempty"`
	URL       string  `json:"url,omitempty"`
	Filename  string  `json:"filename,omitempty"`

	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	ToolCallID string          `json:"toolCallId,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	IsError    bool            `json:"isError,omitempty"`
}

func toWire(p Part) (wirePart, error) {
	switch v := p.(type) {
	case TextPart:
		return wirePart{Kind: PartKindText, Text: v.Text}, nil
	case ImagePart:
		return wirePart{Kind: PartKindImage, MediaType: v.MediaType, Base64: v.Base64, URL: v.URL}, nil
	case FilePart:
		return wirePart{Kind: PartKindFile, Filename: v.Filename, MediaType: v.MediaType, Base64: v.Base64, URL: v.URL}, nil
	case ReasoningPart:
		return wirePart{Kind: PartKindReasoning, Text: v.Text}, nil
	case ToolCallPart:
		return wirePart{Kind: PartKindToolCall, ID: v.ID, Name: v.Name, Input: v.Input}, nil
	case ToolResultPart:
		return wirePart{Kind: PartKindToolResult, ToolCallID: v.ToolCallID, Output: v.Output, IsError: v.IsError}, nil
	default:
		return wirePart{}, fmt.Errorf("model: unknown part type %T", p)
	}
}

func (w wirePart) toPart() (Part, error) {
	switch w.Kind {
	case PartKindText:
		return TextPart{Text: w.Text}, nil
	case PartKindImage:
		return ImagePart{MediaType: w.MediaType, Base64: w.Base64, URL: w.URL}, nil
	case PartKindFile:
		return FilePart{Filename: w.Filename, MediaType: w.MediaType, Base64: w.Base64, URL: w.URL}, nil
	case PartKindReasoning:
		return ReasoningPart{Text: w.Text}, nil
	case PartKindToolCall:
		return ToolCallPart{ID: w.ID, Name: w.Name, Input: w.Input}, nil
	case PartKindToolResult:
		return ToolResultPart{ToolCallID: w.ToolCallID, Output: w.Output, IsError: w.IsError}, nil
	default:
		return nil, fmt.Errorf("model: unknown wire part kind %q", w.Kind)
	}
}

// MarshalJSON implements json.Marshaler for Message, encoding each Part
// through its wire envelope.
func (m Message) MarshalJSON() ([]byte, error) {
	wire := make([]wirePart, 0, len(m.Parts))
	for _, p := range m.Parts {
		w, err := toWire(p)
		if err != nil {
			return nil, err
		}
		wire = append(wire, w)
	}
	aux := struct {
		Role  Role           `json:"role"`
		Parts []wirePart     `json:"parts"`
		Meta  map[string]any `json:"meta,omitempty"`
	}{Role: m.Role, Parts: wire, Meta: m.Meta}
	return json.Marshal(aux)
}

// UnmarshalJSON implements json.Unmarshaler for Message, materializing the
// concrete Part implementation for each wire envelope.
func (m *Message) UnmarshalJSON(data []byte) error {
	var aux struct {
		Role  Role           `json:"role"`
		Parts []wirePart     `json:"parts"`
		Meta  map[string]any `json:"meta,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	parts := make([]Part, 0, len(aux.Parts))
	for i, w := range aux.Parts {
		p, err := w.toPart()
		if err != nil {
			return fmt.Errorf("parts[%d]: %w", i, err)
		}
		parts = append(parts, p)
	}
	m.Role = aux.Role
	m.Parts = parts
	m.Meta = aux.Meta
	return nil
}
