package lesson

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/lessonloop/backend/internal/id"
)

// ErrUnrecognizedShape means a raw draft could not be coerced into any
// known component kind. This is never repaired — untyped garbage from the
// provider is surfaced, not guessed at.
var ErrUnrecognizedShape = errors.New("unrecognized component shape")

// draft mirrors the loose JSON shape the generation provider emits. Every
// field is optional; ParseComponent decides which kind (if any) the draft
// forms.
type draft struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Content     []json.RawMessage `json:"content"`
	Fact        string            `json:"fact"`
	Draggable   map[string]int    `json:"draggable"`
	Terms       map[string]int    `json:"terms"`
	Definitions map[string]int    `json:"definitions"`
	Question    string            `json:"question"`
	Options     map[string]bool   `json:"options"`
}

// ParseComponent coerces one raw provider draft into a typed component.
// Drafts without an id get a fresh one. Structural consistency is NOT
// checked here — that is Validate's job — only that the draft has the
// fields its declared kind needs, with the right types.
func ParseComponent(raw json.RawMessage) (Component, error) {
	var d draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	if d.ID == "" {
		d.ID = id.GenerateID()
	}

	switch Kind(d.Type) {
	case KindIntro, KindInfo:
		content, err := textContent(d.Content)
		if err != nil {
			return nil, err
		}
		return &Text{ID: d.ID, Variant: Kind(d.Type), Title: d.Title, Content: content, Fact: d.Fact}, nil

	case KindDragAndDrop:
		if d.Draggable == nil {
			return nil, fmt.Errorf("%w: drag-and-drop draft has no draggable mapping", ErrUnrecognizedShape)
		}
		template, err := parseTemplate(d.Content)
		if err != nil {
			return nil, err
		}
		return &DragAndDrop{ID: d.ID, Template: template, Draggable: d.Draggable}, nil

	case KindMatching:
		if d.Terms == nil || d.Definitions == nil {
			return nil, fmt.Errorf("%w: matching draft missing terms or definitions", ErrUnrecognizedShape)
		}
		return &Matching{ID: d.ID, Terms: d.Terms, Definitions: d.Definitions}, nil

	case KindMultipleChoice:
		if d.Question == "" || d.Options == nil {
			return nil, fmt.Errorf("%w: multiple-choice draft missing question or options", ErrUnrecognizedShape)
		}
		return &MultipleChoice{ID: d.ID, Question: d.Question, Options: d.Options}, nil

	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnrecognizedShape, d.Type)
	}
}

// ParseComponents decodes a JSON array of component documents, e.g. the
// persisted form of a lesson's contents.
func ParseComponents(data []byte) ([]Component, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: not a component array: %v", ErrUnrecognizedShape, err)
	}
	components := make([]Component, 0, len(raws))
	for _, raw := range raws {
		c, err := ParseComponent(raw)
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, nil
}

// textContent requires every element to be a JSON string.
func textContent(raws []json.RawMessage) ([]string, error) {
	content := make([]string, 0, len(raws))
	for _, raw := range raws {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: text content element is not a string", ErrUnrecognizedShape)
		}
		content = append(content, s)
	}
	return content, nil
}

// parseTemplate decodes the heterogeneous template array: strings are
// literal text, integers are gap indices.
func parseTemplate(raws []json.RawMessage) ([]Fragment, error) {
	template := make([]Fragment, 0, len(raws))
	for _, raw := range raws {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			template = append(template, TextFragment(s))
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil || n != math.Trunc(n) {
			return nil, fmt.Errorf("%w: template element %s is neither text nor a gap index", ErrUnrecognizedShape, raw)
		}
		template = append(template, GapFragment(int(n)))
	}
	return template, nil
}
