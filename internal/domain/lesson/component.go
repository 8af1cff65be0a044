package lesson

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags the closed set of component variants a lesson can contain.
// The string values are the wire values the frontend renders on.
type Kind string

const (
	KindIntro          Kind = "intro"
	KindInfo           Kind = "info"
	KindDragAndDrop    Kind = "dnd"
	KindMatching       Kind = "matching"
	KindMultipleChoice Kind = "mc"
)

// Validation failure classes. Callers match with errors.Is; the wrapped
// message carries the specifics.
var (
	ErrStructuralMismatch = errors.New("structural mismatch")
	ErrAnswerKey          = errors.New("invalid answer key")
	ErrEmptyContent       = errors.New("empty content")
)

// Component is one interactive block of a lesson. Validate checks the
// component's internal consistency (answer-key integrity, index bounds)
// regardless of how the component was produced. It is pure: no side
// effects, no I/O.
type Component interface {
	Kind() Kind
	Validate() error
}

// ── Intro / Info ────────────────────────────────────────────────────────────

// Text is an intro or info card: ordered paragraphs plus an optional
// trivia fact. It carries no answer key.
type Text struct {
	ID      string
	Variant Kind // KindIntro or KindInfo
	Title   string
	Content []string
	Fact    string
}

func (t *Text) Kind() Kind { return t.Variant }

func (t *Text) Validate() error {
	if len(t.Content) == 0 {
		return fmt.Errorf("%s card %q: %w", t.Variant, t.Title, ErrEmptyContent)
	}
	return nil
}

func (t *Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID      string   `json:"id"`
		Type    Kind     `json:"type"`
		Title   string   `json:"title,omitempty"`
		Content []string `json:"content"`
		Fact    string   `json:"fact,omitempty"`
	}{t.ID, t.Variant, t.Title, t.Content, t.Fact})
}

// ── Drag and drop ───────────────────────────────────────────────────────────

// Distractor marks a draggable token that belongs to no gap — a deliberate
// wrong-answer option.
const Distractor = -1

// Fragment is one piece of a drag-and-drop template: either literal text
// or a numbered gap a token must be dropped into. On the wire the template
// is a heterogeneous array of strings and gap indices.
type Fragment struct {
	Text  string
	Gap   int
	IsGap bool
}

func TextFragment(s string) Fragment { return Fragment{Text: s} }
func GapFragment(n int) Fragment     { return Fragment{Gap: n, IsGap: true} }

// DragAndDrop is a fill-in-the-gaps exercise. Every gap index used by the
// template must be covered by exactly one draggable token; tokens mapped to
// Distractor are decoys.
type DragAndDrop struct {
	ID        string
	Template  []Fragment
	Draggable map[string]int // token → gap index, or Distractor
}

func (d *DragAndDrop) Kind() Kind { return KindDragAndDrop }

func (d *DragAndDrop) Validate() error {
	gaps := make(map[int]bool)
	for _, f := range d.Template {
		if f.IsGap {
			gaps[f.Gap] = true
		}
	}

	covered := make(map[int]bool)
	for token, idx := range d.Draggable {
		if idx == Distractor {
			continue
		}
		if covered[idx] {
			return fmt.Errorf("drag-and-drop: gap %d claimed by more than one token: %w", idx, ErrStructuralMismatch)
		}
		covered[idx] = true
		if !gaps[idx] {
			return fmt.Errorf("drag-and-drop: token %q points at gap %d which the template never uses: %w", token, idx, ErrStructuralMismatch)
		}
	}

	for idx := range gaps {
		if !covered[idx] {
			return fmt.Errorf("drag-and-drop: gap %d has no token: %w", idx, ErrStructuralMismatch)
		}
	}
	return nil
}

func (d *DragAndDrop) MarshalJSON() ([]byte, error) {
	content := make([]any, len(d.Template))
	for i, f := range d.Template {
		if f.IsGap {
			content[i] = f.Gap
		} else {
			content[i] = f.Text
		}
	}
	return json.Marshal(struct {
		ID        string         `json:"id"`
		Type      Kind           `json:"type"`
		Content   []any          `json:"content"`
		Draggable map[string]int `json:"draggable"`
	}{d.ID, KindDragAndDrop, content, d.Draggable})
}

// ── Matching ────────────────────────────────────────────────────────────────

// Matching pairs terms with definitions. The indices used by the two
// mappings must form a bijection: same set on both sides, no index used
// twice within a side.
type Matching struct {
	ID          string
	Terms       map[string]int
	Definitions map[string]int
}

func (m *Matching) Kind() Kind { return KindMatching }

func (m *Matching) Validate() error {
	termSet, err := indexSet("term", m.Terms)
	if err != nil {
		return err
	}
	defSet, err := indexSet("definition", m.Definitions)
	if err != nil {
		return err
	}

	for idx := range termSet {
		if !defSet[idx] {
			return fmt.Errorf("matching: term index %d has no definition: %w", idx, ErrStructuralMismatch)
		}
	}
	for idx := range defSet {
		if !termSet[idx] {
			return fmt.Errorf("matching: definition index %d has no term: %w", idx, ErrStructuralMismatch)
		}
	}
	return nil
}

func indexSet(side string, mapping map[string]int) (map[int]bool, error) {
	set := make(map[int]bool, len(mapping))
	for _, idx := range mapping {
		if set[idx] {
			return nil, fmt.Errorf("matching: %s index %d used twice: %w", side, idx, ErrStructuralMismatch)
		}
		set[idx] = true
	}
	return set, nil
}

func (m *Matching) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string         `json:"id"`
		Type        Kind           `json:"type"`
		Terms       map[string]int `json:"terms"`
		Definitions map[string]int `json:"definitions"`
	}{m.ID, KindMatching, m.Terms, m.Definitions})
}

// ── Multiple choice ─────────────────────────────────────────────────────────

// MultipleChoice is a single-answer question: exactly one option must be
// marked correct.
type MultipleChoice struct {
	ID       string
	Question string
	Options  map[string]bool
}

func (mc *MultipleChoice) Kind() Kind { return KindMultipleChoice }

func (mc *MultipleChoice) Validate() error {
	correct := 0
	for _, ok := range mc.Options {
		if ok {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("multiple choice %q: %d options marked correct, want exactly 1: %w", mc.Question, correct, ErrAnswerKey)
	}
	return nil
}

func (mc *MultipleChoice) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string          `json:"id"`
		Type     Kind            `json:"type"`
		Question string          `json:"question"`
		Options  map[string]bool `json:"options"`
	}{mc.ID, KindMultipleChoice, mc.Question, mc.Options})
}
