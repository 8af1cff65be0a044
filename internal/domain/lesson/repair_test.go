package lesson_test

import (
	"testing"

	"github.com/lessonloop/backend/internal/domain/lesson"
)

func TestDragAndDropRenumber_CompactsSparseGaps(t *testing.T) {
	// The provider skipped index 1: template uses {0, 2}.
	d := &lesson.DragAndDrop{
		Template: []lesson.Fragment{
			lesson.TextFragment("Water is "),
			lesson.GapFragment(0),
			lesson.TextFragment(" and "),
			lesson.GapFragment(2),
		},
		Draggable: map[string]int{
			"H2O":   0,
			"a gas": 2,
			"dry":   lesson.Distractor,
		},
	}

	if err := d.Validate(); err != nil {
		t.Fatalf("sparse indices should still validate before repair: %v", err)
	}

	d.Renumber()

	if err := d.Validate(); err != nil {
		t.Fatalf("unexpected error after renumbering: %v", err)
	}
	if d.Template[3].Gap != 1 {
		t.Errorf("expected second gap renumbered to 1, got %d", d.Template[3].Gap)
	}
	if d.Draggable["a gas"] != 1 {
		t.Errorf("expected token remapped to 1, got %d", d.Draggable["a gas"])
	}
	if d.Draggable["dry"] != lesson.Distractor {
		t.Errorf("distractor must stay %d, got %d", lesson.Distractor, d.Draggable["dry"])
	}
}

func TestDragAndDropRenumber_OffsetDrift(t *testing.T) {
	// Gaps numbered from 1, tokens numbered from 1 too — a common drift.
	d := &lesson.DragAndDrop{
		Template: []lesson.Fragment{
			lesson.GapFragment(1),
			lesson.TextFragment(" orbits the "),
			lesson.GapFragment(2),
		},
		Draggable: map[string]int{"Earth": 1, "Sun": 2},
	}

	d.Renumber()

	if err := d.Validate(); err != nil {
		t.Fatalf("unexpected error after renumbering: %v", err)
	}
	if d.Template[0].Gap != 0 || d.Template[2].Gap != 1 {
		t.Errorf("expected dense gaps {0,1}, got {%d,%d}", d.Template[0].Gap, d.Template[2].Gap)
	}
}

func TestDragAndDropRenumber_RealignsSkippedGapIndex(t *testing.T) {
	// The template numbers its gaps {0, 2} while the tokens are contiguous
	// {0, 1}: invalid as generated, consistent after compaction.
	d := &lesson.DragAndDrop{
		Template: []lesson.Fragment{
			lesson.GapFragment(0),
			lesson.TextFragment(" freezes into "),
			lesson.GapFragment(2),
		},
		Draggable: map[string]int{"water": 0, "ice": 1},
	}

	if err := d.Validate(); err == nil {
		t.Fatal("expected validation failure before repair")
	}

	d.Renumber()

	if err := d.Validate(); err != nil {
		t.Fatalf("unexpected error after renumbering: %v", err)
	}
	if d.Draggable["ice"] != 1 || d.Template[2].Gap != 1 {
		t.Errorf("expected ice to fill gap 1, got token %d gap %d", d.Draggable["ice"], d.Template[2].Gap)
	}
}

func TestDragAndDropRenumber_MissingTokenStaysInvalid(t *testing.T) {
	// Template references {0,1,2} but the mapping only covers {0,1}:
	// renumbering cannot invent the missing token, so validation still
	// fails and the assembler drops the component.
	d := &lesson.DragAndDrop{
		Template: []lesson.Fragment{
			lesson.GapFragment(0),
			lesson.GapFragment(1),
			lesson.GapFragment(2),
		},
		Draggable: map[string]int{"a": 0, "b": 1},
	}

	if err := d.Validate(); err == nil {
		t.Fatal("expected validation failure before repair")
	}

	d.Renumber()

	if err := d.Validate(); err == nil {
		t.Error("expected validation failure to persist after renumbering")
	}
}

func TestMatchingRenumber_PreservesPairing(t *testing.T) {
	// Both sides numbered from 1 instead of 0.
	m := &lesson.Matching{
		Terms:       map[string]int{"mitosis": 1, "meiosis": 2},
		Definitions: map[string]int{"cell division for growth": 1, "cell division for gametes": 2},
	}

	m.Renumber()

	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected error after renumbering: %v", err)
	}
	// The original pairing must survive: mitosis still matches "growth".
	if m.Terms["mitosis"] != m.Definitions["cell division for growth"] {
		t.Error("renumbering broke the mitosis pairing")
	}
	if m.Terms["meiosis"] != m.Definitions["cell division for gametes"] {
		t.Error("renumbering broke the meiosis pairing")
	}
}

func TestMatchingRenumber_OrphanDefinitionStaysInvalid(t *testing.T) {
	m := &lesson.Matching{
		Terms:       map[string]int{"a": 0},
		Definitions: map[string]int{"first": 0, "orphan": 9},
	}

	m.Renumber()

	if err := m.Validate(); err == nil {
		t.Error("expected orphan definition to keep the component invalid")
	}
}
