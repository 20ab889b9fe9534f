package persona_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
)

func TestParseModeIsCaseInsensitive(t *testing.T) {
	cases := map[string]persona.Mode{
		"coach":       persona.Coach,
		"  OPPONENT ": persona.Opponent,
		"Judge":       persona.Judge,
	}
	for in, want := range cases {
		got, err := persona.ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseModeUnknown(t *testing.T) {
	_, err := persona.ParseMode("moderator")
	if !errors.Is(err, persona.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestInstructionPerMode(t *testing.T) {
	if !strings.Contains(persona.Coach.Instruction(), "coach") {
		t.Errorf("coach instruction should be guidance oriented: %q", persona.Coach.Instruction())
	}
	if !strings.Contains(persona.Opponent.Instruction(), "Refute") {
		t.Errorf("opponent instruction should be adversarial: %q", persona.Opponent.Instruction())
	}
	if !strings.Contains(persona.Judge.Instruction(), "neutrally") {
		t.Errorf("judge instruction should be neutral: %q", persona.Judge.Instruction())
	}
}

func TestInstructionsAreDistinct(t *testing.T) {
	seen := map[string]persona.Mode{}
	for _, m := range persona.Modes() {
		ins := m.Instruction()
		if prev, ok := seen[ins]; ok {
			t.Errorf("%s and %s share an instruction", prev, m)
		}
		seen[ins] = m
	}
}

func TestNextCycles(t *testing.T) {
	m := persona.Coach
	var got []persona.Mode
	for range 4 {
		m = m.Next()
		got = append(got, m)
	}
	want := []persona.Mode{persona.Opponent, persona.Judge, persona.Coach, persona.Opponent}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Next sequence = %v, want %v", got, want)
		}
	}
	if persona.Mode("bogus").Next() != persona.Coach {
		t.Error("unknown mode should cycle back to Coach")
	}
}

func TestModeJSON(t *testing.T) {
	var payload struct {
		Mode persona.Mode `json:"mode"`
	}
	if err := json.Unmarshal([]byte(`{"mode":"judge"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Mode != persona.Judge {
		t.Errorf("mode = %q, want Judge", payload.Mode)
	}
	if err := json.Unmarshal([]byte(`{"mode":"referee"}`), &payload); err == nil {
		t.Error("expected error for unknown mode")
	}
}
