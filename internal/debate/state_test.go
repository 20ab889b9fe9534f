package debate

import (
	"testing"

	"github.com/google/uuid"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
)

func TestNewStateDefaults(t *testing.T) {
	s := NewState("Remote Work", persona.Mode("bogus"), true)

	snap := s.Snapshot()
	if snap.Mode != persona.Coach {
		t.Errorf("Mode = %q, want Coach", snap.Mode)
	}
	if snap.Topic != "Remote Work" || !snap.Voice {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Turns) != 0 {
		t.Errorf("expected empty transcript, got %d turns", len(snap.Turns))
	}
	if _, err := uuid.Parse(s.ID()); err != nil {
		t.Errorf("ID %q is not a uuid: %v", s.ID(), err)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := NewState("Remote Work", persona.Coach, false)
	s.AppendTurn(Turn{Role: RoleUser, Text: "one"})

	snap := s.Snapshot()
	snap.Turns[0].Text = "mutated"
	s.AppendTurn(Turn{Role: RoleAssistant, Text: "two"})

	if len(snap.Turns) != 1 {
		t.Errorf("snapshot grew to %d turns", len(snap.Turns))
	}
	if got := s.Snapshot().Turns[0].Text; got != "one" {
		t.Errorf("stored turn = %q, want %q", got, "one")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestStateSetters(t *testing.T) {
	s := NewState("Remote Work", persona.Coach, false)
	s.SetTopic("Space Exploration")
	s.SetMode(persona.Opponent)
	s.SetVoice(true)

	snap := s.Snapshot()
	if snap.Topic != "Space Exploration" {
		t.Errorf("Topic = %q", snap.Topic)
	}
	if snap.Mode != persona.Opponent {
		t.Errorf("Mode = %q", snap.Mode)
	}
	if !s.Voice() {
		t.Error("Voice = false, want true")
	}
}

func TestStatusText(t *testing.T) {
	for status, want := range map[Status]string{Idle: "idle", AwaitingReply: "awaiting_reply"} {
		b, err := status.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText: %v", err)
		}
		if string(b) != want {
			t.Errorf("MarshalText(%d) = %q, want %q", status, b, want)
		}
	}
}
