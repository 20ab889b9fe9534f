package debate

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
)

// State owns the transcript and the current topic, mode and voice settings.
// All mutation goes through its methods.
type State struct {
	mu    sync.RWMutex
	id    string
	topic string
	mode  persona.Mode
	voice bool
	turns []Turn
}

// NewState creates an empty session.
func NewState(topic string, mode persona.Mode, voice bool) *State {
	if !mode.Valid() {
		mode = persona.Coach
	}
	return &State{
		id:    uuid.NewString(),
		topic: topic,
		mode:  mode,
		voice: voice,
	}
}

// ID returns the session identifier.
func (s *State) ID() string { return s.id }

// AppendTurn adds turn to the end of the transcript.
func (s *State) AppendTurn(turn Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()
}

func (s *State) SetTopic(topic string) {
	s.mu.Lock()
	s.topic = topic
	s.mu.Unlock()
}

func (s *State) SetMode(mode persona.Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

func (s *State) SetVoice(on bool) {
	s.mu.Lock()
	s.voice = on
	s.mu.Unlock()
}

// Voice reports whether narration is on.
func (s *State) Voice() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voice
}

// Len returns the number of turns.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Snapshot copies the current state. Later appends never show up in a
// snapshot already taken.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return Snapshot{
		ID:    s.id,
		Topic: s.topic,
		Mode:  s.mode,
		Voice: s.voice,
		Turns: turns,
	}
}
