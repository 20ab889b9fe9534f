package debate

import (
	"context"
	"errors"
	"time"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
)

// FailureMessage is the assistant text recorded when the model yields no usable reply.
const FailureMessage = "⚠️ API Error — Try again."

// WelcomeMessage opens every new session.
const WelcomeMessage = "👋 Welcome to AI Debate Coach! Enter your first argument to begin."

var (
	// ErrBlankInput rejects empty or whitespace-only submissions.
	ErrBlankInput = errors.New("debate: blank input")
	// ErrBusy rejects submissions while a reply is in flight.
	ErrBusy = errors.New("debate: reply already in flight")
	// ErrCancelled reports a turn aborted before its reply resolved.
	ErrCancelled = errors.New("debate: turn cancelled")
)

// Role tags the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one role-tagged message in the transcript. Turns are values and
// never change after being appended.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Status is the turn controller state.
type Status int

const (
	Idle Status = iota
	AwaitingReply
)

func (s Status) String() string {
	if s == AwaitingReply {
		return "awaiting_reply"
	}
	return "idle"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is an immutable copy of session state.
type Snapshot struct {
	ID    string       `json:"id"`
	Topic string       `json:"topic"`
	Mode  persona.Mode `json:"mode"`
	Voice bool         `json:"voice"`
	Turns []Turn       `json:"turns"`
}

// ModelClient is the generative model collaborator. It returns the text
// fragments of its reply, to be concatenated by the caller.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}

// Speaker narrates text. Speak must return promptly; a new call supersedes
// whatever was being narrated.
type Speaker interface {
	Speak(text string)
}

// Recorder receives engine telemetry.
type Recorder interface {
	ObserveTurn(outcome string, elapsed time.Duration)
	ObserveRejection(reason string)
	ObserveScore(score, average float64)
}
