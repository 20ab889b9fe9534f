package persona

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when a mode name matches none of the personas.
var ErrUnknownMode = errors.New("unknown mode")

// Mode selects the persona the model is instructed to adopt.
type Mode string

const (
	Coach    Mode = "Coach"
	Opponent Mode = "Opponent"
	Judge    Mode = "Judge"
)

// Modes returns every mode in cycling order.
func Modes() []Mode {
	return []Mode{Coach, Opponent, Judge}
}

// ParseMode resolves a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	name := strings.TrimSpace(s)
	for _, m := range Modes() {
		if strings.EqualFold(name, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("persona: %w: %q", ErrUnknownMode, s)
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case Coach, Opponent, Judge:
		return true
	}
	return false
}

func (m Mode) String() string { return string(m) }

// Instruction returns the persona instruction injected into the prompt.
// Unknown modes fall back to the coach persona.
func (m Mode) Instruction() string {
	switch m {
	case Opponent:
		return "You are debating against the user. Refute strongly."
	case Judge:
		return "You are a judge. Evaluate neutrally and explain your scoring."
	default:
		return "You are a debate coach. Provide guidance and refinement."
	}
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	modes := Modes()
	for i, candidate := range modes {
		if candidate == m {
			return modes[(i+1)%len(modes)]
		}
	}
	return Coach
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
