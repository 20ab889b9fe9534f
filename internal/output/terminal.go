package output

import (
	"fmt"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate"
	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
)

const (
	ansiReset   = "\033[0m"
	ansiBold    = "\033[1m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	AnsiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
)

// Colorize wraps s with an ANSI color code and reset.
func Colorize(color, s string) string { return color + s + ansiReset }

// Bold wraps s with ANSI bold and reset.
func Bold(s string) string { return ansiBold + s + ansiReset }

// Speaker returns the display name for a turn's author.
func Speaker(role debate.Role, mode persona.Mode) string {
	switch role {
	case debate.RoleUser:
		return "You"
	case debate.RoleAssistant:
		return mode.String()
	default:
		return "System"
	}
}

// PrintTurn prints a formatted turn to stdout. Assistant turns are labelled
// with the mode active when they were printed.
func PrintTurn(turn debate.Turn, mode persona.Mode) {
	color := ansiCyan
	switch {
	case turn.Role == debate.RoleUser:
		color = ansiGreen
	case turn.Text == debate.FailureMessage:
		color = ansiRed
	case turn.Role == debate.RoleAssistant:
		color = AnsiMagenta
	}
	fmt.Printf("%s %s\n",
		Colorize(ansiBold+color, Speaker(turn.Role, mode)+":"),
		turn.Text,
	)
}

// PrintSession prints the session banner.
func PrintSession(snap debate.Snapshot) {
	voice := "off"
	if snap.Voice {
		voice = "on"
	}
	fmt.Printf("\n%s\n", Colorize(ansiBold+ansiCyan, "=== Debate: "+snap.Topic+" ==="))
	fmt.Printf("Mode: %s  Voice: %s\n\n", Bold(snap.Mode.String()), voice)
}

// PrintScore prints the running average.
func PrintScore(average float64) {
	fmt.Printf("Average Score: %s\n", Colorize(ansiYellow, fmt.Sprintf("%.1f/10", average)))
}
