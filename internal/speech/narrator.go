// Package speech narrates replies through a local text-to-speech command.
package speech

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"github.com/lorenzotomasdiez/debate-coach/internal/logger"
)

// ErrNoSynthesizer is returned by Detect when no known command is on PATH.
var ErrNoSynthesizer = errors.New("speech: no text-to-speech command found")

// candidates are tried in order by Detect.
var candidates = []string{"say", "espeak-ng", "espeak", "spd-say"}

var lookPath = exec.LookPath

// Runner executes a synthesizer. It must stop when ctx is cancelled.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Narrator speaks one text at a time. A new Speak stops the previous one
// before starting.
type Narrator struct {
	command string
	args    []string
	run     Runner
	log     logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a narrator that runs command with args followed by the text.
func New(command string, args ...string) *Narrator {
	return &Narrator{
		command: command,
		args:    args,
		run:     execRunner,
		log:     logger.Nop(),
	}
}

// Detect returns a narrator for the first synthesizer found on PATH.
func Detect() (*Narrator, error) {
	for _, name := range candidates {
		if path, err := lookPath(name); err == nil {
			return New(path), nil
		}
	}
	return nil, ErrNoSynthesizer
}

// FromCommand parses a command line such as "espeak-ng -s 160". An empty
// line falls back to Detect.
func FromCommand(line string) (*Narrator, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Detect()
	}
	path, err := lookPath(fields[0])
	if err != nil {
		return nil, errors.Join(ErrNoSynthesizer, err)
	}
	return New(path, fields[1:]...), nil
}

// SetLogger replaces the narrator logger.
func (n *Narrator) SetLogger(l logger.Logger) {
	if l != nil {
		n.log = l
	}
}

// Command returns the synthesizer path.
func (n *Narrator) Command() string { return n.command }

// Speak starts narrating text and returns immediately. Failures are logged
// and otherwise ignored.
func (n *Narrator) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	prev := n.done
	done := make(chan struct{})
	n.cancel = cancel
	n.done = done
	n.mu.Unlock()

	args := append(append([]string(nil), n.args...), text)
	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		if ctx.Err() != nil {
			return
		}
		if err := n.run(ctx, n.command, args...); err != nil && ctx.Err() == nil {
			n.log.Debug(ctx, "narration failed", logger.String("command", n.command), logger.Err(err))
		}
	}()
}

// Stop interrupts the current narration, if any.
func (n *Narrator) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

// Wait blocks until the latest narration has ended.
func (n *Narrator) Wait() {
	n.mu.Lock()
	done := n.done
	n.mu.Unlock()
	if done != nil {
		<-done
	}
}
