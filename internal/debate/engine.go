package debate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
	"github.com/lorenzotomasdiez/debate-coach/internal/debate/reply"
	"github.com/lorenzotomasdiez/debate-coach/internal/logger"
	"github.com/lorenzotomasdiez/debate-coach/internal/metrics"
)

// Engine runs the turn-taking protocol for a single session. At most one
// model request is in flight at a time.
type Engine struct {
	state    *State
	llm      ModelClient
	speaker  Speaker
	log      logger.Logger
	recorder Recorder
	timeout  time.Duration

	mu      sync.Mutex
	status  Status
	scores  Aggregator
	seq     uint64
	cancel  context.CancelFunc
	pending chan Turn
	started time.Time
	events  []event
	// delivering is set while one goroutine drains events into the callbacks.
	delivering bool

	// OnTurn is called after each appended turn. OnStatus is called on every
	// status change. Callbacks run one at a time in transcript order and may
	// call back into the engine, including Cancel and Submit. Events raised
	// from inside a callback are delivered after it returns.
	OnTurn   func(Turn)
	OnStatus func(Status)
}

type event struct {
	turn    Turn
	hasTurn bool
	status  Status
}

// NewEngine creates an engine over state. An empty state gets the welcome
// turn. A nil speaker disables narration.
func NewEngine(state *State, llm ModelClient, speaker Speaker) *Engine {
	e := &Engine{
		state:   state,
		llm:     llm,
		speaker: speaker,
		log:     logger.Nop(),
	}
	if state.Len() == 0 {
		state.AppendTurn(Turn{Role: RoleSystem, Text: WelcomeMessage})
	}
	for _, turn := range state.Snapshot().Turns {
		if turn.Role == RoleAssistant {
			e.scores.Record(reply.Parse(turn.Text).Score)
		}
	}
	return e
}

// SetLogger replaces the engine logger.
func (e *Engine) SetLogger(l logger.Logger) {
	if l != nil {
		e.log = l
	}
}

// SetRecorder installs a telemetry sink.
func (e *Engine) SetRecorder(r Recorder) { e.recorder = r }

// SetTimeout bounds each model call. Zero means no limit. A timed out call
// takes the failure path.
func (e *Engine) SetTimeout(d time.Duration) { e.timeout = d }

// Submit starts a turn for text. It returns ErrBlankInput or ErrBusy without
// touching the transcript. Otherwise the user turn is appended and the
// returned channel yields the assistant turn, then closes. A cancelled turn
// closes the channel without a value.
func (e *Engine) Submit(ctx context.Context, text string) (<-chan Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		e.reject(ctx, "blank", ErrBlankInput)
		return nil, ErrBlankInput
	}

	e.mu.Lock()
	if e.status == AwaitingReply {
		e.mu.Unlock()
		e.reject(ctx, "busy", ErrBusy)
		return nil, ErrBusy
	}

	history := e.state.Snapshot()
	user := Turn{Role: RoleUser, Text: text}
	e.state.AppendTurn(user)

	cancelCtx, cancel := context.WithCancel(ctx)
	out := make(chan Turn, 1)
	e.seq++
	seq := e.seq
	e.status = AwaitingReply
	e.cancel = cancel
	e.pending = out
	e.started = time.Now()
	e.queueTurn(user)
	e.queueStatus(AwaitingReply)
	e.mu.Unlock()
	e.flush()

	prompt := BuildPrompt(history.Topic, history.Mode, history.Turns, text)
	e.log.Debug(ctx, "turn submitted",
		logger.String("session", history.ID),
		logger.String("mode", history.Mode.String()),
		logger.Int("prompt_bytes", len(prompt)))

	go e.resolve(cancelCtx, seq, prompt)
	return out, nil
}

// Exchange submits text and waits for the reply.
func (e *Engine) Exchange(ctx context.Context, text string) (Turn, error) {
	ch, err := e.Submit(ctx, text)
	if err != nil {
		return Turn{}, err
	}
	turn, ok := <-ch
	if !ok {
		return Turn{}, ErrCancelled
	}
	return turn, nil
}

// Cancel abandons the in-flight turn, if any. The engine returns to Idle
// immediately and the pending reply is discarded when it arrives.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	if e.status != AwaitingReply {
		e.mu.Unlock()
		return false
	}
	e.cancel()
	close(e.pending)
	elapsed := time.Since(e.started)
	e.finishLocked()
	e.mu.Unlock()
	e.flush()

	e.observeTurn(metrics.OutcomeCancelled, elapsed)
	e.log.Info(context.Background(), "turn cancelled")
	return true
}

func (e *Engine) resolve(ctx context.Context, seq uint64, prompt string) {
	callCtx := ctx
	if e.timeout > 0 {
		var stop context.CancelFunc
		callCtx, stop = context.WithTimeout(ctx, e.timeout)
		defer stop()
	}

	fragments, err := e.llm.Generate(callCtx, prompt)

	e.mu.Lock()
	if seq != e.seq || e.status != AwaitingReply {
		// Cancel already released this turn.
		e.mu.Unlock()
		return
	}
	elapsed := time.Since(e.started)
	out := e.pending
	if ctx.Err() != nil {
		e.finishLocked()
		e.mu.Unlock()
		e.flush()
		e.observeTurn(metrics.OutcomeCancelled, elapsed)
		e.log.Info(ctx, "turn cancelled by caller", logger.Err(context.Cause(ctx)))
		close(out)
		return
	}

	turn := Turn{Role: RoleAssistant, Text: FailureMessage}
	outcome := metrics.OutcomeFailed
	var score *float64
	if err == nil {
		if text := reply.Clean(strings.Join(fragments, "")); text != "" {
			parsed := reply.Parse(text)
			turn.Text = parsed.RawText
			score = parsed.Score
			outcome = metrics.OutcomeReplied
		} else {
			err = fmt.Errorf("debate: model returned no text")
		}
	}

	e.state.AppendTurn(turn)
	e.queueTurn(turn)
	e.scores.Record(score)
	average := e.scores.Average()
	e.finishLocked()
	narrate := outcome == metrics.OutcomeReplied && e.state.Voice() && e.speaker != nil
	e.mu.Unlock()
	e.flush()

	if narrate {
		e.speak(turn.Text)
	}
	e.observeTurn(outcome, elapsed)
	if score != nil && e.recorder != nil {
		e.recorder.ObserveScore(*score, average)
	}

	if err != nil {
		e.log.Warn(context.Background(), "model reply unusable",
			logger.Err(err), logger.Float64("elapsed_seconds", elapsed.Seconds()))
	} else {
		e.log.Info(context.Background(), "turn resolved",
			logger.Bool("scored", score != nil),
			logger.Float64("average", average),
			logger.Float64("elapsed_seconds", elapsed.Seconds()))
	}

	out <- turn
	close(out)
}

// finishLocked returns the controller to Idle. e.mu must be held.
func (e *Engine) finishLocked() {
	e.status = Idle
	e.cancel = nil
	e.pending = nil
	e.queueStatus(Idle)
}

func (e *Engine) queueTurn(turn Turn) {
	e.events = append(e.events, event{turn: turn, hasTurn: true})
}

func (e *Engine) queueStatus(s Status) {
	e.events = append(e.events, event{status: s})
}

// flush delivers queued events. It must be called without e.mu held. When
// another flush is already delivering, it returns at once and that loop
// picks up the new events.
func (e *Engine) flush() {
	e.mu.Lock()
	if e.delivering {
		e.mu.Unlock()
		return
	}
	e.delivering = true
	finished := false
	defer func() {
		if !finished {
			e.mu.Lock()
			e.delivering = false
			e.mu.Unlock()
		}
	}()

	for {
		batch := e.events
		e.events = nil
		if len(batch) == 0 {
			e.delivering = false
			finished = true
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()
		for _, ev := range batch {
			switch {
			case ev.hasTurn && e.OnTurn != nil:
				e.OnTurn(ev.turn)
			case !ev.hasTurn && e.OnStatus != nil:
				e.OnStatus(ev.status)
			}
		}
		e.mu.Lock()
	}
}

func (e *Engine) speak(text string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Debug(context.Background(), "speaker panicked", logger.Any("panic", r))
		}
	}()
	e.speaker.Speak(text)
}

func (e *Engine) reject(ctx context.Context, reason string, err error) {
	if e.recorder != nil {
		e.recorder.ObserveRejection(reason)
	}
	e.log.Debug(ctx, "submission rejected", logger.String("reason", reason), logger.Err(err))
}

func (e *Engine) observeTurn(outcome string, elapsed time.Duration) {
	if e.recorder != nil {
		e.recorder.ObserveTurn(outcome, elapsed)
	}
}

// SetTopic changes the topic for subsequent turns.
func (e *Engine) SetTopic(topic string) { e.state.SetTopic(topic) }

// SetMode changes the persona for subsequent turns.
func (e *Engine) SetMode(mode persona.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("debate: %w: %q", persona.ErrUnknownMode, mode)
	}
	e.state.SetMode(mode)
	return nil
}

// SetVoice toggles narration of future replies.
func (e *Engine) SetVoice(on bool) { e.state.SetVoice(on) }

// Transcript returns a copy of every turn in order.
func (e *Engine) Transcript() []Turn { return e.state.Snapshot().Turns }

// Snapshot returns a copy of the full session state.
func (e *Engine) Snapshot() Snapshot { return e.state.Snapshot() }

// ID returns the session identifier.
func (e *Engine) ID() string { return e.state.ID() }

// AverageScore returns the running mean of parsed scores.
func (e *Engine) AverageScore() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scores.Average()
}

// Status reports whether a reply is in flight.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}
