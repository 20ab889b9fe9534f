package speech

import (
	"context"
	"errors"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type call struct {
	name string
	args []string
}

// fakeRunner records calls. When block is set it waits for cancellation.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []call
	cancelled int
	block     bool
	started   chan struct{}
	err       error
}

func newFakeRunner(block bool) *fakeRunner {
	return &fakeRunner{block: block, started: make(chan struct{}, 16)}
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: args})
	f.mu.Unlock()
	f.started <- struct{}{}
	if f.block {
		<-ctx.Done()
		f.mu.Lock()
		f.cancelled++
		f.mu.Unlock()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeRunner) snapshot() ([]call, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...), f.cancelled
}

func TestNarrator(t *testing.T) {
	Convey("Given a narrator with a fake runner", t, func() {
		n := New("espeak", "-s", "160")

		Convey("Speak passes the text as the last argument", func() {
			fr := newFakeRunner(false)
			n.run = fr.run
			n.Speak("  Score: 7  ")
			n.Wait()

			calls, _ := fr.snapshot()
			So(calls, ShouldHaveLength, 1)
			So(calls[0].name, ShouldEqual, "espeak")
			So(calls[0].args, ShouldResemble, []string{"-s", "160", "Score: 7"})
		})

		Convey("blank text is not narrated", func() {
			fr := newFakeRunner(false)
			n.run = fr.run
			n.Speak("   ")
			n.Wait()

			calls, _ := fr.snapshot()
			So(calls, ShouldBeEmpty)
		})

		Convey("a new Speak supersedes the one in progress", func() {
			fr := newFakeRunner(true)
			n.run = fr.run
			n.Speak("first")
			<-fr.started
			n.Speak("second")
			<-fr.started

			calls, cancelled := fr.snapshot()
			So(calls, ShouldHaveLength, 2)
			So(calls[1].args, ShouldResemble, []string{"-s", "160", "second"})
			So(cancelled, ShouldEqual, 1)

			n.Stop()
			n.Wait()
			_, cancelled = fr.snapshot()
			So(cancelled, ShouldEqual, 2)
		})

		Convey("runner errors are swallowed", func() {
			fr := newFakeRunner(false)
			fr.err = errors.New("no audio device")
			n.run = fr.run
			So(func() { n.Speak("hello"); n.Wait() }, ShouldNotPanic)
		})

		Convey("Stop and Wait are safe before any narration", func() {
			So(func() { n.Stop(); n.Wait() }, ShouldNotPanic)
		})
	})
}

func TestDetect(t *testing.T) {
	Convey("Given a fake PATH", t, func() {
		orig := lookPath
		Reset(func() { lookPath = orig })

		Convey("the first available synthesizer wins", func() {
			lookPath = func(name string) (string, error) {
				if name == "espeak" || name == "spd-say" {
					return "/usr/bin/" + name, nil
				}
				return "", errors.New("not found")
			}
			n, err := Detect()
			So(err, ShouldBeNil)
			So(n.Command(), ShouldEqual, "/usr/bin/espeak")
		})

		Convey("no synthesizer yields ErrNoSynthesizer", func() {
			lookPath = func(string) (string, error) { return "", errors.New("not found") }
			_, err := Detect()
			So(errors.Is(err, ErrNoSynthesizer), ShouldBeTrue)
		})

		Convey("FromCommand resolves the first field and keeps the rest as args", func() {
			lookPath = func(name string) (string, error) { return "/opt/" + name, nil }
			n, err := FromCommand("espeak-ng -v en-us")
			So(err, ShouldBeNil)
			So(n.Command(), ShouldEqual, "/opt/espeak-ng")
			So(n.args, ShouldResemble, []string{"-v", "en-us"})
		})

		Convey("FromCommand reports a missing command", func() {
			lookPath = func(string) (string, error) { return "", errors.New("not found") }
			_, err := FromCommand("festival --tts")
			So(errors.Is(err, ErrNoSynthesizer), ShouldBeTrue)
		})
	})
}
