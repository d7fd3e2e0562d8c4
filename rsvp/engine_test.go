package rsvp_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgnsrekt/glimpse/corpus"
	"github.com/dgnsrekt/glimpse/rsvp"
	"github.com/google/uuid"
)

// fakeClock hands out timers that only fire when a test fires them.
type fakeClock struct {
	timers chan *fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{timers: make(chan *fakeTimer, 64)}
}

func (c *fakeClock) NewTimer(d time.Duration) rsvp.Timer {
	t := &fakeTimer{d: d, c: make(chan time.Time, 1)}
	c.timers <- t
	return t
}

// next returns the next timer the engine created.
func (c *fakeClock) next(t *testing.T) *fakeTimer {
	t.Helper()
	select {
	case tm := <-c.timers:
		return tm
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the engine to start a timer")
		return nil
	}
}

// none asserts that no timer was started.
func (c *fakeClock) none(t *testing.T) {
	t.Helper()
	select {
	case tm := <-c.timers:
		t.Fatalf("unexpected timer for %v", tm.d)
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeTimer struct {
	d       time.Duration
	c       chan time.Time
	stopped atomic.Bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.c }

func (t *fakeTimer) Stop() bool {
	return !t.stopped.Swap(true)
}

func (t *fakeTimer) fire() {
	if !t.stopped.Load() {
		t.c <- time.Now()
	}
}

// recorder collects every state the engine reports.
type recorder struct {
	mu     sync.Mutex
	states []rsvp.State
}

func (r *recorder) record(s rsvp.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) all() []rsvp.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]rsvp.State(nil), r.states...)
}

func newEngine(t *testing.T, wpm int) (*rsvp.Engine, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	cfg := rsvp.DefaultConfig()
	cfg.WPM = wpm
	cfg.Clock = clock
	e := rsvp.NewEngine(cfg)
	t.Cleanup(func() { _ = e.Close() })
	return e, clock
}

func waitForStatus(t *testing.T, e *rsvp.Engine, want rsvp.Status) rsvp.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := e.State()
		if s.Status == want {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s, engine is %s", want, s.Status)
		}
		time.Sleep(time.Millisecond)
	}
}

// TestEngineInitialState tests a freshly created engine.
func TestEngineInitialState(t *testing.T) {
	e, _ := newEngine(t, 300)

	s := e.State()
	if s.Status != rsvp.StatusIdle {
		t.Errorf("expected idle, got %s", s.Status)
	}
	if s.Position != 0 || s.Total != 0 || s.Playing() {
		t.Errorf("unexpected initial state: %+v", s)
	}
	if s.Session != uuid.Nil {
		t.Errorf("expected nil session, got %s", s.Session)
	}
	if !s.Frame.Empty() {
		t.Errorf("expected no frame, got %+v", s.Frame)
	}
	if s.WPM != 300 {
		t.Errorf("expected 300 wpm, got %d", s.WPM)
	}
}

// TestEngineLoad tests loading a corpus.
func TestEngineLoad(t *testing.T) {
	e, _ := newEngine(t, 300)

	if err := e.Load(corpus.FromText("one two three")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	s := e.State()
	if s.Status != rsvp.StatusPaused {
		t.Errorf("expected paused, got %s", s.Status)
	}
	if s.Total != 3 || s.Position != 0 {
		t.Errorf("expected 0/3, got %d/%d", s.Position, s.Total)
	}
	if s.Session == uuid.Nil {
		t.Error("expected a session id after load")
	}
	if s.Frame.Word != "one" || s.Frame.Progress != 0 {
		t.Errorf("expected preview of first word, got %+v", s.Frame)
	}
}

// TestEngineReentrantLoad tests that a second load is rejected.
func TestEngineReentrantLoad(t *testing.T) {
	e, _ := newEngine(t, 300)

	if err := e.Load(corpus.FromText("first corpus")); err != nil {
		t.Fatal(err)
	}
	before := e.State()

	if err := e.Load(corpus.FromText("second corpus here")); !errors.Is(err, rsvp.ErrAlreadyLoaded) {
		t.Errorf("expected ErrAlreadyLoaded, got %v", err)
	}

	after := e.State()
	if after.Total != 2 || after.Frame.Word != "first" || after.Session != before.Session {
		t.Errorf("corpus changed after rejected load: %+v", after)
	}
}

// TestEnginePlaysToFinish tests the display sequence and the progress
// reported along the way.
func TestEnginePlaysToFinish(t *testing.T) {
	e, clock := newEngine(t, 300)
	rec := &recorder{}
	e.OnChange(rec.record)

	if err := e.Load(corpus.FromText("a b c")); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		tm := clock.next(t)
		if tm.d != 200*time.Millisecond {
			t.Errorf("word %d: delay %v, want 200ms", i, tm.d)
		}
		tm.fire()
	}

	final := waitForStatus(t, e, rsvp.StatusFinished)
	if final.Position != 3 || final.Progress() != 1.0 {
		t.Errorf("expected 3/3 at finish, got %d/%d", final.Position, final.Total)
	}
	if final.Playing() {
		t.Error("expected playback to stop at the end")
	}
	clock.none(t)

	var shown []string
	var progress []float64
	for _, s := range rec.all() {
		if s.Status == rsvp.StatusPlaying {
			shown = append(shown, s.Frame.Word)
			progress = append(progress, s.Frame.Progress)
		}
	}

	want := []string{"a", "b", "c"}
	if len(shown) != len(want) {
		t.Fatalf("displayed %q, want %q", shown, want)
	}
	for i := range want {
		if shown[i] != want[i] {
			t.Errorf("display %d = %q, want %q", i, shown[i], want[i])
		}
	}
	if progress[2] != 1.0 {
		t.Errorf("progress at last word = %v, want exactly 1.0", progress[2])
	}
	if progress[0] >= progress[1] || progress[1] >= progress[2] {
		t.Errorf("progress not increasing: %v", progress)
	}

	states := rec.all()
	if last := states[len(states)-1]; last.Status != rsvp.StatusFinished || last.Frame.Word != "c" {
		t.Errorf("last notification = %s %q, want finished on c", last.Status, last.Frame.Word)
	}
}

// TestEnginePunctuationDelays tests that the scheduler applies the pause
// multipliers.
func TestEnginePunctuationDelays(t *testing.T) {
	e, clock := newEngine(t, 300)

	if err := e.Load(corpus.FromText("Well, that is the end.")); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(); err != nil {
		t.Fatal(err)
	}

	want := []time.Duration{280, 200, 200, 200, 400}
	for i, ms := range want {
		tm := clock.next(t)
		if tm.d != ms*time.Millisecond {
			t.Errorf("word %d: delay %v, want %v", i, tm.d, ms*time.Millisecond)
		}
		tm.fire()
	}
	waitForStatus(t, e, rsvp.StatusFinished)
}

// TestEnginePartialPauses tests that unset multipliers fall back to their
// defaults one field at a time.
func TestEnginePartialPauses(t *testing.T) {
	tests := []struct {
		name   string
		pauses rsvp.Pauses
		want   []time.Duration
	}{
		{"sentence only", rsvp.Pauses{Sentence: 3}, []time.Duration{280, 600}},
		{"clause only", rsvp.Pauses{Clause: 1.5}, []time.Duration{300, 400}},
		{"negative", rsvp.Pauses{Sentence: -1, Clause: -1}, []time.Duration{280, 400}},
		{"zero", rsvp.Pauses{}, []time.Duration{280, 400}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clock := newFakeClock()
			cfg := rsvp.DefaultConfig()
			cfg.WPM = 300
			cfg.Pauses = tc.pauses
			cfg.Clock = clock
			e := rsvp.NewEngine(cfg)
			t.Cleanup(func() { _ = e.Close() })

			if err := e.Load(corpus.FromText("Well, done.")); err != nil {
				t.Fatal(err)
			}
			if err := e.Play(); err != nil {
				t.Fatal(err)
			}
			for i, ms := range tc.want {
				tm := clock.next(t)
				if tm.d != ms*time.Millisecond {
					t.Errorf("word %d: delay %v, want %v", i, tm.d, ms*time.Millisecond)
				}
				tm.fire()
			}
			waitForStatus(t, e, rsvp.StatusFinished)
		})
	}
}

// TestEngineSetWPMDuringWait tests that a rate change applies to the next
// word, not the one on display.
func TestEngineSetWPMDuringWait(t *testing.T) {
	e, clock := newEngine(t, 300)

	if err := e.Load(corpus.FromText("one two three")); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(); err != nil {
		t.Fatal(err)
	}

	first := clock.next(t)
	if err := e.SetWPM(600); err != nil {
		t.Fatalf("SetWPM failed: %v", err)
	}
	if first.d != 200*time.Millisecond {
		t.Errorf("current word delay changed to %v", first.d)
	}
	if s := e.State(); s.WPM != 600 || s.Frame.Word != "one" || !s.Playing() {
		t.Errorf("unexpected state after SetWPM: %+v", s)
	}

	first.fire()
	second := clock.next(t)
	if second.d != 100*time.Millisecond {
		t.Errorf("next word delay = %v, want 100ms", second.d)
	}
}

// TestEngineSetWPMInvalid tests that invalid rates are rejected.
func TestEngineSetWPMInvalid(t *testing.T) {
	e, _ := newEngine(t, 300)

	for _, bad := range []int{0, -5} {
		if err := e.SetWPM(bad); !errors.Is(err, rsvp.ErrInvalidRate) {
			t.Errorf("SetWPM(%d) = %v, want ErrInvalidRate", bad, err)
		}
	}
	if s := e.State(); s.WPM != 300 {
		t.Errorf("WPM = %d after invalid rates, want 300", s.WPM)
	}
}

// TestEnginePauseMidWait tests that pausing during a wait stops playback
// before the next word.
func TestEnginePauseMidWait(t *testing.T) {
	e, clock := newEngine(t, 300)

	if err := e.Load(corpus.FromText("one two three")); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	tm := clock.next(t)

	if err := e.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if !tm.stopped.Load() {
		t.Error("expected the pending wait to be stopped")
	}
	tm.fire()
	clock.none(t)

	s := e.State()
	if s.Status != rsvp.StatusPaused || s.Frame.Word != "one" || s.Position != 1 {
		t.Errorf("unexpected state after pause: %s %q %d", s.Status, s.Frame.Word, s.Position)
	}

	// Resuming shows the next word straight away.
	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	clock.next(t)
	if s := e.State(); s.Frame.Word != "two" {
		t.Errorf("expected two after resume, got %q", s.Frame.Word)
	}
}

// TestEngineToggle tests flipping between play and pause.
func TestEngineToggle(t *testing.T) {
	e, clock := newEngine(t, 300)

	if err := e.Load(corpus.FromText("x y")); err != nil {
		t.Fatal(err)
	}
	if err := e.Toggle(); err != nil {
		t.Fatal(err)
	}
	clock.next(t)
	if !e.State().Playing() {
		t.Error("expected playing after first toggle")
	}

	if err := e.Toggle(); err != nil {
		t.Fatal(err)
	}
	if e.State().Playing() {
		t.Error("expected paused after second toggle")
	}
}

// TestEngineRestart tests rewinding from any position.
func TestEngineRestart(t *testing.T) {
	e, clock := newEngine(t, 300)

	if err := e.Restart(); !errors.Is(err, rsvp.ErrNoCorpus) {
		t.Errorf("Restart while idle = %v, want ErrNoCorpus", err)
	}

	if err := e.Load(corpus.FromText("one two three")); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	clock.next(t).fire()
	tm := clock.next(t)

	if err := e.Restart(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if !tm.stopped.Load() {
		t.Error("expected the pending wait to be stopped")
	}

	s := e.State()
	if s.Position != 0 || s.Playing() || s.Status != rsvp.StatusPaused {
		t.Errorf("unexpected state after restart: %+v", s)
	}
	if s.Frame.Word != "one" || s.Frame.Progress != 0 {
		t.Errorf("expected preview of first word, got %+v", s.Frame)
	}
}

// TestEnginePlayFinished tests that a finished corpus needs a restart.
func TestEnginePlayFinished(t *testing.T) {
	e, clock := newEngine(t, 300)

	if err := e.Load(corpus.FromText("only")); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	clock.next(t).fire()
	waitForStatus(t, e, rsvp.StatusFinished)

	if err := e.Play(); !errors.Is(err, rsvp.ErrFinished) {
		t.Errorf("Play when finished = %v, want ErrFinished", err)
	}
	clock.none(t)
	if s := e.State(); s.Status != rsvp.StatusFinished || s.Position != 1 {
		t.Errorf("Play moved a finished engine: %+v", s)
	}

	if err := e.Restart(); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(); err != nil {
		t.Errorf("Play after restart failed: %v", err)
	}
	clock.next(t)
}

// TestEngineEmptyCorpus tests that an empty corpus loads and is finished.
func TestEngineEmptyCorpus(t *testing.T) {
	e, clock := newEngine(t, 300)

	if err := e.Load(corpus.FromText("   ")); err != nil {
		t.Fatalf("Load of empty corpus failed: %v", err)
	}
	s := e.State()
	if s.Status != rsvp.StatusFinished || !s.Frame.Empty() {
		t.Errorf("expected finished with no frame, got %+v", s)
	}
	if err := e.Play(); !errors.Is(err, rsvp.ErrFinished) {
		t.Errorf("Play on empty corpus = %v, want ErrFinished", err)
	}
	clock.none(t)
}

// TestEngineClear tests returning to idle from every state.
func TestEngineClear(t *testing.T) {
	e, clock := newEngine(t, 300)

	if err := e.Clear(); err != nil {
		t.Errorf("Clear while idle failed: %v", err)
	}

	if err := e.Load(corpus.FromText("one two")); err != nil {
		t.Fatal(err)
	}
	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	tm := clock.next(t)

	if err := e.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if !tm.stopped.Load() {
		t.Error("expected the pending wait to be stopped")
	}

	s := e.State()
	if s.Status != rsvp.StatusIdle || s.Total != 0 || s.Position != 0 || s.Playing() {
		t.Errorf("expected idle after clear, got %+v", s)
	}
	if err := e.Play(); !errors.Is(err, rsvp.ErrNoCorpus) {
		t.Errorf("Play after clear = %v, want ErrNoCorpus", err)
	}

	if err := e.Load(corpus.FromText("fresh start")); err != nil {
		t.Errorf("Load after clear failed: %v", err)
	}
	if s := e.State(); s.Total != 2 || s.Frame.Word != "fresh" {
		t.Errorf("unexpected state after reload: %+v", s)
	}
}

// TestEngineSpeedSteps tests Faster and Slower.
func TestEngineSpeedSteps(t *testing.T) {
	e, _ := newEngine(t, 300)

	if err := e.Faster(); err != nil {
		t.Fatal(err)
	}
	if s := e.State(); s.WPM != 325 {
		t.Errorf("WPM = %d after Faster, want 325", s.WPM)
	}
	if err := e.Slower(); err != nil {
		t.Fatal(err)
	}
	if err := e.Slower(); err != nil {
		t.Fatal(err)
	}
	if s := e.State(); s.WPM != 275 {
		t.Errorf("WPM = %d after Slower, want 275", s.WPM)
	}
}

// TestEngineSubscribe tests the latest-wins update channel.
func TestEngineSubscribe(t *testing.T) {
	e, _ := newEngine(t, 300)
	ch := e.Subscribe()

	if err := e.Load(corpus.FromText("one")); err != nil {
		t.Fatal(err)
	}
	if err := e.SetWPM(500); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-ch:
		if s.WPM != 500 || s.Total != 1 {
			t.Errorf("expected latest state, got %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("no state received")
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after Close")
	}
	if _, ok := <-e.Subscribe(); ok {
		t.Error("expected closed channel when subscribing after Close")
	}
}

// TestEngineClosed tests commands issued after Close.
func TestEngineClosed(t *testing.T) {
	e, _ := newEngine(t, 300)

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	if err := e.Load(corpus.FromText("late")); !errors.Is(err, rsvp.ErrClosed) {
		t.Errorf("Load after Close = %v, want ErrClosed", err)
	}
	if err := e.Play(); !errors.Is(err, rsvp.ErrClosed) {
		t.Errorf("Play after Close = %v, want ErrClosed", err)
	}
	if s := e.State(); s.Status != rsvp.StatusIdle {
		t.Errorf("State after Close = %s, want idle", s.Status)
	}
}

// TestEngineConcurrentCommands tests that commands from many goroutines are
// serialized safely.
func TestEngineConcurrentCommands(t *testing.T) {
	e, clock := newEngine(t, 300)

	go func() {
		for tm := range clock.timers {
			tm.fire()
		}
	}()

	if err := e.Load(corpus.FromText("lorem ipsum dolor sit amet consectetur adipiscing elit")); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				switch (i + j) % 4 {
				case 0:
					_ = e.Play()
				case 1:
					_ = e.Pause()
				case 2:
					_ = e.SetWPM(100 + j)
				case 3:
					_ = e.State()
				}
			}
		}(i)
	}
	wg.Wait()

	s := e.State()
	if s.Position < 0 || s.Position > s.Total {
		t.Errorf("position out of range: %d/%d", s.Position, s.Total)
	}
}
