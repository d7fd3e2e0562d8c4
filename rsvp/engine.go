package rsvp

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/glimpse/corpus"
	"github.com/google/uuid"
)

// Config configures an Engine.
type Config struct {
	WPM     int
	MinWPM  int
	MaxWPM  int
	WPMStep int
	Pauses  Pauses

	// Clock creates the timers waited on between words. Nil means the
	// wall clock.
	Clock Clock
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		WPM:     DefaultWPM,
		MinWPM:  DefaultMinWPM,
		MaxWPM:  DefaultMaxWPM,
		WPMStep: DefaultWPMStep,
		Pauses:  DefaultPauses,
	}
}

// playback is the mutable reading state. Only the engine's loop goroutine
// touches it.
type playback struct {
	corpus   corpus.Corpus
	loaded   bool
	session  uuid.UUID
	position int
	playing  bool
	shown    int // index of the last displayed word, -1 if none since Load or Restart
}

type request struct {
	op    func() (changed bool, err error)
	reply chan error
}

// Engine advances through a corpus one word at a time. All playback state
// lives on a single goroutine; commands are sent to it as messages, so the
// engine is safe for concurrent use.
type Engine struct {
	speed  *Speed
	pauses Pauses
	clock  Clock

	cmds      chan request
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	listeners []func(State)
	subs      []chan State
	closed    bool

	// loop-owned
	pb    playback
	timer Timer
}

// NewEngine creates an idle engine and starts its loop. Call Close to stop
// it.
func NewEngine(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	if cfg.Pauses.Sentence <= 0 {
		cfg.Pauses.Sentence = DefaultPauses.Sentence
	}
	if cfg.Pauses.Clause <= 0 {
		cfg.Pauses.Clause = DefaultPauses.Clause
	}

	e := &Engine{
		speed:  NewSpeed(cfg.WPM, cfg.MinWPM, cfg.MaxWPM, cfg.WPMStep),
		pauses: cfg.Pauses,
		clock:  cfg.Clock,
		cmds:   make(chan request),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		pb:     playback{shown: -1},
	}
	go e.run()
	return e
}

// Load hands a corpus to the engine. It only succeeds while idle; otherwise
// it returns ErrAlreadyLoaded and leaves the current corpus in place.
func (e *Engine) Load(c corpus.Corpus) error {
	return e.do(func() (bool, error) {
		if e.pb.loaded {
			return false, ErrAlreadyLoaded
		}
		e.pb = playback{corpus: c, loaded: true, session: uuid.New(), shown: -1}
		log.Debug("loaded corpus", "session", e.pb.session, "words", c.Len())
		return true, nil
	})
}

// Play starts advancing from the current position. Playing a finished
// corpus returns ErrFinished; Restart first.
func (e *Engine) Play() error {
	return e.do(e.play)
}

// Pause stops advancing. The current word stays on display.
func (e *Engine) Pause() error {
	return e.do(e.pause)
}

// Toggle pauses while playing and plays otherwise.
func (e *Engine) Toggle() error {
	return e.do(func() (bool, error) {
		if e.pb.playing {
			return e.pause()
		}
		return e.play()
	})
}

// Restart stops playback and rewinds to the first word.
func (e *Engine) Restart() error {
	return e.do(func() (bool, error) {
		if !e.pb.loaded {
			return false, ErrNoCorpus
		}
		e.pb.playing = false
		e.pb.position = 0
		e.pb.shown = -1
		log.Debug("restarted", "session", e.pb.session)
		return true, nil
	})
}

// Clear stops playback and drops the corpus, returning the engine to idle.
func (e *Engine) Clear() error {
	return e.do(func() (bool, error) {
		if e.pb.loaded {
			log.Debug("cleared corpus", "session", e.pb.session)
		}
		e.pb = playback{shown: -1}
		return true, nil
	})
}

// SetWPM changes the reading rate. The word on display keeps its delay;
// the new rate applies from the next word. Non-positive rates are rejected
// with ErrInvalidRate.
func (e *Engine) SetWPM(wpm int) error {
	return e.do(func() (bool, error) {
		if err := e.speed.Set(wpm); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Faster raises the rate by one step.
func (e *Engine) Faster() error {
	return e.do(func() (bool, error) {
		before := e.speed.WPM()
		return e.speed.Faster() != before, nil
	})
}

// Slower lowers the rate by one step.
func (e *Engine) Slower() error {
	return e.do(func() (bool, error) {
		before := e.speed.WPM()
		return e.speed.Slower() != before, nil
	})
}

// State returns a snapshot of the engine. After Close it reports an idle
// engine.
func (e *Engine) State() State {
	var s State
	err := e.do(func() (bool, error) {
		s = e.snapshot()
		return false, nil
	})
	if err != nil {
		return State{WPM: e.speed.WPM()}
	}
	return s
}

// OnChange registers fn to be called with every state change. Listeners
// run on the engine's goroutine in order of the changes; they must not
// block or call back into the engine.
func (e *Engine) OnChange(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Subscribe returns a channel that receives state changes. A slow reader
// only misses intermediate states: the channel always holds the latest one.
// The channel is closed when the engine is closed.
func (e *Engine) Subscribe() <-chan State {
	ch := make(chan State, 1)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// Close stops the engine's loop. Commands issued afterwards return
// ErrClosed.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.quit)
	})
	<-e.done
	return nil
}

func (e *Engine) do(op func() (bool, error)) error {
	req := request{op: op, reply: make(chan error, 1)}
	select {
	case e.cmds <- req:
	case <-e.done:
		return ErrClosed
	}
	return <-req.reply
}

func (e *Engine) play() (bool, error) {
	switch {
	case !e.pb.loaded:
		return false, ErrNoCorpus
	case e.pb.playing:
		return false, nil
	case e.pb.position >= e.pb.corpus.Len():
		return false, ErrFinished
	}
	e.pb.playing = true
	log.Debug("playing", "session", e.pb.session, "position", e.pb.position, "wpm", e.speed.WPM())
	return true, nil
}

func (e *Engine) pause() (bool, error) {
	if !e.pb.playing {
		return false, nil
	}
	e.pb.playing = false
	log.Debug("paused", "session", e.pb.session, "position", e.pb.position)
	return true, nil
}

func (e *Engine) run() {
	defer func() {
		e.stopTimer()

		e.mu.Lock()
		e.closed = true
		for _, ch := range e.subs {
			close(ch)
		}
		e.subs = nil
		e.mu.Unlock()

		close(e.done)
	}()

	for {
		var tick <-chan time.Time
		if e.timer != nil {
			tick = e.timer.C()
		}

		select {
		case <-e.quit:
			return

		case req := <-e.cmds:
			changed, err := req.op()
			advanced := e.schedule()
			if err == nil && changed && !advanced {
				e.notify()
			}
			req.reply <- err

		case <-tick:
			e.timer = nil
			if e.pb.position >= e.pb.corpus.Len() {
				e.pb.playing = false
				log.Debug("finished", "session", e.pb.session, "words", e.pb.corpus.Len())
				e.notify()
				continue
			}
			e.schedule()
		}
	}
}

// schedule keeps the timer in step with the playing flag. While playing
// with no pending wait it displays the next word and starts waiting on it,
// returning true.
func (e *Engine) schedule() bool {
	if !e.pb.playing {
		e.stopTimer()
		return false
	}
	if e.timer != nil {
		return false
	}
	if e.pb.position >= e.pb.corpus.Len() {
		e.pb.playing = false
		return false
	}
	e.timer = e.clock.NewTimer(e.advance())
	return true
}

// advance displays the word at the current position and returns how long
// it stays up. The rate is read now, so speed changes apply per word.
func (e *Engine) advance() time.Duration {
	word := e.pb.corpus.Word(e.pb.position)
	e.pb.shown = e.pb.position
	e.pb.position++
	e.notify()
	return e.pauses.Delay(word, e.speed.WPM())
}

func (e *Engine) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) snapshot() State {
	s := State{
		Session:  e.pb.session,
		Position: e.pb.position,
		Total:    e.pb.corpus.Len(),
		WPM:      e.speed.WPM(),
	}

	switch {
	case !e.pb.loaded:
		s.Status = StatusIdle
	case e.pb.playing:
		s.Status = StatusPlaying
	case e.pb.position >= s.Total:
		s.Status = StatusFinished
	default:
		s.Status = StatusPaused
	}

	// Show the last displayed word, or preview the next one.
	idx := e.pb.shown
	if idx < 0 {
		idx = e.pb.position
	}
	if e.pb.loaded && idx < s.Total {
		word := e.pb.corpus.Word(idx)
		s.Frame = Frame{
			Word:     word,
			Split:    ORP(word),
			Index:    idx,
			Progress: s.Progress(),
		}
	}
	return s
}

func (e *Engine) notify() {
	s := e.snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, fn := range e.listeners {
		fn(s)
	}
	for _, ch := range e.subs {
		// Replace a stale, unread state with the latest one.
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}
