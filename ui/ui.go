// Package ui provides the terminal reader for glimpse.
package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/glimpse/corpus"
	"github.com/dgnsrekt/glimpse/rsvp"
	"github.com/dustin/go-humanize"
)

const statusMessageTimeout = time.Second * 3 // how long to show status messages like "loaded 1,024 words"

// NewProgram returns a new Tea program reading with engine. A non-nil
// content is loaded as soon as the program starts; otherwise the corpus is
// read from cfg.Path, or pasted by the user when there is no path.
func NewProgram(cfg Config, engine *rsvp.Engine, content *corpus.Corpus) *tea.Program {
	log.Debug(
		"Starting glimpse",
		"path", cfg.Path,
		"autoplay", cfg.Autoplay,
		"content", content != nil,
	)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tea.NewProgram(newModel(cfg, engine, content), opts...)
}

type (
	errMsg struct{ err error }

	// corpusLoadedMsg carries a corpus read from a source, ready to be
	// handed to the engine.
	corpusLoadedMsg struct {
		corpus corpus.Corpus
		source string
	}

	statusMessageTimeoutMsg int
)

func (e errMsg) Error() string { return e.err.Error() }

// screen is the top-level application state.
type screen int

const (
	screenInput screen = iota
	screenLoading
	screenReader
)

func (s screen) String() string {
	return map[screen]string{
		screenInput:   "waiting for text",
		screenLoading: "loading source",
		screenReader:  "reading",
	}[s]
}

type model struct {
	cfg     Config
	engine  *rsvp.Engine
	updates <-chan rsvp.State
	state   rsvp.State
	screen  screen
	width   int
	height  int

	// Sub-models
	input    textarea.Model
	spinner  spinner.Model
	progress progress.Model
	help     help.Model

	readerKeys readerKeyMap
	inputKeys  inputKeyMap
	pivotColor string

	initial *corpus.Corpus
	loading string // name of the source being read

	statusMessage   *statusMessage
	statusMessageID int

	watcher *sourceWatcher

	// Cancels source reads when the program quits.
	ctx    context.Context
	cancel context.CancelFunc
}

func newModel(cfg Config, engine *rsvp.Engine, content *corpus.Corpus) model {
	ta := textarea.New()
	ta.Placeholder = "Paste or type the text you want to read…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	pivot := cfg.PivotColor
	if pivot == "" {
		pivot = defaultPivotColor()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := model{
		cfg:        cfg,
		engine:     engine,
		updates:    engine.Subscribe(),
		state:      engine.State(),
		screen:     screenInput,
		input:      ta,
		spinner:    sp,
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:       help.New(),
		readerKeys: newReaderKeyMap(),
		inputKeys:  newInputKeyMap(),
		pivotColor: pivot,
		initial:    content,
		ctx:        ctx,
		cancel:     cancel,
	}
	m.inputKeys.Reload.SetEnabled(cfg.Path != "")

	switch {
	case content != nil:
		m.screen = screenLoading
		m.loading = "input"
	case cfg.Path != "":
		m.screen = screenLoading
		m.loading = filepath.Base(cfg.Path)
		if cfg.WatchSource {
			m.watcher = newSourceWatcher(cfg.Path)
		}
	}
	return m
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "screen", m.screen)
	cmds := []tea.Cmd{rsvp.WaitForState(m.updates), textarea.Blink}

	switch {
	case m.initial != nil:
		c := *m.initial
		cmds = append(cmds, func() tea.Msg {
			return corpusLoadedMsg{corpus: c, source: "input"}
		})
	case m.cfg.Path != "":
		cmds = append(cmds, m.spinner.Tick, readSourceCmd(m.ctx, m.cfg.Path, m.cfg.Source))
	}

	if m.watcher != nil {
		cmds = append(cmds, m.watcher.wait)
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(max(10, msg.Width-4))
		m.input.SetHeight(max(3, msg.Height-6))
		m.progress.Width = max(10, msg.Width-4)
		m.help.Width = msg.Width
		return m, nil

	case rsvp.StateMsg:
		m.state = msg.State
		return m, rsvp.WaitForState(m.updates)

	case rsvp.ClosedMsg:
		log.Debug("engine updates closed")
		return m, nil

	case corpusLoadedMsg:
		return m.loadCorpus(msg)

	case errMsg:
		log.Error("unable to load source", "error", msg.err)
		m.screen = screenInput
		m.input.Focus()
		return m, m.showStatusMessage(statusMessage{msg.Error(), true})

	case sourceChangedMsg:
		var cmds []tea.Cmd
		if m.state.Status.IsLoaded() && m.watcher.shouldNotify() {
			cmds = append(cmds, m.showStatusMessage(statusMessage{
				"Source changed on disk · press c, then ctrl+r to read it again", false,
			}))
		}
		cmds = append(cmds, m.watcher.wait)
		return m, tea.Batch(cmds...)

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusMessageID {
			m.statusMessage = nil
		}
		return m, nil

	case spinner.TickMsg:
		if m.screen != screenLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.screen {
		case screenReader:
			return m.updateReader(msg)
		case screenInput:
			return m.updateInput(msg)
		case screenLoading:
			if msg.String() == "ctrl+c" {
				return m, m.quit()
			}
			return m, nil
		}
	}

	if m.screen == screenInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) updateReader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.readerKeys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.readerKeys.Toggle):
		return m, m.command("play", m.engine.Toggle)

	case key.Matches(msg, m.readerKeys.Restart):
		return m, m.command("restart", m.engine.Restart)

	case key.Matches(msg, m.readerKeys.Clear):
		cmd := m.command("clear", m.engine.Clear)
		m.state = m.engine.State()
		m.screen = screenInput
		m.input.Reset()
		return m, tea.Batch(cmd, m.input.Focus())

	case key.Matches(msg, m.readerKeys.Faster):
		return m, m.command("faster", m.engine.Faster)

	case key.Matches(msg, m.readerKeys.Slower):
		return m, m.command("slower", m.engine.Slower)

	case key.Matches(msg, m.readerKeys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.inputKeys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.inputKeys.Load):
		text := m.input.Value()
		return m, func() tea.Msg {
			return corpusLoadedMsg{corpus: corpus.FromText(text), source: "pasted text"}
		}

	case key.Matches(msg, m.inputKeys.Clipboard):
		return m, readClipboardCmd

	case key.Matches(msg, m.inputKeys.Reload):
		m.screen = screenLoading
		m.loading = filepath.Base(m.cfg.Path)
		m.input.Blur()
		return m, tea.Batch(m.spinner.Tick, readSourceCmd(m.ctx, m.cfg.Path, m.cfg.Source))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// loadCorpus hands a freshly read corpus to the engine. The engine refuses
// a second corpus until the current one is cleared.
func (m model) loadCorpus(msg corpusLoadedMsg) (tea.Model, tea.Cmd) {
	if err := m.engine.Load(msg.corpus); err != nil {
		if errors.Is(err, rsvp.ErrAlreadyLoaded) {
			return m, m.showStatusMessage(statusMessage{"Clear the current text (c) before loading more", true})
		}
		return m, m.showStatusMessage(statusMessage{err.Error(), true})
	}

	log.Debug("corpus loaded", "source", msg.source, "words", msg.corpus.Len())
	m.state = m.engine.State()
	m.screen = screenReader
	m.input.Blur()

	if msg.corpus.Empty() {
		return m, m.showStatusMessage(statusMessage{"Nothing to read in " + msg.source, true})
	}

	cmds := []tea.Cmd{m.showStatusMessage(statusMessage{
		fmt.Sprintf("Loaded %s words from %s", humanize.Comma(int64(msg.corpus.Len())), msg.source), false,
	})}
	if m.cfg.Autoplay {
		cmds = append(cmds, m.command("play", m.engine.Play))
		m.state = m.engine.State()
	}
	return m, tea.Batch(cmds...)
}

// command runs an engine command and turns a failure into a status
// message. Engine commands are quick and are run in order, so they are
// issued right here rather than as asynchronous tea.Cmds.
func (m *model) command(action string, fn func() error) tea.Cmd {
	if err := fn(); err != nil {
		log.Debug("engine command failed", "action", action, "error", err)
		return m.showStatusMessage(statusMessage{commandErrorText(err), true})
	}
	return nil
}

func commandErrorText(err error) string {
	switch {
	case errors.Is(err, rsvp.ErrFinished):
		return "That's the end · press r to read it again"
	case errors.Is(err, rsvp.ErrNoCorpus):
		return "Nothing loaded"
	default:
		return err.Error()
	}
}

// showStatusMessage shows msg in the status bar for a few seconds.
func (m *model) showStatusMessage(msg statusMessage) tea.Cmd {
	m.statusMessage = &msg
	m.statusMessageID++
	id := m.statusMessageID
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(id)
	})
}

func (m *model) quit() tea.Cmd {
	m.cancel()
	if m.watcher != nil {
		m.watcher.close()
	}
	return tea.Quit
}

func readSourceCmd(ctx context.Context, path string, opts corpus.Options) tea.Cmd {
	return func() tea.Msg {
		c, err := corpus.Open(ctx, path, opts)
		if err != nil {
			return errMsg{fmt.Errorf("unable to read %s: %w", filepath.Base(path), err)}
		}
		return corpusLoadedMsg{corpus: c, source: filepath.Base(path)}
	}
}

func readClipboardCmd() tea.Msg {
	text, err := clipboard.ReadAll()
	if err != nil {
		return errMsg{fmt.Errorf("unable to read clipboard: %w", err)}
	}
	return corpusLoadedMsg{corpus: corpus.FromText(text), source: "clipboard"}
}

// VIEW

func (m model) View() string {
	if m.width == 0 {
		return ""
	}
	switch m.screen {
	case screenLoading:
		return m.loadingView()
	case screenReader:
		return m.readerView()
	default:
		return m.inputView()
	}
}

func (m model) readerView() string {
	helpView := helpViewStyle(m.help.View(m.readerKeys))
	statusBar := renderStatusBar(m.state, m.statusMessage, m.width)
	progressBar := "  " + m.progress.ViewAs(m.state.Progress())

	var word string
	switch {
	case m.state.Frame.Empty():
		word = lipgloss.PlaceHorizontal(m.width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(dimFg).Render("nothing to read"))
	default:
		dim := !m.state.Playing()
		word = renderWord(m.state.Frame.Split, m.width, newWordStyles(m.pivotColor, dim))
	}

	body := strings.Join([]string{
		renderMarker(m.width, "╷"),
		word,
		renderMarker(m.width, "╵"),
	}, "\n")

	bodyHeight := m.height - lipgloss.Height(statusBar) - lipgloss.Height(progressBar) - lipgloss.Height(helpView) - 1
	body = lipgloss.Place(m.width, max(3, bodyHeight), lipgloss.Left, lipgloss.Center, body)

	return strings.Join([]string{body, progressBar, statusBar, helpView}, "\n")
}

func (m model) inputView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("glimpse"))
	b.WriteString(statusBarNoteStyle(" paste text to speed read "))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.statusMessage != nil {
		style := statusBarMessageStyle
		if m.statusMessage.isError {
			style = statusBarErrorStyle
		}
		b.WriteString(style(" " + m.statusMessage.text + " "))
	}
	b.WriteString("\n")
	b.WriteString(helpViewStyle(m.help.View(m.inputKeys)))
	return b.String()
}

func (m model) loadingView() string {
	text := m.spinner.View() + " Reading " + m.loading + ellipsis
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, text)
}
