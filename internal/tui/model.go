// Package tui plays a script interactively in the terminal.
//
// The Model mounts a widget on an in-memory widget.Board and renders the
// board on every frame. Engine timers run through Scheduler, so every
// callback executes on the bubbletea update goroutine.
package tui

import (
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/playback/internal/engine"
	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/widget"
)

// ErrNotMounted is returned when the widget could not be wired.
var ErrNotMounted = errors.New("widget not mounted")

// Display constants
const (
	defaultWidth  = 80
	barWidth      = 40
	maxInputChars = 200
)

// Option configures a Model.
type Option func(*options)

type options struct {
	timing engine.Timing
	logger *slog.Logger
	now    func() time.Time
}

// WithTiming replaces engine.DefaultTiming.
func WithTiming(t engine.Timing) Option {
	return func(o *options) { o.timing = t }
}

// WithLogger sets the logger for the widget and engine.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Model is the bubbletea model for one playback session.
type Model struct {
	script *script.Script
	layout widget.Layout
	board  *widget.Board
	widget *widget.Widget
	sched  *Scheduler

	input  textinput.Model
	bar    progress.Model
	cursor int
	width  int

	quitting bool
}

// New mounts s on a fresh board. The run starts in Init.
func New(s *script.Script, opts ...Option) (*Model, error) {
	o := options{timing: engine.DefaultTiming(), logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if s == nil {
		return nil, engine.ErrNilScript
	}

	layout := widget.DefaultLayout()
	board := layout.NewBoard(s.Fields())
	board.Grow = true
	sched := NewScheduler(o.now)

	w, ok := widget.Mount(board, sched, s,
		widget.WithLogger(o.logger),
		widget.WithEngineOptions(engine.WithTiming(o.timing)),
	)
	if !ok {
		return nil, ErrNotMounted
	}

	ti := textinput.New()
	ti.CharLimit = maxInputChars
	ti.PromptStyle = userStyle

	return &Model{
		script: s,
		layout: layout,
		board:  board,
		widget: w,
		sched:  sched,
		input:  ti,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		width:  defaultWidth,
	}, nil
}

// Board returns the surface the model renders.
func (m *Model) Board() *widget.Board { return m.board }

// State returns the engine state.
func (m *Model) State() engine.State { return m.widget.Sequencer().State() }

// Init starts the run.
func (m *Model) Init() tea.Cmd {
	m.widget.Start()
	m.syncInput()
	return tea.Batch(textinput.Blink, m.sched.Cmd())
}

// Update processes bubbletea messages. Due engine timers fire first, so
// a key press always sees the state the clock has reached.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.sched.Sync()

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(barWidth, max(msg.Width-20, 10))
	case wakeMsg:
	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		cmds = append(cmds, cmd)
	default:
		if m.awaiting() == script.KindAwaitText {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.syncInput()
	cmds = append(cmds, m.sched.Cmd())
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m.quit()
	case "ctrl+r":
		m.widget.Reset()
		m.cursor = 0
		m.input.Reset()
		return nil
	}

	switch m.awaiting() {
	case script.KindAwaitChoice:
		return m.handleChoiceKey(msg)
	case script.KindAwaitText:
		if msg.Type == tea.KeyEnter {
			if m.widget.Answer(m.input.Value()) {
				m.input.Reset()
			}
			return nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}

	if msg.String() == "q" {
		return m.quit()
	}
	return nil
}

func (m *Model) handleChoiceKey(msg tea.KeyMsg) tea.Cmd {
	choices := m.choices()
	switch key := msg.String(); key {
	case "q":
		return m.quit()
	case "up", "left", "k", "shift+tab":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "right", "j", "tab":
		if m.cursor < len(choices)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.cursor < len(choices) && m.widget.Choose(choices[m.cursor]) {
			m.cursor = 0
		}
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(choices) && m.widget.Choose(choices[i]) {
				m.cursor = 0
			}
		}
	}
	return nil
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.widget.Dispose()
	return tea.Quit
}

// awaiting returns the kind of checkpoint waiting for input, or 0.
func (m *Model) awaiting() script.Kind {
	st := m.State()
	if st.Phase != engine.PhaseAwaitingInput || st.Advancing {
		return 0
	}
	return m.script.At(st.Index).Kind()
}

// choices returns the labels currently offered.
func (m *Model) choices() []string {
	if m.awaiting() != script.KindAwaitChoice {
		return nil
	}
	return m.script.At(m.State().Index).(script.AwaitChoice).Choices
}

// syncInput focuses the text box only while a text checkpoint waits.
func (m *Model) syncInput() {
	if m.awaiting() != script.KindAwaitText {
		m.input.Blur()
		return
	}
	if n := m.board.Node(m.layout.Input); n != nil {
		m.input.Placeholder = n.Value
	}
	m.input.Focus()
}

// Play runs s in the terminal until the user quits.
func Play(s *script.Script, opts ...Option) error {
	m, err := New(s, opts...)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
