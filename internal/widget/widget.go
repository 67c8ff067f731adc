// Package widget adapts a Sequencer to an addressable UI surface.
//
// Mount wires one script to one Surface: every outbound engine call becomes
// a state change on a named element. The adapter also echoes accepted user
// answers into the message list and shows a completion badge on the
// terminal step. Widgets share nothing; mount one per surface.
//
// A surface without the layout's root element, or a missing scheduler,
// leaves the widget unmounted: Mount reports false and wires nothing.
// Individual elements that are absent are skipped.
package widget

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/playback/internal/clock"
	"github.com/roach88/playback/internal/engine"
	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/subseq"
)

// Element states set by the adapter.
const (
	StateMessage = "message"
	StateUser    = "user"
	StateProcess = "process"
	StateFinal   = "final"
	StateClear   = "clear"
	StateTyping  = "typing"
	StateIdle    = "idle"
	StateChoices = "choices"
	StatePrompt  = "prompt"
	StateHidden  = "hidden"
	StateFilled  = "filled"
	StateEmpty   = "empty"
	StateValue   = "value"
	StateVisible = "visible"
)

// ChoiceSeparator joins choice labels into one element value.
const ChoiceSeparator = "|"

// Option configures a Widget.
type Option func(*config)

type config struct {
	layout Layout
	engine []engine.Option
	logger *slog.Logger
}

// WithLayout replaces DefaultLayout.
func WithLayout(l Layout) Option {
	return func(c *config) { c.layout = l }
}

// WithEngineOptions passes options through to engine.New.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *config) { c.engine = append(c.engine, opts...) }
}

// WithLogger sets the logger for the widget and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Widget is a mounted script.
type Widget struct {
	seq     *engine.Sequencer
	surface Surface
	layout  Layout
	fields  []string
	logger  *slog.Logger
}

// Mount wires s to surface. It returns (nil, false) when the surface, its
// root element, the scheduler or the script is missing.
func Mount(surface Surface, sched clock.Scheduler, s *script.Script, opts ...Option) (*Widget, bool) {
	cfg := config{layout: DefaultLayout(), logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if surface == nil || sched == nil || s == nil {
		return nil, false
	}
	if _, ok := surface.Element(cfg.layout.Root); !ok {
		cfg.logger.Debug("widget not mounted", "reason", "root element missing", "root", cfg.layout.Root)
		return nil, false
	}

	w := &Widget{
		surface: surface,
		layout:  cfg.layout,
		fields:  s.Fields(),
		logger:  cfg.logger.With("widget", cfg.layout.Root),
	}
	engineOpts := append([]engine.Option{engine.WithLogger(cfg.logger)}, cfg.engine...)
	seq, err := engine.New(s, (*host)(w), sched, engineOpts...)
	if err != nil {
		cfg.logger.Debug("widget not mounted", "error", err)
		return nil, false
	}
	w.seq = seq
	return w, true
}

// Sequencer returns the engine behind the widget.
func (w *Widget) Sequencer() *engine.Sequencer { return w.seq }

// Start begins the script.
func (w *Widget) Start() bool { return w.seq.Start() }

// Choose submits a choice label and echoes it when accepted.
func (w *Widget) Choose(label string) bool {
	if !w.seq.SubmitChoice(label) {
		return false
	}
	w.apply(w.layout.Choices, StateClear, "")
	w.apply(w.layout.Messages, StateUser, label)
	return true
}

// Answer submits free text and echoes it when accepted.
func (w *Widget) Answer(text string) bool {
	if !w.seq.SubmitText(text) {
		return false
	}
	w.apply(w.layout.Input, StateHidden, "")
	w.apply(w.layout.Messages, StateUser, strings.TrimSpace(text))
	return true
}

// Reset restarts the script from a clean surface.
func (w *Widget) Reset() { w.seq.Reset() }

// Dispose stops the widget.
func (w *Widget) Dispose() { w.seq.Dispose() }

func (w *Widget) apply(id, state, value string) {
	if id == "" {
		return
	}
	el, ok := w.surface.Element(id)
	if !ok {
		w.logger.Debug("element skipped", "element", id, "state", state)
		return
	}
	el.Apply(state, value)
}

// host is the engine.Host view of a Widget.
type host Widget

func (h *host) w() *Widget { return (*Widget)(h) }

func (h *host) OnPresent(st script.Step) {
	switch st := st.(type) {
	case script.AsyncProcess:
		h.w().apply(h.layout.Messages, StateProcess, st.Title)
	default:
		h.w().apply(h.layout.Messages, StateMessage, script.Text(st))
	}
}

func (h *host) OnTyping(active bool) {
	if active {
		h.w().apply(h.layout.Typing, StateTyping, "")
		return
	}
	h.w().apply(h.layout.Typing, StateIdle, "")
}

func (h *host) OnAwaitChoice(choices []string) {
	h.w().apply(h.layout.Choices, StateChoices, strings.Join(choices, ChoiceSeparator))
}

func (h *host) OnAwaitText(placeholder string) {
	h.w().apply(h.layout.Input, StatePrompt, placeholder)
}

func (h *host) OnFieldUpdated(id, value string) {
	h.w().apply(h.layout.FieldElement(id), StateFilled, value)
}

func (h *host) OnConfidenceChanged(pct int) {
	h.w().apply(h.layout.Confidence, StateValue, strconv.Itoa(pct))
}

func (h *host) OnTerminal(text string) {
	h.w().apply(h.layout.Messages, StateFinal, text)
	h.w().apply(h.layout.Badge, StateVisible, h.layout.BadgeText)
}

func (h *host) OnVisual(c subseq.Change) {
	h.w().apply(c.Element, c.State, c.Value)
}

func (h *host) OnReset() {
	w := h.w()
	w.apply(w.layout.Messages, StateClear, "")
	w.apply(w.layout.Typing, StateIdle, "")
	w.apply(w.layout.Choices, StateClear, "")
	w.apply(w.layout.Input, StateHidden, "")
	w.apply(w.layout.Badge, StateHidden, "")
	for _, f := range w.fields {
		w.apply(w.layout.FieldElement(f), StateEmpty, "")
	}
}
