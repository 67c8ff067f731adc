package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/widget"
)

// View renders the board.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	width := max(m.width-4, 20)

	sections := []string{
		titleStyle.Render("playback · " + m.script.Name()),
		m.renderConversation(width),
	}
	if v := m.renderVisuals(); v != "" {
		sections = append(sections, v)
	}
	sections = append(sections, m.renderFields(), m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderConversation(width int) string {
	var lines []string
	if n := m.board.Node(m.layout.Messages); n != nil {
		for _, a := range currentHistory(n.History) {
			lines = append(lines, renderMessage(a, width))
		}
	}
	if n := m.board.Node(m.layout.Typing); n != nil && n.State == widget.StateTyping {
		lines = append(lines, dimStyle.Render("…"))
	}

	switch m.awaiting() {
	case script.KindAwaitChoice:
		for i, c := range m.choices() {
			label := fmt.Sprintf("%d. %s", i+1, c)
			if i == m.cursor {
				lines = append(lines, selectedStyle.Render("› "+label))
			} else {
				lines = append(lines, "  "+label)
			}
		}
	case script.KindAwaitText:
		lines = append(lines, m.input.View())
	}
	if len(lines) == 0 {
		lines = append(lines, dimStyle.Render("starting…"))
	}
	return panelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// currentHistory returns the messages applied since the last clear.
func currentHistory(h []widget.Applied) []widget.Applied {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].State == widget.StateClear {
			return h[i+1:]
		}
	}
	return h
}

func renderMessage(a widget.Applied, width int) string {
	wrap := lipgloss.NewStyle().Width(width - 4)
	switch a.State {
	case widget.StateUser:
		return userStyle.Render("› " + a.Value)
	case widget.StateProcess:
		return processStyle.Render("⚙ " + a.Value)
	case widget.StateFinal:
		return finalStyle.Inherit(wrap).Render("✓ " + a.Value)
	default:
		return assistantStyle.Inherit(wrap).Render(a.Value)
	}
}

// renderVisuals lists sub-sequence elements: everything on the board the
// layout and the fields do not own.
func (m *Model) renderVisuals() string {
	owned := []string{
		m.layout.Root, m.layout.Messages, m.layout.Typing, m.layout.Choices,
		m.layout.Input, m.layout.Confidence, m.layout.Badge,
	}
	for _, f := range m.script.Fields() {
		owned = append(owned, m.layout.FieldElement(f))
	}

	var lines []string
	for _, id := range m.board.IDs() {
		if slices.Contains(owned, id) {
			continue
		}
		n := m.board.Node(id)
		line := fmt.Sprintf("%-22s %-10s", id, n.State)
		if n.Value != "" {
			line += " " + n.Value
		}
		lines = append(lines, dimStyle.Render(strings.TrimRight(line, " ")))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFields() string {
	var lines []string
	for _, f := range m.script.Fields() {
		value := dimStyle.Render("—")
		if n := m.board.Node(m.layout.FieldElement(f)); n != nil && n.State == widget.StateFilled {
			value = n.Value
		}
		lines = append(lines, fmt.Sprintf("%s: %s", f, value))
	}

	pct := 0
	if n := m.board.Node(m.layout.Confidence); n != nil {
		pct, _ = strconv.Atoi(n.Value)
	}
	lines = append(lines, fmt.Sprintf("%s %3d%%", m.bar.ViewAs(float64(pct)/100), pct))

	if n := m.board.Node(m.layout.Badge); n != nil && n.State == widget.StateVisible {
		lines = append(lines, badgeStyle.Render(n.Value))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	switch m.awaiting() {
	case script.KindAwaitChoice:
		return helpStyle.Render("↑/↓ select · enter choose · 1-9 quick pick · ctrl+r restart · esc quit")
	case script.KindAwaitText:
		return helpStyle.Render("enter submit · ctrl+r restart · esc quit")
	}
	return helpStyle.Render("ctrl+r restart · q quit")
}
