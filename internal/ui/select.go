// Package ui implements the interactive single-select prompt used at the
// cluster, service and task stages.
package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrAborted is returned when the operator cancels the prompt.
var ErrAborted = errors.New("selection aborted")

// Selector presents a labeled list and returns the chosen index.
type Selector interface {
	Select(prompt string, labels []string) (int, error)
}

// ListSelector is the terminal implementation of Selector.
type ListSelector struct{}

// Select runs the prompt and returns an index into labels.
func (ListSelector) Select(prompt string, labels []string) (int, error) {
	if len(labels) == 0 {
		return 0, fmt.Errorf("nothing to select")
	}

	m := newSelectModel(prompt, labels)
	out, err := tea.NewProgram(m).Run()
	if err != nil {
		return 0, fmt.Errorf("failed to run selection prompt: %w", err)
	}

	final, ok := out.(selectModel)
	if !ok || !final.chosen {
		return 0, ErrAborted
	}
	return final.filtered[final.cursor], nil
}

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00D9FF")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#282A36")).
			Background(lipgloss.Color("#00D9FF")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))
)

type selectModel struct {
	prompt string
	labels []string

	filtered    []int // indices into labels matching the current filter
	cursor      int   // position within filtered
	offset      int   // first visible row
	height      int   // visible rows
	width       int
	filterInput textinput.Model
	filtering   bool
	chosen      bool
}

func newSelectModel(prompt string, labels []string) selectModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.CharLimit = 120

	filtered := make([]int, len(labels))
	for i := range labels {
		filtered[i] = i
	}

	return selectModel{
		prompt:      prompt,
		labels:      labels,
		filtered:    filtered,
		height:      10,
		width:       80,
		filterInput: ti,
	}
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height - 3 // prompt, filter line, footer
		if m.height < 1 {
			m.height = 1
		}
		m.ensureVisible()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			if m.filtering {
				m.filtering = false
				m.filterInput.Blur()
				if len(m.filtered) == 0 {
					return m, nil
				}
			}
			if len(m.filtered) > 0 {
				m.chosen = true
				return m, tea.Quit
			}
			return m, nil
		case "esc":
			if m.filtering || m.filterInput.Value() != "" {
				m.filtering = false
				m.filterInput.Blur()
				m.filterInput.SetValue("")
				m.applyFilter()
				return m, nil
			}
			return m, tea.Quit
		}

		if m.filtering {
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			m.applyFilter()
			return m, cmd
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			m.ensureVisible()
		case "down", "j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			m.ensureVisible()
		case "g", "home":
			m.cursor = 0
			m.ensureVisible()
		case "G", "end":
			m.cursor = len(m.filtered) - 1
			m.ensureVisible()
		case "/":
			m.filtering = true
			m.filterInput.Focus()
		}
	}

	return m, nil
}

func (m selectModel) View() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render(m.prompt) + "\n")

	if m.filtering || m.filterInput.Value() != "" {
		b.WriteString(m.filterInput.View() + "\n")
	}

	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		label := Truncate(m.labels[m.filtered[i]], m.width-4)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+label) + "\n")
		} else {
			b.WriteString("  " + label + "\n")
		}
	}

	if len(m.filtered) == 0 {
		b.WriteString(dimStyle.Render("  no matches") + "\n")
	}

	b.WriteString(dimStyle.Render("enter select · / filter · q quit"))
	return b.String()
}

// applyFilter recomputes the visible subset from the filter input.
func (m *selectModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))
	m.filtered = m.filtered[:0]
	for i, label := range m.labels {
		if query == "" || strings.Contains(strings.ToLower(label), query) {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.offset = 0
	m.ensureVisible()
}

// ensureVisible adjusts the offset to keep the cursor on screen.
func (m *selectModel) ensureVisible() {
	if len(m.filtered) == 0 || m.height <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	maxOffset := len(m.filtered) - m.height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// visibleRange returns the start and end indices of the rows on screen.
func (m selectModel) visibleRange() (int, int) {
	if len(m.filtered) == 0 || m.height <= 0 {
		return 0, 0
	}
	start := m.offset
	end := m.offset + m.height
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	return start, end
}

// Truncate shortens a string to the given width with ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
