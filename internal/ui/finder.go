package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/osai-labs/osai/internal/model"
)

// SearchFunc answers one picker query.
type SearchFunc func(ctx context.Context, query string) ([]model.SearchResult, error)

// ErrNoSelection is returned by RunFinder when the picker was dismissed.
var ErrNoSelection = errors.New("no selection")

// FinderOptions configures RunFinder.
type FinderOptions struct {
	Input        io.Reader
	Output       io.Writer
	InitialQuery string
	NoColor      bool
	// MaxVisible bounds the rendered result rows.
	MaxVisible int
}

// RunFinder shows the interactive picker and returns the chosen entry.
func RunFinder(ctx context.Context, search SearchFunc, opts FinderOptions) (model.SearchResult, error) {
	m := NewFinderModel(ctx, search, opts.InitialQuery)
	if opts.NoColor || DetectNoColor() {
		m.styles = NoColorStyles()
	}
	if opts.MaxVisible > 0 {
		m.maxVisible = opts.MaxVisible
	}

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	final, err := tea.NewProgram(m, progOpts...).Run()
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("picker failed: %w", err)
	}
	fm, ok := final.(*FinderModel)
	if !ok {
		return model.SearchResult{}, ErrNoSelection
	}
	chosen, ok := fm.Chosen()
	if !ok {
		return model.SearchResult{}, ErrNoSelection
	}
	return chosen, nil
}

// searchResultMsg carries the answer to query number seq.
type searchResultMsg struct {
	seq     int
	results []model.SearchResult
	err     error
}

// FinderModel is the bubbletea model of the launcher picker.
type FinderModel struct {
	ctx    context.Context
	search SearchFunc
	input  textinput.Model
	styles Styles

	seq        int
	results    []model.SearchResult
	err        error
	cursor     int
	maxVisible int
	chosen     *model.SearchResult
	quitting   bool
}

// NewFinderModel creates a picker model that queries search as the user types.
func NewFinderModel(ctx context.Context, search SearchFunc, initial string) *FinderModel {
	ti := textinput.New()
	ti.Placeholder = "Search files, folders and apps"
	ti.Prompt = "› "
	ti.CharLimit = 256
	ti.SetValue(initial)
	ti.Focus()

	return &FinderModel{
		ctx:        ctx,
		search:     search,
		input:      ti,
		styles:     DefaultStyles(),
		maxVisible: 10,
	}
}

// Init implements tea.Model.
func (m *FinderModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.query())
}

// query issues a search for the current input. Answers to older queries
// are dropped when they arrive.
func (m *FinderModel) query() tea.Cmd {
	m.seq++
	seq := m.seq
	q := m.input.Value()
	if strings.TrimSpace(q) == "" {
		return func() tea.Msg { return searchResultMsg{seq: seq} }
	}
	return func() tea.Msg {
		results, err := m.search(m.ctx, q)
		return searchResultMsg{seq: seq, results: results, err: err}
	}
}

// Update implements tea.Model.
func (m *FinderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.cursor < len(m.results) {
				chosen := m.results[m.cursor]
				m.chosen = &chosen
			}
			m.quitting = true
			return m, tea.Quit
		case tea.KeyUp, tea.KeyCtrlP:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case tea.KeyDown, tea.KeyCtrlN, tea.KeyTab:
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != before {
			return m, tea.Batch(cmd, m.query())
		}
		return m, cmd

	case searchResultMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.results = msg.results
		m.err = msg.err
		m.cursor = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *FinderModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")

	switch {
	case m.err != nil:
		sb.WriteString(m.styles.Error.Render(m.err.Error()))
		sb.WriteString("\n")
	case strings.TrimSpace(m.input.Value()) == "":
	case len(m.results) == 0:
		sb.WriteString(m.styles.Dim.Render("no matches"))
		sb.WriteString("\n")
	default:
		start, end := m.window()
		for i := start; i < end; i++ {
			sb.WriteString(m.renderRow(m.results[i], i == m.cursor))
			sb.WriteString("\n")
		}
		if len(m.results) > end-start {
			sb.WriteString(m.styles.Dim.Render(fmt.Sprintf("%d of %d", m.cursor+1, len(m.results))))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(m.styles.Dim.Render("↑/↓ move · enter select · esc quit"))
	return sb.String()
}

// window returns the visible slice bounds, keeping the cursor on screen.
func (m *FinderModel) window() (int, int) {
	n := len(m.results)
	if n <= m.maxVisible {
		return 0, n
	}
	start := m.cursor - m.maxVisible + 1
	if start < 0 {
		start = 0
	}
	return start, start + m.maxVisible
}

func (m *FinderModel) renderRow(r model.SearchResult, selected bool) string {
	marker := "  "
	nameStyle := m.styles.Label
	if selected {
		marker = "› "
		nameStyle = m.styles.Selected
	}

	var tag string
	switch r.Type {
	case model.TypeFolder:
		tag = m.styles.Folder.Render("[dir]")
	case model.TypeApplication:
		tag = m.styles.App.Render("[app]")
	default:
		tag = m.styles.Dim.Render("[file]")
	}
	return fmt.Sprintf("%s%s %s  %s", marker, tag, nameStyle.Render(r.Name), m.styles.Path.Render(r.Path))
}

// Results returns the results currently shown.
func (m *FinderModel) Results() []model.SearchResult {
	return m.results
}

// Chosen returns the selected entry once the user pressed enter.
func (m *FinderModel) Chosen() (model.SearchResult, bool) {
	if m.chosen == nil {
		return model.SearchResult{}, false
	}
	return *m.chosen, true
}
