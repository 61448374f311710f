package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIRenderer provides rich terminal rebuild progress using bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *rebuildModel
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer.
// Returns an error if the output is not a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	model := newRebuildModel()
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:   cfg,
		model: model,
		done:  make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.send(progressUpdateMsg(event))
}

// Fail implements Renderer.
func (r *TUIRenderer) Fail(err error) {
	r.send(failedMsg{err: err})
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.send(completeMsg(stats))
}

func (r *TUIRenderer) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()

	if p == nil {
		return nil
	}
	p.Quit()

	// An unresponsive terminal must not hang Ctrl+C.
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
	}
	return nil
}

// Message types for bubbletea
type progressUpdateMsg ProgressEvent
type completeMsg CompletionStats
type failedMsg struct{ err error }

// rebuildModel is the bubbletea model for rebuild progress.
type rebuildModel struct {
	stage    Stage
	count    int
	limit    int
	message  string
	start    time.Time
	width    int
	quitting bool
	complete bool
	err      error
	stats    CompletionStats

	spinner     spinner.Model
	progressBar progress.Model
	styles      Styles
}

func newRebuildModel() *rebuildModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	p := progress.New(
		progress.WithSolidFill(ColorAccent),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &rebuildModel{
		spinner:     s,
		progressBar: p,
		styles:      DefaultStyles(),
		width:       80,
		start:       time.Now(),
	}
}

// Init implements tea.Model.
func (m *rebuildModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *rebuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(msg.Width-30, 20)

	case progressUpdateMsg:
		if msg.Stage != m.stage {
			m.count = 0
		}
		m.stage = msg.Stage
		m.count = max(m.count, msg.Count)
		m.limit = msg.Limit
		m.message = msg.Message

	case failedMsg:
		m.err = msg.err
		return m, tea.Quit

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *rebuildModel) View() string {
	switch {
	case m.quitting:
		return "Cancelled.\n"
	case m.err != nil:
		return m.styles.Error.Render("✗ Rebuild failed: "+m.err.Error()) + "\n"
	case m.complete:
		return m.renderComplete()
	}

	lines := []string{
		m.renderStages(),
		"",
		m.renderProgress(),
	}
	if m.message != "" {
		lines = append(lines, m.styles.Label.Render(m.message))
	}
	lines = append(lines, m.styles.Dim.Render("q to quit"))
	return strings.Join(lines, "\n") + "\n"
}

// renderStages renders the rebuild stage indicators.
func (m *rebuildModel) renderStages() string {
	stages := []Stage{StageWalking, StageEnumerating, StageSwapping}

	parts := make([]string, 0, len(stages))
	for _, s := range stages {
		var icon string
		var style lipgloss.Style
		switch {
		case s < m.stage:
			icon = "●"
			style = m.styles.Success
		case s == m.stage:
			icon = m.spinner.View()
			style = m.styles.Active
		default:
			icon = "○"
			style = m.styles.Dim
		}
		parts = append(parts, style.Render(icon+" "+s.String()))
	}
	return strings.Join(parts, m.styles.Dim.Render(" → "))
}

func (m *rebuildModel) renderProgress() string {
	elapsed := formatDuration(time.Since(m.start))
	if m.stage == StageWalking && m.limit > 0 {
		pct := float64(m.count) / float64(m.limit)
		return fmt.Sprintf("%s %s %s",
			m.progressBar.ViewAs(min(pct, 1)),
			m.styles.Progress.Render(fmt.Sprintf("%d/%d", m.count, m.limit)),
			m.styles.Label.Render(elapsed))
	}
	return fmt.Sprintf("%s %s",
		m.styles.Progress.Render(fmt.Sprintf("%d entries", m.count)),
		m.styles.Label.Render(elapsed))
}

// renderComplete renders the completion summary.
func (m *rebuildModel) renderComplete() string {
	lines := []string{
		m.styles.Success.Render("✓ Index rebuilt"),
		"",
		fmt.Sprintf("%s %s", m.styles.Label.Render("Files:       "), m.styles.Active.Render(fmt.Sprintf("%d", m.stats.Files))),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Folders:     "), m.styles.Active.Render(fmt.Sprintf("%d", m.stats.Folders))),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Applications:"), m.styles.Active.Render(fmt.Sprintf("%d", m.stats.Applications))),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Duration:    "), m.styles.Active.Render(formatDuration(m.stats.Duration))),
	}
	if m.stats.Truncated {
		lines = append(lines, "", m.styles.Warning.Render("⚠ Walk stopped at max_index_files"))
	}
	return m.styles.Panel.Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", h, m)
}

// Ensure TUIRenderer implements Renderer
var _ Renderer = (*TUIRenderer)(nil)
