package cli

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/replan-rag/internal/service"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// pipelineBuilder builds a pipeline, reporting indexing progress.
type pipelineBuilder func(ctx context.Context, onBatch func(done, total int)) (*service.Pipeline, error)

// batchMsg reports one embedded batch.
type batchMsg struct {
	done, total int
}

// indexDoneMsg carries the finished pipeline.
type indexDoneMsg struct {
	pipeline *service.Pipeline
	err      error
}

// progressModel is the bubbletea model for corpus indexing.
type progressModel struct {
	done, total int
	progress    progress.Model
	theme       Theme
	pipeline    *service.Pipeline
	finished    bool
	quitting    bool
	err         error
}

func newProgressModel() progressModel {
	return progressModel{
		progress: progress.New(
			progress.WithDefaultBlend(),
			progress.WithWidth(40),
		),
		theme: defaultTheme,
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case batchMsg:
		m.done, m.total = msg.done, msg.total
		return m, nil

	case indexDoneMsg:
		m.finished = true
		m.pipeline, m.err = msg.pipeline, msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.finished || m.quitting {
		return m.finalView()
	}
	if m.total == 0 {
		return m.theme.statusStyle().Render("[loading]") + " embedding templates and rules...\n"
	}

	pct := float64(m.done) / float64(m.total)
	status := m.theme.statusStyle().Render("[indexing]")
	counts := fmt.Sprintf("%d/%d rules", m.done, m.total)
	hint := m.theme.hintStyle().Render("Press q to cancel")
	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.ViewAs(pct), counts, hint)
}

func (m progressModel) finalView() string {
	if m.quitting {
		return m.theme.hintStyle().Render("\nIndexing cancelled.\n")
	}
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Indexing failed: %s\n", m.err))
	}

	out := m.theme.completedStyle().Render("✓ Completed") + "\n\n"
	out += fmt.Sprintf("  Rules indexed: %d\n", m.pipeline.Index.Len())
	out += fmt.Sprintf("  Model:         %s\n", m.pipeline.Embedder.Model())
	if cfg.CacheDir != "" {
		out += fmt.Sprintf("  Cache:         %s\n", cfg.CacheDir)
	}
	return out
}

// RunIndexProgress builds the pipeline in the background while showing an
// interactive progress bar. Quitting cancels the build.
func RunIndexProgress(ctx context.Context, build pipelineBuilder) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel())
	go func() {
		pipeline, err := build(ctx, func(done, total int) {
			p.Send(batchMsg{done: done, total: total})
		})
		p.Send(indexDoneMsg{pipeline: pipeline, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		if m.quitting {
			return context.Canceled
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}
