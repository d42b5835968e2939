package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/wayword-go/internal/embedding"
)

// warmTimeout bounds one language's preparation; first-time model pulls
// are slow but not unbounded.
const warmTimeout = 10 * time.Minute

// Theme holds the color scheme for the progress display.
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

// languageWarmedMsg reports one finished language preparation.
type languageWarmedMsg struct {
	language string
	mode     embedding.Mode
}

// warmModel is the bubbletea model for the warm-up run. Languages are
// prepared one at a time; each result updates the bar and the mode table.
type warmModel struct {
	provider  *embedding.Provider
	languages []string
	modes     map[string]embedding.Mode
	next      int
	progress  progress.Model
	theme     Theme
	done      bool
	quitting  bool
}

// newWarmModel creates the warm-up model.
func newWarmModel(p *embedding.Provider, languages []string) warmModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return warmModel{
		provider:  p,
		languages: languages,
		modes:     make(map[string]embedding.Mode, len(languages)),
		progress:  prog,
		theme:     defaultTheme,
	}
}

// Init starts preparing the first language.
func (m warmModel) Init() tea.Cmd {
	return tea.Batch(
		m.warmNext(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m warmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case languageWarmedMsg:
		m.modes[msg.language] = msg.mode
		m.next++
		if m.next >= len(m.languages) {
			m.done = true
			return m, tea.Quit
		}
		return m, m.warmNext()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m warmModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m warmModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}

	pct := float64(m.next) / float64(len(m.languages))
	current := ""
	if m.next < len(m.languages) {
		current = m.languages[m.next]
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[warming %s]", current))
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d languages", m.next, len(m.languages))
	hint := m.theme.hintStyle().Render("First-time model pulls can take a while. Press Ctrl+C to abort.")

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

// finalView renders the per-language mode table.
func (m warmModel) finalView() string {
	if m.quitting {
		return m.theme.hintStyle().Render("\nWarm-up aborted. Prepared languages stay ready.\n")
	}

	output := m.theme.completedStyle().Render("✓ Warm-up finished") + "\n\n"
	for _, lang := range m.languages {
		mode := m.modes[lang]
		line := fmt.Sprintf("  %-12s %s\n", lang, mode)
		if mode == embedding.ModeUnavailable {
			line = m.theme.errorStyle().Render(line)
		}
		output += line
	}
	return output
}

// warmNext prepares the next language off the Update loop.
func (m warmModel) warmNext() tea.Cmd {
	lang := m.languages[m.next]
	provider := m.provider
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
		defer cancel()

		mode := provider.PrepareLanguage(ctx, lang)
		return languageWarmedMsg{language: lang, mode: mode}
	}
}

// RunWarmProgress runs the interactive warm-up UI.
func RunWarmProgress(p *embedding.Provider, languages []string) (map[string]embedding.Mode, error) {
	model := newWarmModel(p, languages)
	prog := tea.NewProgram(model)

	finalModel, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(warmModel); ok {
		return m.modes, nil
	}
	return nil, nil
}
