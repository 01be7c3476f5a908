package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/story-turns/pkg/narrative"
	"github.com/jwebster45206/story-turns/pkg/scene"
	"github.com/muesli/reflow/wordwrap"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config        *ConsoleConfig
	ctrl          *narrative.Controller
	title         string
	view          narrative.ViewState
	transcript    []string
	storyViewport viewport.Model
	statsViewport viewport.Model
	selected      int
	ready         bool
	width         int
	height        int
	status        string
	err           error

	// Quit confirmation state
	showQuitModal bool
}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	statsPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	pastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // grey

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

// NewConsoleUI starts the story so the first frame has something to show.
func NewConsoleUI(cfg *ConsoleConfig, ctrl *narrative.Controller, title string) (ConsoleUI, error) {
	view, err := ctrl.Start(cfg.Knot)
	if err != nil {
		return ConsoleUI{}, err
	}

	if title == "" {
		title = "STORY"
	}

	m := ConsoleUI{
		config:        cfg,
		ctrl:          ctrl,
		title:         strings.ToUpper(title),
		storyViewport: viewport.New(50, 20),
		statsViewport: viewport.New(20, 20),
	}
	m.storyViewport.MouseWheelEnabled = true
	m.apply(view)
	return m, nil
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

// apply records a new turn. Repeated text is not appended twice.
func (m *ConsoleUI) apply(view narrative.ViewState) {
	if view.DisplayText != "" && view.DisplayText != m.view.DisplayText {
		m.transcript = append(m.transcript, view.DisplayText)
	}
	m.view = view
	m.selected = firstEnabled(scene.Buttons(view))
	m.err = nil
}

func firstEnabled(buttons []scene.Button) int {
	for i, b := range buttons {
		if b.Enabled {
			return i
		}
	}
	return 0
}

// press runs the action behind a button.
func (m *ConsoleUI) press(b scene.Button) {
	if !b.Enabled {
		m.status = "You are too exhausted for that."
		return
	}

	var (
		view narrative.ViewState
		err  error
	)
	switch b.Action {
	case scene.ActionChoose:
		view, err = m.ctrl.Choose(b.Index)
	case scene.ActionContinue:
		view, err = m.ctrl.Advance()
	case scene.ActionRestart:
		m.restart()
		return
	}
	if err != nil {
		m.err = err
		return
	}
	m.status = ""
	m.apply(view)
}

func (m *ConsoleUI) restart() {
	view, err := m.ctrl.Restart(m.config.Knot)
	if err != nil {
		m.err = err
		return
	}
	m.transcript = nil
	m.view = narrative.ViewState{}
	m.status = "Story restarted."
	m.apply(view)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var vpCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.storyViewport, vpCmd = m.storyViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		storyWidth := int(float64(m.width)*0.75) - 4
		statsWidth := m.width - storyWidth - 6

		m.storyViewport.Width = storyWidth - 2
		m.storyViewport.Height = m.height - 4
		m.statsViewport.Width = statsWidth - 2
		m.statsViewport.Height = m.height - 4
		m.ready = true

	case tea.KeyMsg:
		buttons := scene.Buttons(m.view)

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selected > 0 {
				m.selected--
			}
		case tea.KeyDown:
			if m.selected < len(buttons)-1 {
				m.selected++
			}
		case tea.KeyEnter:
			if m.selected < len(buttons) {
				m.press(buttons[m.selected])
			}
		case tea.KeySpace:
			if m.view.CanContinue && len(m.view.Choices) == 0 {
				m.press(buttons[0])
			}
		case tea.KeyRunes:
			m.handleRune(string(msg.Runes), buttons)
		}

	default:
		return m, nil
	}

	m.refresh()
	return m, nil
}

func (m *ConsoleUI) handleRune(key string, buttons []scene.Button) {
	switch key {
	case "r", "R":
		m.restart()
	case "y", "Y":
		if err := clipboard.WriteAll(m.view.DisplayText); err != nil {
			m.err = fmt.Errorf("copy failed: %w", err)
			return
		}
		m.status = "Copied passage to clipboard."
	case "q", "Q":
		m.showQuitModal = true
	default:
		// Number keys pick choices, 1-based.
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(buttons) && buttons[i].Action == scene.ActionChoose {
				m.selected = i
				m.press(buttons[i])
			}
		}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.showQuitModal = false
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		return m, tea.Quit
	case "n", "N":
		m.showQuitModal = false
	}
	return m, nil
}

// refresh rewrites both viewports from the current state.
func (m *ConsoleUI) refresh() {
	if !m.ready {
		return
	}
	m.storyViewport.SetContent(m.renderStory(m.storyViewport.Width - 4))
	m.storyViewport.GotoBottom()
	m.statsViewport.SetContent(renderStats(m.view))
}

func (m ConsoleUI) renderStory(width int) string {
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(m.title) + "\n\n")

	for i, passage := range m.transcript {
		text := wordwrap.String(passage, width)
		if i == len(m.transcript)-1 {
			content.WriteString(narratorStyle.Render(text))
		} else {
			content.WriteString(pastStyle.Render(text))
		}
		content.WriteString("\n\n")
	}

	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
	content.WriteString(renderButtons(scene.Buttons(m.view), m.selected, width))

	if m.err != nil {
		content.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		content.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}

	content.WriteString("\n" + promptStyle.Render(helpLine(m.view)))
	return content.String()
}

func renderButtons(buttons []scene.Button, selected, width int) string {
	var out strings.Builder
	for i, b := range buttons {
		label := b.Label
		if b.Action == scene.ActionChoose {
			label = fmt.Sprintf("%d. %s", i+1, label)
		}
		label = wordwrap.String(label, width-2)

		switch {
		case !b.Enabled:
			out.WriteString("  " + disabledStyle.Render(label))
		case i == selected:
			out.WriteString(selectedChoiceStyle.Render("▶ " + label))
		default:
			out.WriteString("  " + choiceStyle.Render(label))
		}
		out.WriteString("\n")
	}
	return out.String()
}

func helpLine(v narrative.ViewState) string {
	switch {
	case v.Ended:
		return "The story has ended. Enter or R to restart, Y to copy, Esc to quit"
	case len(v.Choices) > 0:
		return "1-9 or ↑/↓ + Enter to choose, R to restart, Y to copy, Esc to quit"
	default:
		return "Enter or Space to continue, R to restart, Y to copy, Esc to quit"
	}
}

func renderStats(v narrative.ViewState) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("STATS") + "\n\n")
	content.WriteString("Location:\n")
	content.WriteString(scene.LocationName(v.Location) + "\n\n")
	for _, line := range scene.StatsLines(v) {
		content.WriteString(line + "\n")
	}
	content.WriteString(fmt.Sprintf("\nTurn %d\n", v.Turn))
	return content.String()
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Story?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the story?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	// Create the modal
	modal := modalStyle.Width(50).Render(content.String())

	// Center the modal
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	storyWidth := int(float64(m.width)*0.75) - 4
	statsWidth := m.width - storyWidth - 6

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(
		m.storyViewport.View(),
	)

	statsPanel := statsPanelStyle.Width(statsWidth).Height(m.height - 2).Render(
		m.statsViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, statsPanel)
}
