package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/story-graph/pkg/narrative"
	"github.com/jwebster45206/story-graph/pkg/presenter"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const frameInterval = 100 * time.Millisecond

type frameMsg time.Time

type keyMap struct {
	Choose key.Binding
	Left   key.Binding
	Right  key.Binding
	Copy   key.Binding
	Quit   key.Binding
}

// Keys the console binds for itself. A story action on one of these would
// never reach the controller.
var reservedKeys = []string{"c", "esc", "ctrl+c", "left", "right"}

// reservedActions returns the actions that collide with console keys.
func reservedActions(actions []string) []string {
	var clash []string
	for _, a := range actions {
		if slices.Contains(reservedKeys, a) {
			clash = append(clash, a)
		}
	}
	return clash
}

func newKeyMap(actions []string) keyMap {
	return keyMap{
		Choose: key.NewBinding(key.WithKeys(actions...), key.WithHelp(strings.Join(actions, "/"), "choose")),
		Left:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "walk left")),
		Right:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "walk right")),
		Copy:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy text")),
		Quit:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Choose, k.Left, k.Right, k.Copy, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// ConsoleUI is the BubbleTea model that plays a story locally.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	title      string
	controller *presenter.Controller
	world      *world
	actions    []string

	keys         keyMap
	help         help.Model
	textViewport viewport.Model

	// Action keys seen since the last frame; the controller takes at most one.
	pressed   []string
	lastFrame time.Time
	status    string

	ready         bool
	width         int
	height        int
	showQuitModal bool
}

var (
	textPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	cueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
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

func NewConsoleUI(story *narrative.Story, controller *presenter.Controller, w *world) ConsoleUI {
	actions := controller.Traversal().Actions()

	vp := viewport.New(50, 20)
	vp.MouseWheelEnabled = true

	return ConsoleUI{
		title:        cases.Title(language.English).String(story.Name),
		controller:   controller,
		world:        w,
		actions:      actions,
		keys:         newKeyMap(actions),
		help:         help.New(),
		textViewport: vp,
	}
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m ConsoleUI) Init() tea.Cmd {
	return frame()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		textWidth := int(float64(m.width)*0.7) - 4
		m.textViewport.Width = textWidth - 2
		m.textViewport.Height = m.height - 12
		m.help.Width = textWidth
		m.ready = true
		m.writeText()

	case frameMsg:
		now := time.Time(msg)
		dt := frameInterval
		if !m.lastFrame.IsZero() {
			dt = now.Sub(m.lastFrame)
		}
		m.lastFrame = now

		m.world.update(dt)
		m = m.applyInput()
		if m.world.text.changed {
			m.world.text.changed = false
			m.writeText()
		}
		return m, frame()

	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyCtrlC:
			return m, tea.Quit
		case key.Matches(msg, m.keys.Quit):
			m.showQuitModal = true
			return m, nil
		case slices.Contains(m.actions, msg.String()):
			m.pressed = append(m.pressed, msg.String())
			return m, nil
		case key.Matches(msg, m.keys.Left):
			m.world.movePlayer(-playerStride)
			return m, nil
		case key.Matches(msg, m.keys.Right):
			m.world.movePlayer(playerStride)
			return m, nil
		case key.Matches(msg, m.keys.Copy):
			if err := clipboard.WriteAll(m.world.text.text); err != nil {
				m.status = fmt.Sprintf("Copy failed: %v", err)
			} else {
				m.status = "Copied text to clipboard."
			}
			return m, nil
		}
	}

	m.textViewport, cmd = m.textViewport.Update(msg)
	return m, cmd
}

// applyInput hands the keys pressed since the last frame to the controller.
func (m ConsoleUI) applyInput() ConsoleUI {
	if len(m.pressed) == 0 {
		return m
	}
	symbol, out := m.controller.Tick(m.pressed)
	m.pressed = nil

	t := m.controller.Traversal()
	switch {
	case out == narrative.Transitioned && t.IsTerminal():
		m.status = fmt.Sprintf("[%s] The story has ended.", symbol)
	case out == narrative.Transitioned:
		m.status = fmt.Sprintf("[%s] Moved to node %d.", symbol, t.CurrentIndex())
	default:
		m.status = "Nothing happens. The story has ended."
	}
	return m
}

func (m *ConsoleUI) writeText() {
	width := m.textViewport.Width - 6
	if width < 10 {
		width = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(strings.ToUpper(m.title)) + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
	content.WriteString(narratorStyle.Render(wordwrap.String(m.world.text.text, width)) + "\n\n")

	for i, c := range m.controller.Traversal().ChoicesOfCurrent() {
		content.WriteString(promptStyle.Render(fmt.Sprintf("%d. %s", i+1, wordwrap.String(c.Text, width-3))) + "\n")
	}

	m.textViewport.SetContent(content.String())
	m.textViewport.GotoTop()
}

func (m ConsoleUI) writeMetadata() string {
	t := m.controller.Traversal()
	light := m.world.light.color

	var content strings.Builder
	content.WriteString(titleStyle.Render("SCENE") + "\n\n")

	content.WriteString("Node:\n")
	content.WriteString(fmt.Sprintf("%d", t.CurrentIndex()))
	if id := t.Current().ID; id != "" {
		content.WriteString(" (" + id + ")")
	}
	content.WriteString("\n\n")

	content.WriteString("Light:\n")
	swatch := lipgloss.NewStyle().Background(lipgloss.Color(hexColor(light))).Render("      ")
	content.WriteString(swatch + fmt.Sprintf(" %.2f %.2f %.2f\n\n", light.R, light.G, light.B))

	content.WriteString("Now playing:\n")
	content.WriteString(cueStyle.Render(orNone(m.world.voice.playing)) + "\n\n")

	content.WriteString("Listener:\n")
	if m.world.inRange() {
		content.WriteString("in range\n")
	} else {
		content.WriteString("out of range\n")
	}
	content.WriteString(cueStyle.Render(orNone(m.world.npcVoice.playing)) + "\n")

	return content.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case frameMsg:
		// Keep the frame loop alive while the modal is open.
		m.lastFrame = time.Time(msg)
		return m, frame()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Story?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	textWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - textWidth - 6

	textPanel := textPanelStyle.Width(textWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.textViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(textWidth-4, 1))),
			m.world.track(max(textWidth-8, 3)),
			statusStyle.Render(m.status),
			"",
			m.help.View(m.keys),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.writeMetadata())

	return lipgloss.JoinHorizontal(lipgloss.Top, textPanel, metaPanel)
}
