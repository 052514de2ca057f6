// Package ui provides the terminal chat interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stratos/parley/internal/agent"
	"github.com/stratos/parley/internal/session"
	"github.com/stratos/parley/internal/types"
)

// Deps carries everything the UI needs from the command layer.
type Deps struct {
	Store     *session.Store
	Runner    *agent.Runner
	ModelName string
	// Titles receives generated conversation titles from the runner's
	// fire-and-forget title pass.
	Titles <-chan string
	// ToolNames is shown by the "tools" command.
	ToolNames    []string
	ToolsEnabled bool
}

// Model is the Bubble Tea model for the chat UI.
type Model struct {
	textInput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	styles    Styles

	deps Deps

	// Active run state. run is nil between runs.
	run         *agent.Run
	produced    []types.Message
	streaming   strings.Builder
	status      string
	pass        int
	currentTool string

	messages []chatMessage
	title    string
	width    int
	height   int
	ready    bool
	quitting bool
}

// chatMessage is one rendered transcript entry.
type chatMessage struct {
	role    string // "user", "assistant", "system", "tool"
	content string
	tool    *toolRender
}

// toolRender is a completed tool invocation.
type toolRender struct {
	name   string
	output string
	failed bool
}

type agentEventMsg types.AgentEvent

// runClosedMsg signals the run's event channel closed.
type runClosedMsg struct{}

type titleMsg string

// NewModel creates the chat UI model.
func NewModel(deps Deps) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask anything... (enter to send, esc to cancel a reply)"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))

	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.DefaultKeyMap()

	return Model{
		textInput: ti,
		spinner:   s,
		viewport:  vp,
		styles:    DefaultStyles(),
		deps:      deps,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.deps.Titles != nil {
		cmds = append(cmds, waitForTitle(m.deps.Titles))
	}
	return tea.Batch(cmds...)
}

// waitForEvent delivers the next agent event as a Bubble Tea message.
func waitForEvent(run *agent.Run) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-run.Events()
		if !ok {
			return runClosedMsg{}
		}
		return agentEventMsg(ev)
	}
}

// waitForTitle delivers the next generated title.
func waitForTitle(titles <-chan string) tea.Cmd {
	return func() tea.Msg {
		return titleMsg(<-titles)
	}
}

func (m Model) active() bool {
	return m.run != nil
}

// headerHeight returns the terminal lines occupied by the banner and title.
func (m Model) headerHeight() int {
	banner := m.styles.BannerTitle.Render(Banner())
	return lipgloss.Height(banner) + 3
}

// footerHeight returns the terminal lines occupied by the input + help bar.
func (m Model) footerHeight() int {
	return 4
}

// updateViewport rebuilds the viewport content and scrolls to the bottom.
func (m *Model) updateViewport() {
	var b strings.Builder

	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	if m.active() {
		if m.streaming.Len() > 0 {
			b.WriteString(m.styles.AssistantMessage.Render("Assistant: " + m.streaming.String()))
			b.WriteString("\n")
		}
		if m.currentTool != "" {
			b.WriteString(m.renderToolInProgress())
			b.WriteString("\n")
		}
		b.WriteString(m.renderStatus())
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.active() {
				m.run.Cancel()
			}
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEsc:
			if m.active() {
				// Cooperative cancel; the run winds down on its own.
				m.run.Cancel()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			if m.active() {
				return m, nil
			}

			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}

			if cmd, handled := m.handleCommand(input); handled {
				m.updateViewport()
				return m, cmd
			}

			return m.startRun(input)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10

		vpWidth := msg.Width
		vpHeight := msg.Height - m.headerHeight() - m.footerHeight()
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.viewport.KeyMap = viewport.DefaultKeyMap()
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}

		m.ready = true
		m.updateViewport()

	case agentEventMsg:
		m.applyEvent(types.AgentEvent(msg))
		m.updateViewport()
		if m.run != nil {
			cmds = append(cmds, waitForEvent(m.run))
		}

	case runClosedMsg:
		m.run = nil
		m.updateViewport()

	case titleMsg:
		m.title = string(msg)
		if m.deps.Store.Title() == "" {
			m.deps.Store.SetTitle(m.title)
		}
		cmds = append(cmds, waitForTitle(m.deps.Titles))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.active() {
			m.updateViewport()
		}
	}

	if !m.active() {
		var tiCmd tea.Cmd
		m.textInput, tiCmd = m.textInput.Update(msg)
		cmds = append(cmds, tiCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// startRun commits the user message and launches an agent run.
func (m Model) startRun(input string) (tea.Model, tea.Cmd) {
	user := types.NewMessage(types.RoleUser, input)

	snapshot, err := m.deps.Store.Acquire(user)
	if err != nil {
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: "A reply is still in progress.",
		})
		m.updateViewport()
		return m, nil
	}

	m.messages = append(m.messages, chatMessage{role: "user", content: input})
	m.textInput.SetValue("")
	m.produced = nil
	m.streaming.Reset()
	m.status = ""
	m.pass = 0
	m.currentTool = ""

	m.run = m.deps.Runner.Start(context.Background(), snapshot)
	m.updateViewport()

	return m, tea.Batch(waitForEvent(m.run), m.spinner.Tick)
}

// applyEvent folds one agent event into the model.
func (m *Model) applyEvent(ev types.AgentEvent) {
	switch ev.Kind {
	case types.EventPassStarted:
		m.pass = ev.Pass
		m.status = ""

	case types.EventStatus:
		m.status = ev.Status

	case types.EventDelta:
		m.streaming.WriteString(ev.Delta)

	case types.EventToolStarted:
		if ev.ToolCall != nil {
			m.currentTool = ev.ToolCall.Function.Name
		}

	case types.EventToolResult:
		if ev.Message != nil {
			m.produced = append(m.produced, *ev.Message)
			m.messages = append(m.messages, chatMessage{
				role: "tool",
				tool: &toolRender{
					name:   ev.Message.Name,
					output: ev.Message.Content,
					failed: strings.HasPrefix(ev.Message.Content, "tool error:"),
				},
			})
		}
		m.currentTool = ""

	case types.EventAssistantDone:
		if ev.Message != nil {
			m.produced = append(m.produced, *ev.Message)
			if ev.Message.Content != "" {
				m.messages = append(m.messages, chatMessage{
					role:    "assistant",
					content: ev.Message.Content,
				})
			}
		}
		m.streaming.Reset()

	case types.EventRunFinished:
		m.finishRun(ev)
	}
}

// finishRun merges the run's output back into the session store and surfaces
// the terminal state.
func (m *Model) finishRun(ev types.AgentEvent) {
	m.deps.Store.Release(m.produced)
	m.produced = nil
	m.streaming.Reset()
	m.status = ""
	m.currentTool = ""

	switch ev.State {
	case types.StateCancelled:
		m.messages = append(m.messages, chatMessage{role: "system", content: "Cancelled."})
	case types.StateLoopExhausted:
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: "Stopped after the maximum number of tool passes.",
		})
	}
}

// handleCommand processes special commands. The second return reports whether
// the input was a command.
func (m *Model) handleCommand(input string) (tea.Cmd, bool) {
	switch strings.ToLower(input) {
	case "exit", "quit", "q":
		m.quitting = true
		return tea.Quit, true

	case "clear":
		if err := m.deps.Store.Clear(); err == nil {
			m.messages = nil
			m.title = ""
		}
		m.textInput.SetValue("")
		return nil, true

	case "help", "?":
		m.messages = append(m.messages, chatMessage{
			role: "system",
			content: `Available commands:
  help, ?     Show this help
  clear       Clear the conversation
  tools       List available tools
  exit, quit  Exit parley

Press esc to cancel a reply in progress.`,
		})
		m.textInput.SetValue("")
		return nil, true

	case "tools":
		content := "No tools are exposed for this model."
		if m.deps.ToolsEnabled && len(m.deps.ToolNames) > 0 {
			content = "Available tools:\n  " + strings.Join(m.deps.ToolNames, "\n  ")
		}
		m.messages = append(m.messages, chatMessage{role: "system", content: content})
		m.textInput.SetValue("")
		return nil, true
	}

	return nil, false
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return m.styles.SystemMessage.Render("Goodbye!\n")
	}

	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.styles.BannerTitle.Render(Banner()))
	b.WriteString("\n")
	b.WriteString(m.renderTitleLine())
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.styles.Prompt.Render("> "))
	if m.active() {
		b.WriteString(m.styles.StatusText.Render("(thinking... esc to cancel)"))
	} else {
		b.WriteString(m.textInput.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return m.styles.App.Render(b.String())
}

// renderTitleLine shows the model name and, once generated, the conversation
// title.
func (m Model) renderTitleLine() string {
	line := m.styles.StatusText.Render("model: " + m.deps.ModelName)
	if m.title != "" {
		line += m.styles.TitleLabel.Render("  •  " + m.title)
	}
	return line
}

// renderMessage renders a single transcript entry.
func (m Model) renderMessage(msg chatMessage) string {
	switch msg.role {
	case "user":
		return m.styles.UserMessage.Render("You: " + msg.content)

	case "assistant":
		return m.styles.AssistantMessage.Render("Assistant: " + msg.content)

	case "system":
		return m.styles.SystemMessage.Render(msg.content)

	case "tool":
		if msg.tool != nil {
			return m.renderToolResult(msg.tool)
		}
	}
	return ""
}

// renderToolResult renders a completed tool invocation.
func (m Model) renderToolResult(t *toolRender) string {
	var b strings.Builder

	b.WriteString(m.styles.ToolName.Render("Tool: " + t.name))
	b.WriteString("\n")

	output := t.output
	if len(output) > 300 {
		output = output[:300] + "..."
	}
	style := m.styles.ToolOutput
	if t.failed {
		style = m.styles.ToolError
	}
	for _, line := range strings.Split(output, "\n") {
		if line != "" {
			b.WriteString(style.Render("  | " + line))
			b.WriteString("\n")
		}
	}

	return m.styles.ToolBox.Render(strings.TrimRight(b.String(), "\n"))
}

// renderToolInProgress renders the tool currently executing.
func (m Model) renderToolInProgress() string {
	var b strings.Builder
	b.WriteString(m.styles.ToolName.Render("Tool: " + m.currentTool))
	b.WriteString("\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.styles.StatusText.Render("Running..."))
	return m.styles.ToolBox.Render(b.String())
}

// renderStatus renders the spinner line for an active run.
func (m Model) renderStatus() string {
	label := fmt.Sprintf("pass %d", m.pass)
	if m.status != "" {
		label += ": " + m.status
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.styles.StateLabel.Render(label))
}

// renderHelpBar renders the bottom help bar.
func (m Model) renderHelpBar() string {
	help := []string{
		m.styles.HelpKey.Render("enter") + m.styles.HelpValue.Render(" send"),
		m.styles.HelpKey.Render("esc") + m.styles.HelpValue.Render(" cancel"),
		m.styles.HelpKey.Render("ctrl+c") + m.styles.HelpValue.Render(" quit"),
		m.styles.HelpKey.Render("help") + m.styles.HelpValue.Render(" commands"),
	}
	return m.styles.HelpBar.Render(strings.Join(help, "  |  "))
}
