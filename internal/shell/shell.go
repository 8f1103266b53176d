// Package shell is the interactive console: a transcript pane plus an
// input line. Slash commands operate the task list, check-ins and
// configuration; anything else becomes a conversation with the AI
// coach. Scheduled check-in messages are injected into the transcript
// while the shell runs.
package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/kylemclaren/devcoach/internal/ai"
	"github.com/kylemclaren/devcoach/internal/errs"
)

// CoachMsg carries a scheduler-generated coaching message into the
// running shell via Program.Send.
type CoachMsg struct {
	Text string
}

type aiReplyMsg struct {
	reply string
	err   error
}

type testResultMsg struct {
	err error
}

// Model is the shell's bubbletea model.
type Model struct {
	app *App

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	transcript []string
	mdRenderer *glamour.TermRenderer

	// History navigation. histIdx == len(entries) means "composing a
	// new line"; draft preserves it while browsing older commands.
	histIdx int
	draft   string

	busy   bool
	ready  bool
	width  int
	height int
}

// NewModel creates the shell model.
func NewModel(app *App) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command or talk to your coach"
	ti.Prompt = promptStyle.Render("> ")
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	m := Model{
		app:     app,
		input:   ti,
		spinner: sp,
		histIdx: len(app.History.Entries()),
	}
	m.appendBlock(m.greeting())
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		if renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(min(msg.Width-4, 100)),
		); err == nil {
			m.mdRenderer = renderer
		}
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.shutdown()
		case "up":
			m.browseHistory(-1)
			return m, nil
		case "down":
			m.browseHistory(1)
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "enter":
			return m.submit()
		}

	case CoachMsg:
		m.appendBlock(coachStyle.Render("AI Coach") + "\n" + m.renderMarkdown(msg.Text))
		return m, nil

	case aiReplyMsg:
		m.busy = false
		if msg.err != nil {
			m.appendBlock(coachStyle.Render("AI Coach") + "\n" + ai.Fallback() + "\n" + dimStyle.Render("(the AI was unreachable: "+msg.err.Error()+")"))
		} else {
			m.appendBlock(coachStyle.Render("AI Coach") + "\n" + m.renderMarkdown(msg.reply))
		}
		return m, nil

	case testResultMsg:
		m.busy = false
		if msg.err != nil {
			m.appendBlock(errorMsgStyle.Render("AI connection failed: ") + msg.err.Error())
		} else {
			m.appendBlock(successMsgStyle.Render("AI connection OK."))
		}
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	inputLine := m.input.View()
	if m.busy {
		inputLine = m.spinner.View() + " " + dimStyle.Render("thinking...")
	}
	hint := dimStyle.Render("/help for commands · ctrl+c to quit")
	return m.viewport.View() + "\n" + inputLine + "\n" + hint
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" || m.busy {
		return m, nil
	}
	m.input.SetValue("")
	m.draft = ""
	m.app.History.Add(line)
	m.histIdx = len(m.app.History.Entries())
	m.appendBlock(promptStyle.Render("> ") + line)

	if !strings.HasPrefix(line, "/") {
		return m.askCoach(line)
	}
	if line == "/config test" {
		return m.testConnection()
	}

	out, quit, err := m.app.Execute(line)
	if err != nil {
		m.appendBlock(m.formatError(err))
		return m, nil
	}
	if out != "" {
		m.appendBlock(out)
	}
	if quit {
		return m.shutdown()
	}
	return m, nil
}

func (m *Model) askCoach(text string) (tea.Model, tea.Cmd) {
	apiKey := m.app.Cfg.APIKey()
	if apiKey == "" {
		m.appendBlock(dimStyle.Render("No AI API key configured. Set one with /config set ai_api_key <key>."))
		return m, nil
	}

	m.busy = true
	coach := m.app.NewCoach(apiKey)
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		reply, err := coach.GenerateReply(context.Background(), text)
		return aiReplyMsg{reply: reply, err: err}
	})
}

func (m *Model) testConnection() (tea.Model, tea.Cmd) {
	apiKey := m.app.Cfg.APIKey()
	if apiKey == "" {
		m.appendBlock(dimStyle.Render("No AI API key configured. Set one with /config set ai_api_key <key>."))
		return m, nil
	}

	m.busy = true
	client := ai.NewClient(apiKey)
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return testResultMsg{err: client.TestConnection(context.Background())}
	})
}

func (m *Model) shutdown() (tea.Model, tea.Cmd) {
	_ = m.app.History.Flush()
	return m, tea.Quit
}

// browseHistory moves through saved commands; direction is -1 for
// older, +1 for newer.
func (m *Model) browseHistory(direction int) {
	entries := m.app.History.Entries()
	if len(entries) == 0 {
		return
	}
	if m.histIdx == len(entries) && direction < 0 {
		m.draft = m.input.Value()
	}

	next := m.histIdx + direction
	if next < 0 {
		next = 0
	}
	if next > len(entries) {
		next = len(entries)
	}
	m.histIdx = next

	if m.histIdx == len(entries) {
		m.input.SetValue(m.draft)
	} else {
		m.input.SetValue(entries[m.histIdx])
	}
	m.input.CursorEnd()
}

func (m *Model) appendBlock(block string) {
	m.transcript = append(m.transcript, block)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) renderMarkdown(text string) string {
	if m.mdRenderer == nil {
		return text
	}
	out, err := m.mdRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

func (m *Model) formatError(err error) string {
	if errs.IsValidation(err) {
		return errorMsgStyle.Render(err.Error())
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return errorMsgStyle.Render(fmt.Sprintf("Error (%s): %s", e.Kind, e.Message))
	}
	return errorMsgStyle.Render("Error: " + err.Error())
}

func (m *Model) greeting() string {
	lines := []string{
		logoStyle.Render("dev-coach"),
		subtitleStyle.Render("your personal productivity coach"),
	}
	if m.app.MemoryOnly {
		lines = append(lines, errorMsgStyle.Render("Data directory unavailable, running in memory-only mode."))
	}
	lines = append(lines, dimStyle.Render("Type /help to see what I can do."))
	return strings.Join(lines, "\n")
}

// Run starts the interactive shell and blocks until exit. Scheduled
// check-in messages are routed into the transcript for the duration.
func Run(app *App) error {
	m := NewModel(app)
	p := tea.NewProgram(m, tea.WithAltScreen())

	app.Sched.SetEcho(func(message string) {
		p.Send(CoachMsg{Text: message})
	})
	defer app.Sched.SetEcho(func(message string) {
		fmt.Println(message)
	})

	_, err := p.Run()
	return err
}
