package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	dialogue "github.com/odiadev/ruthie-core/core"
	"github.com/odiadev/ruthie-core/core/events"
)

const maxConsoleLines = 200

var (
	agentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	callerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	controlStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	frameStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type consoleModel struct {
	session *dialogue.Session
	voice   *consoleVoice

	transcript viewport.Model
	input      textinput.Model
	lines      []string

	width  int
	height int
	ended  bool
}

// agentLineMsg wraps an outbound line for bubbletea.
type agentLineMsg consoleLine

// stateTickMsg refreshes the status line.
type stateTickMsg time.Time

func newConsoleModel(session *dialogue.Session, voice *consoleVoice) consoleModel {
	input := textinput.New()
	input.Placeholder = "Say something..."
	input.Focus()

	return consoleModel{
		session:    session,
		voice:      voice,
		transcript: viewport.New(80, 20),
		input:      input,
	}
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(m.listenVoice(), m.tick(), textinput.Blink)
}

func (m consoleModel) listenVoice() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-m.voice.lines
		if !ok {
			return nil
		}
		return agentLineMsg(line)
	}
}

func (m consoleModel) tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return stateTickMsg(t)
	})
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text != "" && !m.ended {
				m.addLine(callerStyle.Render("caller") + "  " + text)
				m.session.Push(events.NewUserSpeechStarted())
				m.session.Push(events.NewTranscriptFinal(text))
				m.input.SetValue("")
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.transcript.Width = msg.Width - 4
		m.transcript.Height = msg.Height - 6
		m.refresh()

	case agentLineMsg:
		line := consoleLine(msg)
		switch line.kind {
		case lineAgent:
			m.addLine(agentStyle.Render("ruthie") + "  " + line.text)
		case lineControl:
			m.addLine(controlStyle.Render(line.text))
		case lineHangup:
			m.addLine(controlStyle.Render(line.text))
			m.ended = true
		}
		cmds = append(cmds, m.listenVoice())

	case stateTickMsg:
		cmds = append(cmds, m.tick())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.transcript, cmd = m.transcript.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *consoleModel) addLine(line string) {
	width := m.transcript.Width
	if width <= 0 {
		width = 80
	}
	m.lines = append(m.lines, wordwrap.String(line, width))
	if len(m.lines) > maxConsoleLines {
		m.lines = m.lines[len(m.lines)-maxConsoleLines:]
	}
	m.refresh()
}

func (m *consoleModel) refresh() {
	m.transcript.SetContent(strings.Join(m.lines, "\n"))
	m.transcript.GotoBottom()
}

func (m consoleModel) View() string {
	status := statusStyle.Render(fmt.Sprintf("state: %s    caller: %s",
		m.session.State(), dialogue.MaskPhone(m.session.CallerID)))

	body := m.transcript.View() + "\n" + status + "\n" + m.input.View() +
		"\n" + controlStyle.Render("enter=speak  esc=hang up")
	return frameStyle.Render(body)
}
