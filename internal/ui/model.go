package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"quran-player/internal/apperrors"
	"quran-player/internal/session"
	"quran-player/internal/theme"
)

type viewMode int

const (
	modePlayer viewMode = iota
	modeChapterPrompt
	modeVersePrompt
)

// chrome is the number of lines outside the viewport: header, help, status.
const chrome = 5

type Model struct {
	ctrl     *session.Controller
	state    session.State
	logger   *zap.Logger
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	theme    theme.Theme
	styles   theme.Styles
	mode     viewMode
	width    int
	height   int
	ready    bool
	initCmd  tea.Cmd

	// notice is the last rejected action. Asynchronous failures live in
	// state.Err instead.
	notice error
}

// NewModel starts the chapter list fetch; Init hands its command to the
// program.
func NewModel(ctrl *session.Controller, themeSlug string, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.CharLimit = 12
	ti.Width = 20

	th := theme.Get(themeSlug)
	styles := th.Styles()

	m := Model{
		ctrl:    ctrl,
		logger:  logger,
		input:   ti,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Spinner)),
		theme:   th,
		styles:  styles,
		mode:    modePlayer,
	}
	m.state, m.initCmd = ctrl.LoadChapters(session.State{})
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initCmd, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode != modePlayer {
			return m.updatePrompt(msg)
		}
		return m.updatePlayer(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-chrome, 1))
			m.viewport.YPosition = 2
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-chrome, 1)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.state, cmd = m.ctrl.Update(m.state, msg)
	m.refresh()
	return m, cmd
}

func (m Model) updatePlayer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var (
		cmd tea.Cmd
		err error
	)

	switch msg.String() {
	case "ctrl+c", "q":
		m.state = m.ctrl.Stop(m.state)
		return m, tea.Quit
	case "a":
		if m.state.Playing {
			m.state = m.ctrl.StopPlayback(m.state)
		} else {
			m.state, cmd, err = m.ctrl.Play(m.state)
		}
	case "c":
		return m.openPrompt(modeChapterPrompt, "Surah number (1-114)"), textinput.Blink
	case "v":
		if !m.state.HasChapter() {
			m.notice = apperrors.Wrap(apperrors.CodeValidation, "choose a surah first", nil)
			return m, nil
		}
		return m.openPrompt(modeVersePrompt, fmt.Sprintf("Ayah number or %d:N", m.state.ChapterID)), textinput.Blink
	case "n":
		m.state, cmd, err = m.ctrl.Next(m.state)
	case "p":
		m.state, cmd, err = m.ctrl.Prev(m.state)
	case "r":
		m.state, cmd, err = m.ctrl.StartRecording(m.state)
	case "t":
		m.theme = theme.Next(m.theme.Slug)
		m.styles = m.theme.Styles()
		m.spinner.Style = m.styles.Spinner
		m.logger.Debug("theme changed", zap.String("theme", m.theme.Slug))
	default:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	m.notice = err
	m.refresh()
	return m, cmd
}

func (m Model) openPrompt(mode viewMode, placeholder string) Model {
	m.mode = mode
	m.notice = nil
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	m.input.Focus()
	return m
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.state = m.ctrl.Stop(m.state)
		return m, tea.Quit
	case "esc":
		m.mode = modePlayer
		m.input.Blur()
		return m, nil
	case "enter":
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	mode := m.mode
	m.mode = modePlayer
	m.input.Blur()
	m.input.SetValue("")
	if value == "" {
		return m, nil
	}

	var (
		cmd tea.Cmd
		err error
	)
	switch mode {
	case modeChapterPrompt:
		id, convErr := strconv.Atoi(value)
		if convErr != nil {
			err = apperrors.Wrap(apperrors.CodeValidation, fmt.Sprintf("%q is not a surah number", value), convErr)
			break
		}
		m.state, cmd, err = m.ctrl.SelectChapter(m.state, id)
	case modeVersePrompt:
		m.state, cmd, err = m.ctrl.SelectVerse(m.state, session.ParseVerseInput(m.state, value))
	}

	m.notice = err
	m.refresh()
	if cmd != nil {
		m.viewport.GotoTop()
	}
	return m, cmd
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.content())
}

func (m Model) busy() bool {
	switch {
	case m.state.LoadingChapters(), m.state.Recording:
		return true
	case m.state.Phase == session.ChapterLoading, m.state.Phase == session.VerseLoading:
		return true
	}
	return false
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	title := "Quran Player"
	if name := m.state.ChapterName(); name != "" {
		title = fmt.Sprintf("%s · %d %s", title, m.state.ChapterID, name)
	} else if m.state.ChapterID != 0 {
		title = fmt.Sprintf("%s · %d", title, m.state.ChapterID)
	}
	header := m.styles.Header.Width(m.width).Render(m.styles.Title.Render(title))

	var status string
	switch m.mode {
	case modeChapterPrompt, modeVersePrompt:
		status = m.styles.Prompt.Render("> ") + m.input.View()
	default:
		status = m.statusLine()
	}

	help := m.styles.Help.Render(m.helpLine())

	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), status, help)
}

func (m Model) statusLine() string {
	if err := m.displayErr(); err != nil {
		if apperrors.IsNetwork(err) {
			return m.styles.Error.Render("Connection problem: " + err.Error())
		}
		return m.styles.Error.Render("Error: " + err.Error())
	}
	switch {
	case m.state.Recording:
		return m.spinner.View() + " " + m.styles.Recording.Render("Recording... recite an ayah")
	case m.state.Playing:
		return m.styles.Playing.Render("Playing " + m.state.VerseKey)
	case m.busy():
		return m.spinner.View() + " " + m.styles.Help.Render("Loading...")
	}
	return ""
}

func (m Model) displayErr() error {
	if m.notice != nil {
		return m.notice
	}
	return m.state.Err
}

func (m Model) helpLine() string {
	if m.mode != modePlayer {
		return "enter: confirm | esc: cancel"
	}
	parts := []string{"c: surah", "v: ayah", "n/p: next/prev"}
	switch {
	case m.state.Playing:
		parts = append(parts, "a: stop")
	case m.state.CanPlay():
		parts = append(parts, "a: play")
	}
	if m.state.CanRecord() {
		parts = append(parts, "r: record")
	}
	parts = append(parts, "t: theme ("+m.theme.Name+")", "q: quit")
	return strings.Join(parts, " | ")
}
