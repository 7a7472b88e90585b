// Package ui is the interactive request picker: a file list on one
// screen, the executed response on the next.
package ui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Runner executes the request file at path and returns the rendered
// response block.
type Runner func(path string) (string, error)

type requestItem struct {
	path string
}

func (i requestItem) Title() string       { return filepath.Base(i.path) }
func (i requestItem) Description() string { return i.path }
func (i requestItem) FilterValue() string { return filepath.Base(i.path) }

type viewState int

const (
	statePicking viewState = iota
	stateRunning
	stateViewing
)

type runResultMsg struct {
	path   string
	output string
	err    error
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E"))
)

type Model struct {
	files    list.Model
	response viewport.Model
	runner   Runner
	state    viewState
	current  string
	err      error
	width    int
	height   int
}

func NewModel(paths []string, runner Runner) Model {
	items := make([]list.Item, 0, len(paths))
	for _, path := range paths {
		items = append(items, requestItem{path: path})
	}

	files := list.New(items, list.NewDefaultDelegate(), 0, 0)
	files.Title = "requests"
	files.Styles.Title = titleStyle
	files.SetShowStatusBar(false)

	return Model{
		files:    files,
		response: viewport.New(0, 0),
		runner:   runner,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.files.SetSize(msg.Width, msg.Height-2)
		m.response.Width = msg.Width
		m.response.Height = msg.Height - 3
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state == stateViewing {
				m.state = statePicking
				return m, nil
			}
			if !m.files.SettingFilter() {
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateViewing {
				m.state = statePicking
				return m, nil
			}
		case "enter":
			if m.state == statePicking && !m.files.SettingFilter() {
				item, ok := m.files.SelectedItem().(requestItem)
				if !ok {
					return m, nil
				}
				m.state = stateRunning
				m.current = item.path
				return m, runRequest(m.runner, item.path)
			}
		}

	case runResultMsg:
		m.state = stateViewing
		m.current = msg.path
		m.err = msg.err
		m.response.SetContent(msg.output)
		m.response.GotoTop()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case statePicking:
		m.files, cmd = m.files.Update(msg)
	case stateViewing:
		m.response, cmd = m.response.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	switch m.state {
	case stateRunning:
		return statusStyle.Render(fmt.Sprintf("running %s...", filepath.Base(m.current)))
	case stateViewing:
		header := titleStyle.Render(filepath.Base(m.current))
		footer := statusStyle.Render("q/esc back - ctrl+c quit")
		if m.err != nil {
			return header + "\n" + errorStyle.Render(m.err.Error()) + "\n" + footer
		}
		return header + "\n" + m.response.View() + "\n" + footer
	default:
		return m.files.View()
	}
}

func runRequest(runner Runner, path string) tea.Cmd {
	return func() tea.Msg {
		output, err := runner(path)
		if err != nil {
			return runResultMsg{path: path, output: "", err: err}
		}
		return runResultMsg{path: path, output: output}
	}
}

// Run starts the interactive picker over the given request files.
func Run(paths []string, runner Runner) error {
	program := tea.NewProgram(NewModel(paths, runner), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
