package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spawnwatch/spawnwatch/pkg/client"
)

// Config
const (
	pollRate       = time.Second
	viewportHeight = 20
	maxAlertLines  = 3
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	// Layout styles
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(100)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(100)

	// Board row styles
	countdownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(14)
	nameStyle      = lipgloss.NewStyle().Width(28).Bold(true)
	locationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")) // Purple

	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // Green
	upcomingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // Orange
	pinStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // Blue
	alertStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

type tickMsg time.Time

type dataMsg struct {
	board  client.Board
	alerts []client.Alert
	err    error
}

type model struct {
	api      *client.Client
	spinner  spinner.Model
	viewport viewport.Model
	board    client.Board
	alerts   []client.Alert
	err      error
	ready    bool
}

func initialModel(api *client.Client) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		api:     api,
		spinner: s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchData(m.api),
		tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		cmds = append(cmds, fetchData(m.api), tick())

	case dataMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.board = msg.board
			m.alerts = msg.alerts
			m.updateViewportContent()
		}

		if !m.ready {
			m.ready = true
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, viewportHeight)
			m.viewport.Style = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				PaddingRight(2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewportHeight
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *model) updateViewportContent() {
	var sb strings.Builder

	for _, e := range m.board.Entries {
		countdown := e.Countdown
		if e.Active {
			countdown = activeStyle.Render("ACTIVE")
		} else if countdown == "" {
			countdown = subtleStyle.Render("--")
		}

		var badges []string
		if e.Pinned {
			badges = append(badges, pinStyle.Render("pinned"))
		}
		if e.Upcoming {
			badges = append(badges, upcomingStyle.Render("next up"))
		}
		if e.Followed {
			badges = append(badges, alertStyle.Render("following"))
		}

		line := fmt.Sprintf("%s %s %s %s\n",
			countdownStyle.Render(countdown),
			nameStyle.Render(e.Event.Name),
			locationStyle.Render(e.Event.Location),
			strings.Join(badges, " "),
		)
		sb.WriteString(line)
	}

	m.viewport.SetContent(sb.String())
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Initializing...", m.spinner.View())
	}

	// Top Pane: recent alerts
	var alertList strings.Builder
	alertList.WriteString(lipgloss.NewStyle().Bold(true).Underline(true).Render("Recent Alerts") + "\n\n")

	if len(m.alerts) == 0 {
		alertList.WriteString(subtleStyle.Render("No alerts yet."))
	} else {
		start := len(m.alerts) - maxAlertLines
		if start < 0 {
			start = 0
		}
		for _, a := range m.alerts[start:] {
			marker := "•"
			if a.Important {
				marker = alertStyle.Render("!")
			}
			alertList.WriteString(fmt.Sprintf("%s %s: %s\n", marker, a.Title, a.Message))
		}
	}

	topPane := paneStyle.Render(alertList.String())

	// Bottom Pane: the event board
	header := headerStyle.Render(fmt.Sprintf("%s Event Board", m.spinner.View()))
	bottomPane := m.viewport.View()

	// Status Footer
	var status string
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf("Offline: %v", m.err))
	} else {
		active := 0
		for _, e := range m.board.Entries {
			if e.Active {
				active++
			}
		}
		status = okStyle.Render(fmt.Sprintf("Online • %d Events • %d Active • Catalog v%d",
			len(m.board.Entries), active, m.board.Version))
	}
	footer := subtleStyle.Render(fmt.Sprintf("\n%s\nPress q to quit", status))

	return lipgloss.JoinVertical(lipgloss.Left, topPane, header, bottomPane, footer)
}

// Commands

func fetchData(api *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 900*time.Millisecond)
		defer cancel()

		board, err := api.Board(ctx)
		if err != nil {
			return dataMsg{err: err}
		}

		alerts, err := api.Alerts(ctx)
		if err != nil {
			return dataMsg{err: err}
		}

		return dataMsg{board: board, alerts: alerts}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	api := client.NewClient(os.Getenv("SPAWNWATCH_URL"))
	p := tea.NewProgram(initialModel(api), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
