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

	"github.com/relab-tools/faultline/pkg/client"
)

// Config
const (
	pollRate       = 2 * time.Second
	maxRuns        = 20
	viewportHeight = 20
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Bold(true)
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

	// Run row styles
	runTimeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(20)
	runModelStyle = lipgloss.NewStyle().Width(25).Bold(true)
	runAlgoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")) // Purple

	truncStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // Orange
	probStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // Blue
)

type tickMsg time.Time

type dataMsg struct {
	runs   []client.RunSummary
	status client.Status
	err    error
}

type dashboard struct {
	api      *client.Client
	spinner  spinner.Model
	viewport viewport.Model
	runs     []client.RunSummary
	status   client.Status
	err      error
	ready    bool
}

func initialDashboard(api *client.Client) dashboard {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return dashboard{
		api:     api,
		spinner: s,
	}
}

func (m dashboard) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchData(m.api),
		tick(),
	)
}

func (m dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			m.runs = msg.runs
			m.status = msg.status
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

func (m *dashboard) updateViewportContent() {
	var sb strings.Builder

	for _, run := range m.runs {
		ts := run.CreatedAt.Format("15:04:05")

		prob := subtleStyle.Render("p=?")
		if run.Probability != nil {
			prob = probStyle.Render(fmt.Sprintf("p=%.3g", *run.Probability))
		}

		products := fmt.Sprintf("%d products", run.ProductCount)
		if run.Truncated > 0 {
			products = truncStyle.Render(fmt.Sprintf("%s (+%d cut)", products, run.Truncated))
		}

		line := fmt.Sprintf("%s %s %s %s %s\n",
			runTimeStyle.Render(ts),
			runModelStyle.Render(run.Model),
			runAlgoStyle.Render(run.Algorithm),
			prob,
			products,
		)
		sb.WriteString(line)
	}

	m.viewport.SetContent(sb.String())
}

func (m dashboard) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Initializing...", m.spinner.View())
	}

	// Top Pane: Daemon status summary
	var summary strings.Builder
	summary.WriteString(lipgloss.NewStyle().Bold(true).Underline(true).Render("Faultline") + "\n\n")

	if m.err != nil {
		summary.WriteString(errorStyle.Render("Daemon unreachable."))
	} else if len(m.runs) == 0 {
		summary.WriteString(subtleStyle.Render("No analysis runs stored yet."))
	} else {
		latest := m.runs[0]
		summary.WriteString(fmt.Sprintf("Latest run: %s (%s)\n", latest.Model, latest.RunID))
		if latest.Probability != nil {
			summary.WriteString(fmt.Sprintf("Top event probability: %s\n", statusStyle.Render(fmt.Sprintf("%g", *latest.Probability))))
		}
	}

	topPane := paneStyle.Render(summary.String())

	// Bottom Pane: Run history
	header := headerStyle.Render(fmt.Sprintf("%s Run History", m.spinner.View()))
	bottomPane := m.viewport.View()

	// Status Footer
	var status string
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf("Offline: %v", m.err))
	} else {
		status = okStyle.Render(fmt.Sprintf("Online • %d Runs", len(m.runs)))
	}
	footer := subtleStyle.Render(fmt.Sprintf("\n%s\nPress q to quit", status))

	return lipgloss.JoinVertical(lipgloss.Left, topPane, header, bottomPane, footer)
}

// Commands

func fetchData(api *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pollRate)
		defer cancel()

		status, err := api.Ping(ctx)
		if err != nil {
			return dataMsg{err: err}
		}

		runs, err := api.ListRuns(ctx, client.RunsOptions{Limit: maxRuns})
		if err != nil {
			return dataMsg{err: err}
		}

		return dataMsg{
			runs:   runs,
			status: status,
			err:    nil,
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	api := client.NewClient(os.Getenv("FAULTLINE_URL"))
	p := tea.NewProgram(initialDashboard(api), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
