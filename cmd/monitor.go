// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dana Reiter, Lucerna

package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucerna/osphost/pkg/osp"
	"github.com/spf13/cobra"
)

const pollInterval = time.Second

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live TUI monitoring every node's temperature and status",
	Long: `Initializes the chain and polls each node once per second, showing
identity, temperature and status flags in a live table.

Keys: a=all active, s=all sleep, c=clear errors, r=re-init chain, q=quit.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	p := tea.NewProgram(newMonitorModel(client), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type monitorModel struct {
	client *osp.Client

	spin  spinner.Model
	nodes table.Model

	last     osp.Addr
	loop     bool
	scanning bool
	status   string
	err      error
	quitting bool
}

type chainMsg struct {
	last osp.Addr
	loop bool
	err  error
}

type rowsMsg struct {
	rows []table.Row
	err  error
}

type busDoneMsg struct {
	action string
	err    error
}

type pollTickMsg time.Time

func newMonitorModel(client *osp.Client) monitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	columns := []table.Column{
		{Title: "ADDR", Width: 6},
		{Title: "IDENTITY", Width: 26},
		{Title: "TEMP", Width: 6},
		{Title: "STAT", Width: 6},
		{Title: "STATE", Width: 10},
	}
	nodes := table.New(table.WithColumns(columns), table.WithFocused(true), table.WithHeight(16))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	nodes.SetStyles(styles)

	return monitorModel{
		client:   client,
		spin:     s,
		nodes:    nodes,
		scanning: true,
	}
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

func scanChain(client *osp.Client) tea.Cmd {
	return func() tea.Msg {
		last, loop, err := client.ResetInit()
		return chainMsg{last: last, loop: loop, err: err}
	}
}

func pollChain(client *osp.Client, last osp.Addr) tea.Cmd {
	return func() tea.Msg {
		rows := make([]table.Row, 0, int(last))
		for addr := osp.AddrUnicastMin; addr <= last; addr++ {
			row := table.Row{fmt.Sprintf("0x%03X", uint16(addr)), "?", "?", "?", "?"}
			if id, err := client.Identify(addr); err == nil {
				row[1] = id.String()
			}
			temp, stat, err := client.ReadTempStat(addr)
			if err != nil {
				rows = append(rows, row)
				continue
			}
			row[2] = fmt.Sprintf("0x%02X", temp)
			row[3] = fmt.Sprintf("0x%02X", stat)
			row[4] = statStateName(stat)
			rows = append(rows, row)
		}
		return rowsMsg{rows: rows}
	}
}

func pollTick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func busAction(action string, do func() error) tea.Cmd {
	return func() tea.Msg {
		return busDoneMsg{action: action, err: do()}
	}
}

//////////////////////////////////////////////////////////////
// Update
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, scanChain(m.client))
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "a":
			return m, busAction("all active", func() error { return m.client.GoActive(osp.AddrBroadcast) })
		case "s":
			return m, busAction("all sleep", func() error { return m.client.GoSleep(osp.AddrBroadcast) })
		case "c":
			return m, busAction("errors cleared", func() error { return m.client.ClrError(osp.AddrBroadcast) })
		case "r":
			m.scanning = true
			m.err = nil
			return m, tea.Batch(m.spin.Tick, scanChain(m.client))
		}

	case chainMsg:
		m.scanning = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.last = msg.last
		m.loop = msg.loop
		m.err = nil
		return m, pollChain(m.client, m.last)

	case rowsMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.nodes.SetRows(msg.rows)
		}
		return m, pollTick()

	case pollTickMsg:
		if m.scanning || m.last == 0 {
			return m, pollTick()
		}
		return m, pollChain(m.client, m.last)

	case busDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.status = msg.action
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.nodes, cmd = m.nodes.Update(msg)
	return m, cmd
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m monitorModel) View() string {
	if m.quitting {
		return ""
	}

	view := titleStyle.Render("osphost monitor") + "\n"
	switch {
	case m.scanning:
		view += m.spin.View() + " initializing chain...\n"
	case m.err != nil:
		view += errStyle.Render(fmt.Sprintf("error: %v", m.err)) + "\n"
	default:
		mode := "BiDir"
		if m.loop {
			mode = "Loop"
		}
		view += statusStyle.Render(fmt.Sprintf("%d node(s), %s mode  %s", uint16(m.last), mode, m.status)) + "\n"
	}
	view += m.nodes.View() + "\n"
	view += helpStyle.Render("a active • s sleep • c clear errors • r re-init • q quit")
	return view
}
