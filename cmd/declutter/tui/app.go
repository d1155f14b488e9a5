package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/declutter/pkg/declutter/session"
	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// pollEvery is the snapshot polling cadence.
const pollEvery = 100 * time.Millisecond

// Options configures the progress view.
type Options struct {
	// Session is the running scan to observe. Required.
	Session *session.Session

	// Root is shown in the header.
	Root string
}

// Run displays the progress view until the scan finishes or the user
// quits. Quitting cancels the session; the partial result remains
// available afterwards.
func Run(opts Options) error {
	model := newModel(opts)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// tickMsg carries the next snapshot.
type tickMsg types.ProgressSnapshot

// model is the Bubble Tea model for the progress view.
type model struct {
	opts      Options
	spinner   spinner.Model
	snapshot  types.ProgressSnapshot
	startTime time.Time
	width     int
	height    int
	quitting  bool
}

func newModel(opts Options) model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return model{
		opts:      opts,
		spinner:   s,
		startTime: time.Now(),
		width:     80,
		height:    24,
	}
}

// Init starts the spinner and the poll loop.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

// poll schedules the next snapshot read.
func (m model) poll() tea.Cmd {
	sess := m.opts.Session
	return tea.Tick(pollEvery, func(time.Time) tea.Msg {
		return tickMsg(sess.Poll())
	})
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			m.opts.Session.Cancel()
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		m.snapshot = types.ProgressSnapshot(msg)
		if m.snapshot.Phase == types.PhaseDone {
			return m, tea.Quit
		}
		return m, m.poll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress screen.
func (m model) View() string {
	var b strings.Builder

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	b.WriteString("\n")
	b.WriteString(m.renderHeader(contentWidth))
	b.WriteString("\n\n")

	switch {
	case m.quitting || m.snapshot.Cancelled:
		b.WriteString(errorTextStyle.Render("  Cancelling, partial results will be shown..."))
	case m.snapshot.Phase == types.PhaseDone:
		b.WriteString(successTextStyle.Render("  Scan complete!"))
	default:
		b.WriteString(fmt.Sprintf("  %s %s %s",
			m.spinner.View(),
			phaseLabel(m.snapshot.Phase),
			m.opts.Root))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderProgressBar(contentWidth))
	b.WriteString("\n\n")

	b.WriteString(m.renderStats(contentWidth))
	b.WriteString("\n")

	content := b.String()
	contentLines := strings.Count(content, "\n") + 1
	availableLines := m.height - 2
	if availableLines > contentLines {
		content += strings.Repeat("\n", availableLines-contentLines)
	}

	return outerBoxStyle.Width(m.width - 2).Height(m.height - 2).Render(content)
}

// renderHeader renders the title line with the quit hint.
func (m model) renderHeader(width int) string {
	title := titleStyle.Render("  declutter")
	hint := mutedTextStyle.Render("[q to stop]")

	spacing := width - lipgloss.Width(title) - lipgloss.Width(hint)
	if spacing < 1 {
		spacing = 1
	}
	return title + strings.Repeat(" ", spacing) + hint
}

// renderProgressBar renders a determinate bar when the phase total is
// known and an animated indeterminate pulse otherwise.
func (m model) renderProgressBar(width int) string {
	barWidth := width - 4
	if barWidth < 10 {
		barWidth = 10
	}

	var bar strings.Builder
	bar.WriteString("  ")

	if m.snapshot.Total > 0 {
		filled := int(float64(barWidth) * float64(m.snapshot.Items) / float64(m.snapshot.Total))
		if filled > barWidth {
			filled = barWidth
		}
		for i := 0; i < barWidth; i++ {
			if i < filled {
				bar.WriteString(progressFillStyle.Render("█"))
			} else {
				bar.WriteString(progressEmptyStyle.Render("░"))
			}
		}
		return bar.String()
	}

	// Total unknown while walking: animate a pulse instead.
	elapsed := time.Since(m.startTime)
	position := int(elapsed.Seconds()*2) % (barWidth * 2)
	if position > barWidth {
		position = barWidth*2 - position
	}
	pulseWidth := barWidth / 5
	if pulseWidth < 3 {
		pulseWidth = 3
	}
	for i := 0; i < barWidth; i++ {
		dist := i - position
		if dist < 0 {
			dist = -dist
		}
		if dist < pulseWidth {
			bar.WriteString(progressFillStyle.Render("█"))
		} else {
			bar.WriteString(progressEmptyStyle.Render("░"))
		}
	}
	return bar.String()
}

// renderStats renders the statistics boxes.
func (m model) renderStats(totalWidth int) string {
	boxWidth := (totalWidth - 10) / 4
	if boxWidth < 10 {
		boxWidth = 10
	}

	phaseBox := m.renderStatBox("Phase", phaseLabel(m.snapshot.Phase), boxWidth)
	itemsBox := m.renderStatBox("Items", humanize.Comma(m.snapshot.Items), boxWidth)
	bytesBox := m.renderStatBox("Bytes", types.FormatSize(m.snapshot.Bytes), boxWidth)
	timeBox := m.renderStatBox("Time", formatDuration(time.Since(m.startTime)), boxWidth)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		"  ", phaseBox, " ", itemsBox, " ", bytesBox, " ", timeBox)
}

// renderStatBox renders a single stat box.
func (m model) renderStatBox(label, value string, width int) string {
	labelStr := statsLabelStyle.Render(label)
	valueStr := statsValueStyle.Render(value)

	content := lipgloss.JoinVertical(lipgloss.Center,
		center(labelStr, width-4),
		center(valueStr, width-4))

	return statsBoxStyle.Width(width).Render(content)
}

// phaseLabel maps a phase to its display verb.
func phaseLabel(p types.Phase) string {
	switch p {
	case types.PhaseScanning:
		return "Scanning"
	case types.PhaseHashing:
		return "Hashing"
	case types.PhaseCleaning:
		return "Cleaning"
	case types.PhaseDone:
		return "Done"
	default:
		return "Starting"
	}
}

// center pads a string to the given width, centered.
func center(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}

// formatDuration formats a duration as M:SS.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	minutes := d / time.Minute
	seconds := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
