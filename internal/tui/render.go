package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/sprite-ai/beautyscan/internal/model"
	"github.com/sprite-ai/beautyscan/internal/session"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	inner := m.contentWidth()
	var body string
	switch m.ctrl.View() {
	case model.ViewIntroduction:
		body = m.renderIntro(inner)
	case model.ViewIdle:
		body = m.renderIdle()
	case model.ViewCapturing:
		body = m.renderCapturing()
	case model.ViewAnalyzing:
		body = m.renderAnalyzing()
	case model.ViewResult:
		body = m.renderResult(inner)
	case model.ViewError:
		body = m.renderError(inner)
	}

	panel := panelStyle.Width(m.width - 2).Height(m.height - 3).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, panel, m.renderStatusBar())
}

// contentWidth is the usable text width inside the panel.
func (m Model) contentWidth() int {
	w := m.width - 8 // border + padding
	if w < 10 {
		w = 10
	}
	return w
}

func (m Model) renderIntro(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("beautyscan"))
	b.WriteByte('\n')
	intro := []string{
		"Take a photo and get an AI beauty score,",
		"a few things that look great, and tips to look even better.",
		"",
		"Your photo is only sent to the analysis service.",
	}
	for _, line := range intro {
		b.WriteString(textStyle.Render(truncate(line, width)))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(dimStyle.Render("Press enter to start"))
	return b.String()
}

func (m Model) renderIdle() string {
	return titleStyle.Render("Ready") + "\n" +
		textStyle.Render("Position yourself in good light, facing the camera.") + "\n\n" +
		dimStyle.Render("Press enter to open the camera")
}

func (m Model) renderCapturing() string {
	if m.capturing {
		return m.spinner.View() + " " + textStyle.Render("Taking your photo...")
	}
	return titleStyle.Render("Camera") + "\n" +
		textStyle.Render("Look at the camera and hold still.") + "\n\n" +
		dimStyle.Render("Press space or enter to take the photo, esc to cancel")
}

func (m Model) renderAnalyzing() string {
	return m.spinner.View() + " " + m.renderStatus()
}

func (m Model) renderStatus() string {
	phase := float64(m.statusTick) * math.Pi / 2
	style := lipgloss.NewStyle().Foreground(pulseColor(statusDim, statusBright, phase))
	return style.Render(session.Status(m.statusTick))
}

func (m Model) renderResult(width int) string {
	a := m.ctrl.Analysis()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Your results"))
	b.WriteByte('\n')
	b.WriteString(renderScore(a.Score))
	b.WriteByte('\n')

	if len(a.Positives) > 0 {
		b.WriteString(sectionStyle.Render("What looks great"))
		b.WriteByte('\n')
		for _, p := range a.Positives {
			b.WriteString(positiveStyle.Render(truncate("✓ "+p, width)))
			b.WriteByte('\n')
		}
	}

	if len(a.Tips) > 0 {
		b.WriteString(sectionStyle.Render("Tips"))
		b.WriteByte('\n')
		for _, t := range a.Tips {
			b.WriteString(tipStyle.Render(truncate("→ "+t, width)))
			b.WriteByte('\n')
		}
	}

	b.WriteByte('\n')
	if m.streaming() {
		b.WriteString(m.spinner.View() + " " + m.renderStatus())
	} else {
		if a.Empty() {
			b.WriteString(dimStyle.Render("The analysis returned no results."))
			b.WriteByte('\n')
		}
		b.WriteString(dimStyle.Render("Press r to take another photo"))
	}
	return b.String()
}

func renderScore(score *int) string {
	if score == nil {
		return dimStyle.Render("Score: pending")
	}
	style := lipgloss.NewStyle().Foreground(scoreColor(*score)).Bold(true)
	return textStyle.Render("Score: ") + style.Render(fmt.Sprintf("%d/100", *score))
}

func (m Model) renderError(width int) string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("Something went wrong"))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render(truncate(m.ctrl.Err(), width)))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Press r to try again"))
	return b.String()
}

func (m Model) renderStatusBar() string {
	left := " " + m.ctrl.View().String()
	if a := m.ctrl.Attempt(); a > 0 {
		left += fmt.Sprintf("  attempt %d", a)
	}
	right := "? help  q quit "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("beautyscan: Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, k := range []key.Binding{keys.Enter, keys.Capture, keys.Cancel, keys.Reset, keys.Help, keys.Quit} {
		h := k.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n", helpKeyStyle.Width(12).Render(h.Key), h.Desc))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press ? to close help"))
	return b.String()
}

// truncate shortens s to at most width terminal cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
