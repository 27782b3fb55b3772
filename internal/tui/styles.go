package tui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	colorRed     = lipgloss.Color("#ff5555")
	colorGreen   = lipgloss.Color("#50fa7b")
	colorYellow  = lipgloss.Color("#f1fa8c")
	colorBlue    = lipgloss.Color("#8be9fd")
	colorPurple  = lipgloss.Color("#bd93f9")
	colorPink    = lipgloss.Color("#ff79c6")
	colorDim     = lipgloss.Color("#6272a4")
	colorBgLight = lipgloss.Color("#343746")
	colorFg      = lipgloss.Color("#f8f8f2")
	colorBorder  = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorPink).
			Bold(true).
			Padding(0, 0, 1, 0)

	textStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	sectionStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true).
			Padding(1, 0, 0, 0)

	positiveStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	tipStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	// Help
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

// scoreColor picks the score color: green above 75, yellow above 50, red
// otherwise.
func scoreColor(score int) lipgloss.Color {
	switch {
	case score > 75:
		return colorGreen
	case score > 50:
		return colorYellow
	default:
		return colorRed
	}
}

// pulseColor interpolates between a dim and bright version of a color based on phase.
func pulseColor(dimRGB, brightRGB [3]int, phase float64) lipgloss.Color {
	t := (math.Sin(phase) + 1) / 2 // 0.0 to 1.0
	r := dimRGB[0] + int(t*float64(brightRGB[0]-dimRGB[0]))
	g := dimRGB[1] + int(t*float64(brightRGB[1]-dimRGB[1]))
	b := dimRGB[2] + int(t*float64(brightRGB[2]-dimRGB[2]))
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}

// Status line color pair: [dim, bright].
var (
	statusDim    = [3]int{0x62, 0x72, 0xa4}
	statusBright = [3]int{0xbd, 0x93, 0xf9}
)
