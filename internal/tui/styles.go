package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/fsviz/fsviz/internal/fstree"
)

var (
	// Colors
	colorPrimary   = lipgloss.Color("39")  // Blue
	colorSecondary = lipgloss.Color("245") // Gray
	colorMuted     = lipgloss.Color("240") // Dark gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	statsStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("212"))

	// Node colors by kind, one style per filesystem type.
	kindStyles = map[fstree.Kind]lipgloss.Style{
		fstree.KindMeta:        lipgloss.NewStyle().Foreground(colorMuted),
		fstree.KindDirectory:   lipgloss.NewStyle().Foreground(colorPrimary),
		fstree.KindRegularFile: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		fstree.KindSymlink:     lipgloss.NewStyle().Foreground(lipgloss.Color("51")),  // Cyan
		fstree.KindFIFO:        lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // Orange
		fstree.KindSocket:      lipgloss.NewStyle().Foreground(lipgloss.Color("213")), // Pink
		fstree.KindCharDev:     lipgloss.NewStyle().Foreground(lipgloss.Color("76")),  // Green
		fstree.KindBlockDev:    lipgloss.NewStyle().Foreground(lipgloss.Color("34")),  // Dark green
		fstree.KindUnknown:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // Red
	}

	plainStyle = lipgloss.NewStyle()
)

// styleFor picks the render style for a canvas cell.
func styleFor(kind fstree.Kind, selected bool) lipgloss.Style {
	if selected {
		return selectedStyle
	}
	if s, ok := kindStyles[kind]; ok {
		return s
	}
	return plainStyle
}

// FormatSize formats a byte count for display.
func FormatSize(bytes int64) string {
	return humanize.Bytes(uint64(bytes))
}

// FormatCount formats a count for display.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}
