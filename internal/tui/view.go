package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/geom"
	"github.com/fsviz/fsviz/internal/layout"
)

const headerLines = 2
const footerLines = 2

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	title := fmt.Sprintf("fsviz - %s view", m.ctx.Mode)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	scanInfo := ""
	if m.meta != nil {
		scanInfo = fmt.Sprintf("%s | %s apparent | %s on disk | %s files",
			m.meta.RootPath,
			FormatSize(m.meta.TotalSize),
			FormatSize(m.meta.TotalBlocks),
			FormatCount(m.meta.FileCount))
	}
	b.WriteString(statsStyle.Render(scanInfo))
	b.WriteString("\n")

	if m.frame == "" {
		highDetail := !m.sched.Pending() && !m.eng.Camera().Moving()
		m.frame = m.renderCanvas(highDetail)
	}
	b.WriteString(m.frame)

	b.WriteString(statusStyle.Render(m.statusLine()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))

	return b.String()
}

func (m *Model) statusLine() string {
	cur := m.ctx.Current
	if cur == fstree.InvalidID {
		return ""
	}
	n := m.tree.Node(cur)
	status := truncateMiddle(m.tree.Path(cur), max(10, m.width-40))
	if d := m.tree.Dir(cur); d != nil {
		status += fmt.Sprintf(" | %s | %s files",
			FormatSize(d.SubtreeSize), FormatCount(d.Counts[fstree.KindRegularFile]))
		if !m.tree.EntryExpanded(cur) {
			status += " | closed"
		}
	} else {
		status += fmt.Sprintf(" | %s", FormatSize(n.Size))
	}
	return status
}

// renderCanvas projects the frame's draw list onto the character grid.
func (m *Model) renderCanvas(highDetail bool) string {
	ch := m.height - headerLines - footerLines
	if ch < 3 {
		ch = 3
	}
	cx, cy, halfSpan := m.viewWindow()
	cv := newCanvas(m.width, ch, cx, cy, halfSpan)

	cur := m.ctx.Current
	for _, s := range m.eng.Draw(highDetail) {
		switch s := s.(type) {
		case layout.Disc:
			cv.fillDisc(s.Center, s.Radius, kindRune(s.Kind), s.Kind, s.Node == cur)
		case layout.Block:
			cv.fillRect(s.C0, s.C1, heightRune(s.Z1, 384.0), s.Kind, s.Node == cur)
		case layout.FolderGlyph:
			cv.outlineRect(s.C0, s.C1, '·', fstree.KindDirectory)
		case layout.Sector:
			cv.fillSector(s, kindRune(s.Kind), s.Kind, s.Node == cur)
		case layout.Branch:
			switch s.Kind {
			case layout.BranchLoop:
				cv.arc(s.R0, 0.0, 360.0, '·')
			case layout.BranchIn:
				cv.ray(s.Theta0, s.R0, s.R1, '·')
			case layout.BranchOut:
				cv.arc(s.R0, s.Theta0, s.Theta1, '·')
			}
		case layout.Label:
			cv.text(s.Pos.X, s.Pos.Y, s.Text, m.tree.Node(s.Node).Kind, s.Node == cur)
		}
	}
	return cv.String()
}

// viewWindow derives the projection center and half-height in world units
// from the camera.
func (m *Model) viewWindow() (cx, cy, halfSpan float64) {
	cam := m.eng.Camera()
	halfSpan = cam.Distance * math.Tan(geom.Rad(0.5*cam.Fov))
	switch m.ctx.Mode {
	case layout.ModeDisc:
		return cam.DiscTarget.X, cam.DiscTarget.Y, halfSpan
	case layout.ModeMap:
		return cam.MapTarget.X, cam.MapTarget.Y, halfSpan
	default:
		t := geom.Rad(cam.TreeTarget.Theta)
		return cam.TreeTarget.R * math.Cos(t), cam.TreeTarget.R * math.Sin(t), halfSpan
	}
}

func kindRune(k fstree.Kind) rune {
	switch k {
	case fstree.KindDirectory, fstree.KindMeta:
		return '▒'
	case fstree.KindSymlink:
		return '~'
	case fstree.KindFIFO:
		return '|'
	case fstree.KindSocket:
		return '@'
	case fstree.KindCharDev, fstree.KindBlockDev:
		return '+'
	default:
		return '░'
	}
}

func truncateMiddle(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	head := (maxLen - 3) / 2
	tail := maxLen - 3 - head
	return s[:head] + "..." + s[len(s)-tail:]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
