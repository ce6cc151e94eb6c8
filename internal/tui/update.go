package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fsviz/fsviz/internal/colexp"
	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/layout"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.frame = ""
		return m, nil

	case tickMsg:
		m.sched.Advance(m.clock())
		if m.ctx.NeedRedraw || m.frame == "" {
			// Labels and branch lines are worth drawing only once the
			// scene holds still.
			highDetail := !m.sched.Pending() && !m.eng.Camera().Moving()
			m.frame = m.renderCanvas(highDetail)
			m.ctx.NeedRedraw = false
		}
		m.sched.FireEvents()
		return m, m.tick()

	case dirChangedMsg:
		m.eng.QueueRebuild(fstree.NodeID(msg))
		m.ctx.RequestRedraw()
		return m, m.waitForChange()
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cam := m.eng.Camera()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "1":
		return m, m.switchMode(layout.ModeDisc)
	case "2":
		return m, m.switchMode(layout.ModeMap)
	case "3":
		return m, m.switchMode(layout.ModeTree)

	case "up", "k":
		if p := m.tree.Node(m.ctx.Current).Parent; p != m.tree.MetaRoot() && p != fstree.InvalidID {
			cam.LookAt(p)
		}
		return m, nil

	case "down", "j":
		cur := m.ctx.Current
		if m.tree.EntryExpanded(cur) {
			if c := m.tree.Node(cur).FirstChild; c != fstree.InvalidID {
				cam.LookAt(c)
			}
		}
		return m, nil

	case "left":
		if s := m.sibling(-1); s != fstree.InvalidID {
			cam.LookAt(s)
		}
		return m, nil

	case "right":
		if s := m.sibling(+1); s != fstree.InvalidID {
			cam.LookAt(s)
		}
		return m, nil

	case "enter":
		cur := m.ctx.Current
		if m.tree.Node(cur).Kind == fstree.KindDirectory {
			if m.tree.EntryExpanded(cur) {
				m.ctrl.Colexp(cur, colexp.CollapseRecursive)
			} else {
				m.ctrl.Colexp(cur, colexp.ExpandAny)
			}
		}
		return m, nil

	case "E":
		m.ctrl.Colexp(m.ctx.Current, colexp.ExpandRecursive)
		return m, nil

	case "C":
		m.ctrl.Colexp(m.ctx.Current, colexp.CollapseRecursive)
		return m, nil

	case "backspace":
		cam.LookAtPrevious()
		return m, nil

	case "r", "home":
		cam.LookAt(m.tree.Root())
		return m, nil

	case "+", "=":
		cam.Dolly(-32.0)
		return m, nil
	case "-":
		cam.Dolly(32.0)
		return m, nil

	case "h":
		cam.Revolve(-10.0, 0.0)
		return m, nil
	case "l":
		cam.Revolve(10.0, 0.0)
		return m, nil
	case "K":
		cam.Revolve(0.0, 5.0)
		return m, nil
	case "J":
		cam.Revolve(0.0, -5.0)
		return m, nil
	}

	return m, nil
}

func (m *Model) switchMode(mode layout.Mode) tea.Cmd {
	if m.ctx.Mode == mode {
		return nil
	}
	cam := m.eng.Camera()
	cam.PanBreak()
	m.eng.Init(mode)
	cam.Init(false)
	m.ctx.RequestRedraw()
	return nil
}

// sibling returns the current node's neighbor in sibling order.
func (m *Model) sibling(delta int) fstree.NodeID {
	cur := m.ctx.Current
	parent := m.tree.Node(cur).Parent
	if parent == fstree.InvalidID {
		return fstree.InvalidID
	}
	sibs := m.tree.Children(parent)
	for i, s := range sibs {
		if s == cur {
			j := i + delta
			if j < 0 || j >= len(sibs) {
				return fstree.InvalidID
			}
			return sibs[j]
		}
	}
	return fstree.InvalidID
}
