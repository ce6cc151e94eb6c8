// Package tui renders the animated tree in the terminal: the engine's
// draw list is projected top-down onto a character grid every frame.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fsviz/fsviz/internal/anim"
	"github.com/fsviz/fsviz/internal/colexp"
	"github.com/fsviz/fsviz/internal/entry"
	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/layout"
)

// Model holds the TUI state.
type Model struct {
	tree  *fstree.Tree
	ctx   *layout.Context
	sched *anim.Scheduler
	eng   *layout.Engine
	ctrl  *colexp.Controller
	meta  *entry.ScanMeta

	fps   int
	start time.Time

	width  int
	height int

	// frame is the last rendered canvas, reused until the scene changes.
	frame string

	// changes carries stale directories from the filesystem watcher.
	changes <-chan fstree.NodeID

	showHelp bool
}

// NewModel creates a viewer over an already scanned tree.
func NewModel(tree *fstree.Tree, mode layout.Mode, fps int, meta *entry.ScanMeta) *Model {
	ctx := layout.NewContext(tree)
	sched := anim.NewScheduler(ctx.RequestRedraw)
	eng := layout.NewEngine(ctx, sched)
	eng.Init(mode)
	eng.Camera().Init(true)
	return &Model{
		tree:  tree,
		ctx:   ctx,
		sched: sched,
		eng:   eng,
		ctrl:  colexp.NewController(eng, sched),
		meta:  meta,
		fps:   fps,
		start: time.Now(),
	}
}

// SetChangeChannel wires in a stream of stale directories; their geometry
// is rebuilt as events arrive.
func (m *Model) SetChangeChannel(ch <-chan fstree.NodeID) {
	m.changes = ch
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick()}
	if m.changes != nil {
		cmds = append(cmds, m.waitForChange())
	}
	return tea.Batch(cmds...)
}

type tickMsg time.Time

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type dirChangedMsg fstree.NodeID

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		id, ok := <-m.changes
		if !ok {
			return nil
		}
		return dirChangedMsg(id)
	}
}

// clock returns the animation time in seconds.
func (m *Model) clock() float64 {
	return time.Since(m.start).Seconds()
}

func (m *Model) helpLine() string {
	if m.showHelp {
		return "arrows: navigate | enter: open/close | E: expand all | " +
			"backspace: back | r: root | 1/2/3: disc/map/tree | +/-: zoom | h/l: orbit | q: quit"
	}
	return "?: help | q: quit"
}
