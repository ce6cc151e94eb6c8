package scan

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/fsviz/fsviz/internal/fstree"
)

// worker drains the directory queue, reading one directory per work item.
// When the shared queue fills up it falls back to a local stack so the
// pool can never deadlock on its own output.
type worker struct {
	s     *Scanner
	stack []dirWork
}

func (w *worker) run(ctx context.Context) {
	for {
		if len(w.stack) > 0 {
			work := w.stack[len(w.stack)-1]
			w.stack = w.stack[:len(w.stack)-1]
			w.process(ctx, work)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case work, ok := <-w.s.dirQueue:
			if !ok {
				return
			}
			w.process(ctx, work)
		}
	}
}

func (w *worker) process(ctx context.Context, work dirWork) {
	w.readDir(ctx, work)
	atomic.AddInt64(&w.s.inFlight, -1)
}

func (w *worker) readDir(ctx context.Context, work dirWork) {
	if ctx.Err() != nil {
		return
	}

	ents, err := os.ReadDir(work.path)
	if err != nil {
		w.s.recordError(work.path, err)
		return
	}

	children := make([]childEnt, 0, len(ents))
	for i, de := range ents {
		// Check for cancellation every 100 entries
		if i%100 == 0 && ctx.Err() != nil {
			return
		}

		childPath := filepath.Join(work.path, de.Name())
		if w.s.opts.ShouldExclude(childPath) {
			continue
		}

		// Always use Lstat to avoid following symlinks
		info, err := os.Lstat(childPath)
		if err != nil {
			w.s.recordError(childPath, err)
			continue
		}

		var devID uint64
		var blocks int64
		if stat, ok := info.Sys().(*syscall.Stat_t); ok {
			devID = uint64(stat.Dev)
			blocks = stat.Blocks * 512 // st_blocks is in 512-byte units
		}

		if w.s.opts.Xdev && devID != 0 && devID != w.s.rootDev {
			continue
		}

		kind := fstree.KindFromMode(info.Mode())
		children = append(children, childEnt{
			name:   de.Name(),
			kind:   kind,
			size:   info.Size(),
			blocks: blocks,
		})

		if kind == fstree.KindDirectory {
			w.enqueueOrStack(ctx, dirWork{path: childPath, depth: work.depth + 1})
			if ctx.Err() != nil {
				return
			}
		} else {
			atomic.AddInt64(&w.s.filesSeen, 1)
		}
	}

	w.s.storeListing(work.path, children)
	atomic.AddInt64(&w.s.dirsRead, 1)
}

func (w *worker) enqueueOrStack(ctx context.Context, work dirWork) {
	if ctx.Err() != nil {
		return
	}
	atomic.AddInt64(&w.s.inFlight, 1)
	select {
	case w.s.dirQueue <- work:
	default:
		// Queue full: keep the work local to avoid deadlock
		w.stack = append(w.stack, work)
	}
}
