// Package scan walks a directory tree concurrently and assembles the
// result into a node arena.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsviz/fsviz/internal/entry"
	"github.com/fsviz/fsviz/internal/fstree"
)

// Scanner coordinates the filesystem scan. Workers read directories in
// parallel; the tree itself is assembled single-threaded afterwards so
// sibling order is deterministic regardless of worker scheduling.
type Scanner struct {
	opts    *Options
	root    string
	rootDev uint64

	dirQueue chan dirWork
	inFlight int64

	mu       sync.Mutex
	listings map[string][]childEnt
	errors   []entry.ScanError

	dirsRead  int64
	filesSeen int64
	errCount  int64

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Result is a completed scan.
type Result struct {
	Tree   *fstree.Tree
	Errors []entry.ScanError
	Meta   entry.ScanMeta
}

// Progress is a point-in-time snapshot of a running scan.
type Progress struct {
	Dirs   int64
	Files  int64
	Errors int64
}

type dirWork struct {
	path  string
	depth int
}

// childEnt is one directory listing entry as read by a worker.
type childEnt struct {
	name   string
	kind   fstree.Kind
	size   int64
	blocks int64
}

// NewScanner creates a scanner with the given options.
func NewScanner(opts *Options) *Scanner {
	if opts == nil {
		opts = DefaultOptions()
	}
	queueSize := opts.Workers * 1024
	if queueSize < 4096 {
		queueSize = 4096
	}
	return &Scanner{
		opts:     opts,
		dirQueue: make(chan dirWork, queueSize),
		listings: make(map[string][]childEnt, 1024),
	}
}

// Scan walks the tree rooted at root and returns the assembled arena.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	rootInfo, err := os.Lstat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}
	s.root = abs

	rootBlocks := int64(0)
	if stat, ok := rootInfo.Sys().(*syscall.Stat_t); ok {
		s.rootDev = uint64(stat.Dev)
		rootBlocks = stat.Blocks * 512
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startTime := time.Now()

	for i := 0; i < s.opts.Workers; i++ {
		w := &worker{s: s}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			w.run(ctx)
		}()
	}

	// Seed the queue with the root directory.
	atomic.AddInt64(&s.inFlight, 1)
	select {
	case s.dirQueue <- dirWork{path: abs, depth: 0}:
	case <-ctx.Done():
		atomic.AddInt64(&s.inFlight, -1)
	}

	go s.monitorCompletion(ctx)

	s.wg.Wait()
	s.closeDirQueue()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	tree := fstree.New()
	tree.RootPath = abs
	rootID := tree.AddChild(tree.MetaRoot(), filepath.Base(abs),
		fstree.KindDirectory, rootInfo.Size(), rootBlocks)
	s.attach(tree, rootID, abs)
	tree.EntryExpand(rootID)
	tree.Aggregate()

	d := tree.Dir(rootID)
	return &Result{
		Tree:   tree,
		Errors: s.errors,
		Meta: entry.ScanMeta{
			RootPath:    abs,
			StartTime:   startTime,
			EndTime:     time.Now(),
			TotalSize:   d.SubtreeSize,
			TotalBlocks: d.SubtreeBlocks,
			FileCount:   d.Counts[fstree.KindRegularFile],
			DirCount:    d.Counts[fstree.KindDirectory] + 1,
			ErrorCount:  atomic.LoadInt64(&s.errCount),
		},
	}, nil
}

// Progress returns current scan counters, safe for concurrent access.
func (s *Scanner) Progress() Progress {
	return Progress{
		Dirs:   atomic.LoadInt64(&s.dirsRead),
		Files:  atomic.LoadInt64(&s.filesSeen),
		Errors: atomic.LoadInt64(&s.errCount),
	}
}

// attach builds the subtree for path under id from the collected listings,
// directories ahead of leaves and each group sorted by name. The layout
// engines depend on that ordering.
func (s *Scanner) attach(t *fstree.Tree, id fstree.NodeID, path string) {
	children := s.listings[path]
	sort.SliceStable(children, func(i, j int) bool {
		di := children[i].kind == fstree.KindDirectory
		dj := children[j].kind == fstree.KindDirectory
		if di != dj {
			return di
		}
		return children[i].name < children[j].name
	})
	for _, c := range children {
		cid := t.AddChild(id, c.name, c.kind, c.size, c.blocks)
		if c.kind == fstree.KindDirectory {
			s.attach(t, cid, filepath.Join(path, c.name))
		}
	}
}

func (s *Scanner) storeListing(path string, children []childEnt) {
	s.mu.Lock()
	s.listings[path] = children
	s.mu.Unlock()
}

func (s *Scanner) recordError(path string, err error) {
	atomic.AddInt64(&s.errCount, 1)
	s.mu.Lock()
	if s.opts.MaxErrors == 0 || len(s.errors) < s.opts.MaxErrors {
		s.errors = append(s.errors, entry.ScanError{
			Path:    path,
			Message: err.Error(),
		})
	}
	s.mu.Unlock()
}

func (s *Scanner) monitorCompletion(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeDirQueue()
			return
		case <-ticker.C:
			if atomic.LoadInt64(&s.inFlight) == 0 {
				s.closeDirQueue()
				return
			}
		}
	}
}

func (s *Scanner) closeDirQueue() {
	s.closeOnce.Do(func() {
		close(s.dirQueue)
	})
}
