// Package entry defines the row-level records shared by the scanner and
// the snapshot database.
package entry

import (
	"time"

	"github.com/fsviz/fsviz/internal/fstree"
)

// Record is the row form of one tree node, as persisted in a snapshot
// database. IDs are the node's arena ID, so a loaded tree reproduces the
// scanned one exactly.
type Record struct {
	ID       int64
	ParentID int64
	Name     string
	Kind     fstree.Kind
	Size     int64 // Apparent size (st_size)
	Blocks   int64 // Disk usage in bytes (st_blocks * 512)
}

// ScanError represents an error encountered during scanning.
type ScanError struct {
	Path    string
	Message string
}

// ScanMeta holds metadata about a scan.
type ScanMeta struct {
	RootPath    string
	StartTime   time.Time
	EndTime     time.Time
	TotalSize   int64 // Apparent size
	TotalBlocks int64 // Disk usage
	FileCount   int64
	DirCount    int64
	ErrorCount  int64
}
