package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fsviz/fsviz/internal/entry"
	"github.com/fsviz/fsviz/internal/fstree"
)

// LoadTree reconstructs the node arena from a snapshot database. Rows come
// back in id order, which is the order AddChild originally assigned, so
// appending them one by one rebuilds the exact sibling ordering.
func LoadTree(database *sql.DB) (*fstree.Tree, error) {
	meta, err := LoadMeta(database)
	if err != nil {
		return nil, err
	}

	rows, err := database.Query(
		`SELECT id, parent_id, name, kind, size, blocks FROM nodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("node query failed: %w", err)
	}
	defer rows.Close()

	t := fstree.New()
	t.RootPath = meta.RootPath
	for rows.Next() {
		var r entry.Record
		var kind int64
		if err := rows.Scan(&r.ID, &r.ParentID, &r.Name, &kind, &r.Size, &r.Blocks); err != nil {
			return nil, fmt.Errorf("node scan failed: %w", err)
		}
		id := t.AddChild(fstree.NodeID(r.ParentID), r.Name, fstree.Kind(kind), r.Size, r.Blocks)
		if int64(id) != r.ID {
			return nil, fmt.Errorf("snapshot has non-contiguous node ids: got %d, want %d", r.ID, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if t.Root() == fstree.InvalidID {
		return nil, fmt.Errorf("snapshot contains no nodes")
	}

	t.EntryExpand(t.Root())
	t.Aggregate()
	return t, nil
}

// LoadMeta retrieves scan metadata.
func LoadMeta(database *sql.DB) (*entry.ScanMeta, error) {
	var m entry.ScanMeta
	var startTime, endTime int64

	err := database.QueryRow(`
		SELECT root_path, start_time, COALESCE(end_time, 0), total_size, total_blocks, file_count, dir_count, error_count
		FROM scan_meta WHERE id = 1
	`).Scan(&m.RootPath, &startTime, &endTime, &m.TotalSize, &m.TotalBlocks,
		&m.FileCount, &m.DirCount, &m.ErrorCount)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan metadata: %w", err)
	}

	m.StartTime = time.Unix(startTime, 0)
	if endTime > 0 {
		m.EndTime = time.Unix(endTime, 0)
	}
	return &m, nil
}

// LoadErrors retrieves the recorded scan errors.
func LoadErrors(database *sql.DB) ([]entry.ScanError, error) {
	rows, err := database.Query(`SELECT path, message FROM scan_errors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error query failed: %w", err)
	}
	defer rows.Close()

	var out []entry.ScanError
	for rows.Next() {
		var e entry.ScanError
		if err := rows.Scan(&e.Path, &e.Message); err != nil {
			return nil, fmt.Errorf("error scan failed: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
