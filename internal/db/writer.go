package db

import (
	"database/sql"
	"fmt"

	"github.com/fsviz/fsviz/internal/entry"
	"github.com/fsviz/fsviz/internal/fstree"
)

const insertNodeSQL = `INSERT OR REPLACE INTO nodes (id, parent_id, name, kind, size, blocks) VALUES (?, ?, ?, ?, ?, ?)`
const insertErrorSQL = `INSERT INTO scan_errors (path, message) VALUES (?, ?)`
const insertMetaSQL = `
INSERT OR REPLACE INTO scan_meta
    (id, root_path, start_time, end_time, total_size, total_blocks, file_count, dir_count, error_count)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)`

const nodeBatchSize = 10000

// Save writes a scanned tree, its errors, and its metadata to the database.
// The metanode is not persisted; the root directory's parent_id is zero.
func Save(database *sql.DB, t *fstree.Tree, errors []entry.ScanError, meta entry.ScanMeta) error {
	if err := InitSchema(database); err != nil {
		return err
	}
	if err := saveNodes(database, t); err != nil {
		return err
	}
	if err := saveErrors(database, errors); err != nil {
		return err
	}
	return saveMeta(database, meta)
}

func saveNodes(database *sql.DB, t *fstree.Tree) error {
	stmt, err := database.Prepare(insertNodeSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare node statement: %w", err)
	}
	defer stmt.Close()

	n := t.Len()
	for lo := 1; lo < n; lo += nodeBatchSize {
		hi := lo + nodeBatchSize
		if hi > n {
			hi = n
		}
		tx, err := database.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		batchStmt := tx.Stmt(stmt)
		for id := lo; id < hi; id++ {
			node := t.Node(fstree.NodeID(id))
			_, err := batchStmt.Exec(id, int64(node.Parent), node.Name,
				int64(node.Kind), node.Size, node.Blocks)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to insert node %q: %w", node.Name, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
	}
	return nil
}

func saveErrors(database *sql.DB, errors []entry.ScanError) error {
	if len(errors) == 0 {
		return nil
	}
	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin error transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertErrorSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare error statement: %w", err)
	}
	defer stmt.Close()
	for _, e := range errors {
		if _, err := stmt.Exec(e.Path, e.Message); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert error for %q: %w", e.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit error transaction: %w", err)
	}
	return nil
}

func saveMeta(database *sql.DB, m entry.ScanMeta) error {
	_, err := database.Exec(insertMetaSQL,
		m.RootPath, m.StartTime.Unix(), m.EndTime.Unix(),
		m.TotalSize, m.TotalBlocks, m.FileCount, m.DirCount, m.ErrorCount)
	if err != nil {
		return fmt.Errorf("failed to write scan metadata: %w", err)
	}
	return nil
}
