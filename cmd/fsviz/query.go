package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fsviz/fsviz/internal/db"
	"github.com/fsviz/fsviz/internal/fstree"

	_ "modernc.org/sqlite"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query a snapshot non-interactively",
	Long:  `List the contents of a directory in a snapshot for scripting.`,
	RunE:  runQuery,
}

var (
	queryDB    string
	queryPath  string
	querySort  string
	queryLimit int
)

func init() {
	queryCmd.Flags().StringVarP(&queryDB, "db", "d", ".fsviz/latest.db", "Path to snapshot file")
	queryCmd.Flags().StringVarP(&queryPath, "path", "p", "", "Directory path to query (default the scan root)")
	queryCmd.Flags().StringVarP(&querySort, "sort", "s", "size", "Sort by: size, disk, name, files")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 20, "Maximum number of results")
}

// queryRow is one directory entry prepared for output.
type queryRow struct {
	name   string
	kind   fstree.Kind
	size   int64
	blocks int64
	files  int64
	dirs   int64
}

func runQuery(cmd *cobra.Command, args []string) error {
	database, err := sql.Open("sqlite", queryDB)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer database.Close()
	if err := db.ApplyReadPragmas(database); err != nil {
		return fmt.Errorf("failed to apply pragmas: %w", err)
	}

	tree, err := db.LoadTree(database)
	if err != nil {
		return err
	}

	dir, err := resolvePath(tree, queryPath)
	if err != nil {
		return err
	}
	if !tree.Node(dir).IsDir() {
		return fmt.Errorf("%s is not a directory", tree.Path(dir))
	}

	rows := make([]queryRow, 0, len(tree.Children(dir)))
	for _, id := range tree.Children(dir) {
		n := tree.Node(id)
		row := queryRow{name: n.Name, kind: n.Kind, size: n.Size, blocks: n.Blocks}
		if d := n.Dir; d != nil {
			row.size = d.SubtreeSize
			row.blocks = d.SubtreeBlocks
			row.files = d.Counts[fstree.KindRegularFile]
			row.dirs = d.Counts[fstree.KindDirectory]
		}
		rows = append(rows, row)
	}

	switch querySort {
	case "size":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].size > rows[j].size })
	case "disk":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].blocks > rows[j].blocks })
	case "files":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].files > rows[j].files })
	case "name":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].name < rows[j].name })
	default:
		return fmt.Errorf("unknown sort key %q", querySort)
	}
	if queryLimit > 0 && len(rows) > queryLimit {
		rows = rows[:queryLimit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "APPARENT\tDISK\tFILES\tDIRS\tTYPE\tNAME\n")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			humanize.Bytes(uint64(row.size)),
			humanize.Bytes(uint64(row.blocks)),
			humanize.Comma(row.files),
			humanize.Comma(row.dirs),
			row.kind,
			row.name,
		)
	}
	w.Flush()

	return nil
}

// resolvePath walks the loaded tree to the node for path. An empty path
// or the scan root itself resolves to the root node; other paths may be
// absolute or relative to the scan root.
func resolvePath(t *fstree.Tree, path string) (fstree.NodeID, error) {
	if path == "" {
		return t.Root(), nil
	}
	rel := path
	if filepath.IsAbs(path) {
		var err error
		rel, err = filepath.Rel(t.RootPath, path)
		if err != nil {
			return fstree.InvalidID, fmt.Errorf("path %s is outside the scan root %s", path, t.RootPath)
		}
	}
	rel = filepath.Clean(rel)
	if rel == "." {
		return t.Root(), nil
	}
	if strings.HasPrefix(rel, "..") {
		return fstree.InvalidID, fmt.Errorf("path %s is outside the scan root %s", path, t.RootPath)
	}

	id := t.Root()
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		found := fstree.InvalidID
		for _, child := range t.Children(id) {
			if t.Node(child).Name == part {
				found = child
				break
			}
		}
		if found == fstree.InvalidID {
			return fstree.InvalidID, fmt.Errorf("path not found in snapshot: %s", path)
		}
		id = found
	}
	return id, nil
}
