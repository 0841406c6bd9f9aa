package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/nodetree/pkg/analysis"
	"github.com/vanderheijden86/nodetree/pkg/loader"
	"github.com/vanderheijden86/nodetree/pkg/model"
	"github.com/vanderheijden86/nodetree/pkg/store"
	"github.com/vanderheijden86/nodetree/pkg/tree"
)

// errIntegrity is returned by `nt check` when the report is not clean.
var errIntegrity = errors.New("integrity check failed")

// withNodes opens the workspace, reads the snapshot and hands it to fn.
func (e *env) withNodes(cmd *cobra.Command, fn func(ws *workspace, nodes []model.NodeRecord) error) error {
	ws, err := e.openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	nodes, err := ws.Nodes(cmd.Context())
	if err != nil {
		return err
	}
	return fn(ws, nodes)
}

func newTreeCmd(e *env) *cobra.Command {
	var showIDs bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the whole hierarchy",
		Long: `Print every node reachable from a root, children in sibling order.

Output is JSON with --json or when stdout is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withNodes(cmd, func(_ *workspace, nodes []model.NodeRecord) error {
				roots := tree.BuildTree(nodes)
				out := cmd.OutOrStdout()
				if e.machineOutput(out) {
					return printJSON(out, roots)
				}
				if len(roots) == 0 {
					fmt.Fprintln(out, "(empty)")
					return nil
				}
				writeTree(out, roots, showIDs)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show node ids")
	return cmd
}

func newFlatCmd(e *env) *cobra.Command {
	var (
		expandAll   bool
		collapseAll bool
		reveal      string
		showIDs     bool
	)
	cmd := &cobra.Command{
		Use:   "flat",
		Short: "Print the visible rows of the list view",
		Long: `Print the rows a list view would render. Folders start open or closed
according to their stored collapsed flag.

  --expand-all    open every folder
  --collapse-all  close every folder
  --reveal ID     additionally open the folders above ID`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if expandAll && collapseAll {
				return errors.New("--expand-all and --collapse-all are mutually exclusive")
			}
			return e.withNodes(cmd, func(_ *workspace, nodes []model.NodeRecord) error {
				var expanded tree.ExpandMap
				switch {
				case expandAll:
					expanded = tree.CalculateExpandAllFolders(nodes)
				case collapseAll:
					expanded = tree.CalculateCollapseAllFolders(nodes)
				default:
					expanded = tree.InitializeExpandedFolders(nodes)
				}
				if reveal != "" {
					expanded = tree.MergeExpandedFoldersForNode(expanded, nodes, reveal)
				}

				rows := tree.FlattenTree(nodes, expanded)
				out := cmd.OutOrStdout()
				if e.jsonOut() {
					return printJSON(out, rows)
				}
				writeRows(out, rows, showIDs)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "Open every folder")
	cmd.Flags().BoolVar(&collapseAll, "collapse-all", false, "Close every folder")
	cmd.Flags().StringVar(&reveal, "reveal", "", "Open the folders above this node id")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show node ids")
	return cmd
}

func findRecord(nodes []model.NodeRecord, id string) (model.NodeRecord, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return model.NodeRecord{}, false
}

// pathEntry is one step of `nt path --json`.
type pathEntry struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Type  model.NodeType `json:"type"`
}

func newPathCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path ID",
		Short: "Print the titles from the root down to a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return e.withNodes(cmd, func(_ *workspace, nodes []model.NodeRecord) error {
				chain := tree.GetNodePath(nodes, id)
				if chain == nil {
					if _, ok := findRecord(nodes, id); !ok {
						return fmt.Errorf("%w: %s", store.ErrNodeNotFound, id)
					}
					return fmt.Errorf("parent chain of %s loops", id)
				}

				out := cmd.OutOrStdout()
				if e.jsonOut() {
					entries := make([]pathEntry, 0, len(chain))
					for _, n := range chain {
						entries = append(entries, pathEntry{ID: n.ID, Title: n.Title, Type: n.Type})
					}
					return printJSON(out, entries)
				}
				titles := make([]string, 0, len(chain))
				for _, n := range chain {
					titles = append(titles, n.Title)
				}
				fmt.Fprintln(out, strings.Join(titles, " / "))
				return nil
			})
		},
	}
	return cmd
}

func newCheckCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report orphans, cycles and other structural damage",
		Long: `Check the snapshot for orphans, self-parented nodes, parent cycles,
non-folder parents and duplicate ids. Exits with status 2 when problems
are found. Sibling order ties are listed but do not fail the check.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withNodes(cmd, func(_ *workspace, nodes []model.NodeRecord) error {
				report := analysis.CheckIntegrity(nodes)
				out := cmd.OutOrStdout()
				if e.jsonOut() {
					if err := printJSON(out, report); err != nil {
						return err
					}
				} else {
					writeReport(out, report)
				}
				if !report.OK() {
					return errIntegrity
				}
				return nil
			})
		},
	}
}

func writeReport(w io.Writer, r analysis.Report) {
	fmt.Fprintf(w, "%d nodes, %d reachable from a root\n", r.Total, r.Reachable)
	list := func(label string, ids []string) {
		if len(ids) > 0 {
			fmt.Fprintf(w, "%s: %s\n", label, strings.Join(ids, ", "))
		}
	}
	list("orphans", r.Orphans)
	list("self-parented", r.SelfParented)
	for _, c := range r.Cycles {
		fmt.Fprintf(w, "cycle: %s\n", strings.Join(c, " -> "))
	}
	list("non-folder parents", r.LeafParents)
	list("duplicate ids", r.DuplicateIDs)
	list("unreachable", r.Unreachable)
	for _, tie := range r.OrderTies {
		fmt.Fprintf(w, "order tie under %q at %g: %s\n", tie.ParentID, tie.Order, strings.Join(tie.IDs, ", "))
	}
	for _, fix := range r.Repairs {
		fmt.Fprintf(w, "  fix %s: %s\n", fix.NodeID, fix.Rationale)
	}
	if r.OK() {
		fmt.Fprintln(w, "ok")
	} else {
		fmt.Fprintf(w, "%d problem(s)\n", r.ProblemCount())
	}
}

func newExportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the snapshot as JSONL (stdout when FILE is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withNodes(cmd, func(_ *workspace, nodes []model.NodeRecord) error {
				if len(args) == 0 || args[0] == "-" {
					return loader.WriteNodesJSONL(cmd.OutOrStdout(), nodes)
				}
				if err := loader.SaveNodesToFile(args[0], nodes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d nodes to %s\n", len(nodes), args[0])
				return nil
			})
		},
	}
}

// readNodesArg loads a snapshot file, "-" meaning stdin.
func readNodesArg(cmd *cobra.Command, path string) ([]model.NodeRecord, error) {
	if path == "-" {
		return loader.LoadNodes(cmd.InOrStdin())
	}
	return loader.LoadNodesFromFile(path)
}
