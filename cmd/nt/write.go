package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/nodetree/pkg/config"
	"github.com/vanderheijden86/nodetree/pkg/loader"
	"github.com/vanderheijden86/nodetree/pkg/model"
	"github.com/vanderheijden86/nodetree/pkg/store"
	"github.com/vanderheijden86/nodetree/pkg/tree"
)

func newInitCmd(e *env) *cobra.Command {
	var (
		kind        string
		name        string
		noGitignore bool
	)
	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Create a nodetree project",
		Long: `Create .nodetree/config.yaml in DIR (default: --project or the working
directory) and an empty node source.

  --kind sqlite  nodes live in .nodetree/nodes.db (default)
  --kind jsonl   nodes live in nodes.jsonl next to .nodetree/, suitable for
                 version control`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := e.project()
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				dir = "."
			}
			root, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			cfgPath := config.ConfigPath(root)
			if _, err := os.Stat(cfgPath); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Already initialized: %s\n", cfgPath)
				return nil
			}

			cfg := config.DefaultConfig()
			cfg.Name = name
			switch kind {
			case config.SourceSQLite:
			case config.SourceJSONL:
				cfg.Source = config.SourceConfig{Kind: config.SourceJSONL, Path: "nodes.jsonl"}
			default:
				return fmt.Errorf("--kind must be %q or %q", config.SourceSQLite, config.SourceJSONL)
			}
			if err := config.SaveConfig(cfgPath, cfg); err != nil {
				return err
			}

			source := cfg.ResolvedSourcePath(root)
			if err := createSource(cfg.Source.Kind, source); err != nil {
				return err
			}
			if !noGitignore {
				if err := loader.EnsureStateDirInGitignore(root); err != nil {
					e.logger.WithError(err).Warn("could not update .gitignore")
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s (%s source at %s)\n", root, cfg.Source.Kind, source)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", config.SourceSQLite, "Source kind: sqlite or jsonl")
	cmd.Flags().StringVar(&name, "name", "", "Project display name")
	cmd.Flags().BoolVar(&noGitignore, "no-gitignore", false, "Do not add .nodetree/ to .gitignore")
	return cmd
}

// createSource makes an empty source unless one exists already.
func createSource(kind, path string) error {
	if kind == config.SourceSQLite {
		s, err := store.Open(path)
		if err != nil {
			return err
		}
		return s.Close()
	}
	if _, err := os.Stat(path); err == nil || !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return loader.SaveNodesToFile(path, nil)
}

func newImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace every node with the records of a JSONL or JSON file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := readNodesArg(cmd, args[0])
			if err != nil {
				return err
			}
			ws, err := e.openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.Mutate(cmd.Context(), func(s *store.Store) error {
				return s.Import(cmd.Context(), nodes)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d nodes\n", len(nodes))
			return nil
		},
	}
}

func newAddCmd(e *env) *cobra.Command {
	var (
		title    string
		typ      string
		parentID string
		path     string
		index    int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a node",
		Long: `Create a node under --parent (top level when omitted).

--path "A/B" first walks or creates the folders A and B below the parent
and puts the new node inside B. --index places the node among its siblings
(0 is first); the default appends it.

Without --title the title is prompted for when stdin is a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				if !e.stdinIsTerminal() {
					return errors.New("--title is required")
				}
				t, err := e.promptTitle("Title")
				if err != nil {
					return err
				}
				title = t
			}

			ws, err := e.openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			ctx := cmd.Context()
			var rec model.NodeRecord
			err = ws.Mutate(ctx, func(s *store.Store) error {
				parent := parentID
				if titles := tree.SplitFolderPath(path); len(titles) > 0 {
					p, err := s.EnsureFolderPath(ctx, parent, titles)
					if err != nil {
						return err
					}
					parent = p
				}
				nn := store.NewNode{ParentID: parent, Type: model.NodeType(typ), Title: title}
				if index >= 0 {
					nn.Index = &index
				}
				var err error
				rec, err = s.Insert(ctx, nn)
				return err
			})
			if err != nil {
				return err
			}

			if e.jsonOut() {
				return printJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Node title")
	cmd.Flags().StringVar(&typ, "type", string(model.TypeDocument), "Node type (folder, document, drawing, code, file, ...)")
	cmd.Flags().StringVarP(&parentID, "parent", "p", "", "Parent folder id")
	cmd.Flags().StringVar(&path, "path", "", "Slash separated folder titles below the parent, created as needed")
	cmd.Flags().IntVar(&index, "index", store.AppendIndex, "Position among siblings")
	return cmd
}

func newMoveCmd(e *env) *cobra.Command {
	var (
		to    string
		index int
	)
	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Move a node under another folder or to the top level",
		Long: `Move ID under --to (top level when omitted) at --index (appended when
omitted). Moving a folder into itself or one of its descendants is refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.mutate(cmd, func(ctx context.Context, s *store.Store) (string, error) {
				if err := s.Move(ctx, args[0], to, index); err != nil {
					return "", err
				}
				dest := to
				if dest == "" {
					dest = "top level"
				}
				return fmt.Sprintf("Moved %s to %s", args[0], dest), nil
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Destination folder id (empty for top level)")
	cmd.Flags().IntVar(&index, "index", store.AppendIndex, "Position among the new siblings")
	return cmd
}

func newRenameCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID TITLE...",
		Short: "Change a node's title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args[1:], " ")
			return e.mutate(cmd, func(ctx context.Context, s *store.Store) (string, error) {
				if err := s.Rename(ctx, args[0], title); err != nil {
					return "", err
				}
				return fmt.Sprintf("Renamed %s to %q", args[0], title), nil
			})
		},
	}
}

func newRmCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a node and everything below it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes {
				ok, err := e.confirmDelete(cmd, id)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}
			return e.mutate(cmd, func(ctx context.Context, s *store.Store) (string, error) {
				removed, err := s.Delete(ctx, id)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Deleted %d node(s)", len(removed)), nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// confirmDelete asks before deleting id and its subtree. Without a terminal
// it refuses, since nobody can answer.
func (e *env) confirmDelete(cmd *cobra.Command, id string) (bool, error) {
	var question string
	err := e.withNodes(cmd, func(_ *workspace, nodes []model.NodeRecord) error {
		rec, ok := findRecord(nodes, id)
		if !ok {
			return fmt.Errorf("%w: %s", store.ErrNodeNotFound, id)
		}
		question = fmt.Sprintf("Delete %q", rec.Title)
		if n := len(tree.GetDescendants(nodes, id)); n > 0 {
			question += fmt.Sprintf(" and %d node(s) below it", n)
		}
		question += "?"
		return nil
	})
	if err != nil {
		return false, err
	}
	if !e.stdinIsTerminal() {
		return false, errors.New("refusing to delete without --yes when stdin is not a terminal")
	}
	return e.confirm(question)
}

// mutate opens the workspace, runs fn against its store and prints the
// returned message.
func (e *env) mutate(cmd *cobra.Command, fn func(ctx context.Context, s *store.Store) (string, error)) error {
	ws, err := e.openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	var msg string
	if err := ws.Mutate(cmd.Context(), func(s *store.Store) error {
		var err error
		msg, err = fn(cmd.Context(), s)
		return err
	}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
