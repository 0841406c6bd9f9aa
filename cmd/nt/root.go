package main

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// env carries the resolved global options into every subcommand.
type env struct {
	v      *viper.Viper
	logger *logrus.Logger

	// stdinIsTerminal reports whether interactive prompts may be shown.
	stdinIsTerminal func() bool
	promptTitle     func(label string) (string, error)
	confirm         func(question string) (bool, error)
}

func (e *env) project() string { return e.v.GetString("project") }
func (e *env) source() string  { return e.v.GetString("source") }
func (e *env) jsonOut() bool   { return e.v.GetBool("json") }

// machineOutput reports whether w should get JSON: always with --json, and
// by default when w is a file that is not a terminal (a pipe or redirect).
func (e *env) machineOutput(w io.Writer) bool {
	if e.jsonOut() {
		return true
	}
	if f, ok := w.(*os.File); ok {
		return !term.IsTerminal(int(f.Fd()))
	}
	return false
}

func newEnv() *env {
	return &env{
		v:      viper.New(),
		logger: logrus.New(),
		stdinIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
		promptTitle: huhTitle,
		confirm:     huhConfirm,
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "nt",
		Short: "Browse and edit a tree of folders and documents",
		Long: `nt manages a nodetree project: a hierarchy of folders and leaf nodes
stored in .nodetree/nodes.db (SQLite) or a JSONL snapshot file.

Run "nt init" to create a project, "nt tui" to browse it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			e.logger.SetOutput(cmd.ErrOrStderr())
			e.logger.SetLevel(logrus.WarnLevel)
			if e.v.GetBool("verbose") {
				e.logger.SetLevel(logrus.DebugLevel)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("project", "C", "", "Project directory (default: search upward from the working directory)")
	flags.String("source", "", "Node source file; .jsonl/.json is read as a snapshot, anything else as SQLite")
	flags.Bool("json", false, "Print machine readable JSON")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	for _, name := range []string{"project", "source", "json", "verbose"} {
		_ = e.v.BindPFlag(name, flags.Lookup(name))
	}
	e.v.SetEnvPrefix("NODETREE")
	e.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	e.v.AutomaticEnv()

	root.AddCommand(
		newInitCmd(e),
		newImportCmd(e),
		newExportCmd(e),
		newTreeCmd(e),
		newFlatCmd(e),
		newPathCmd(e),
		newAddCmd(e),
		newMoveCmd(e),
		newRenameCmd(e),
		newRmCmd(e),
		newCheckCmd(e),
		newTUICmd(e),
	)
	return root
}
