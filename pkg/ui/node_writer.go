package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/nodetree/pkg/model"
	"github.com/vanderheijden86/nodetree/pkg/store"
	"github.com/vanderheijden86/nodetree/pkg/tree"
)

// WriteOperation identifies the mutation behind a WriteResultMsg.
type WriteOperation int

const (
	WriteOpInsert WriteOperation = iota
	WriteOpMove
	WriteOpRename
	WriteOpDelete
	WriteOpSyncExpanded
)

func (op WriteOperation) String() string {
	switch op {
	case WriteOpInsert:
		return "insert"
	case WriteOpMove:
		return "move"
	case WriteOpRename:
		return "rename"
	case WriteOpDelete:
		return "delete"
	case WriteOpSyncExpanded:
		return "sync expanded"
	}
	return "unknown"
}

// WriteResultMsg is returned after a store mutation completes.
type WriteResultMsg struct {
	Operation WriteOperation
	NodeID    string
	Success   bool
	Error     error
	// Removed lists deleted ids for WriteOpDelete.
	Removed []string
	// Written counts updated rows for WriteOpSyncExpanded.
	Written int
}

// ErrReadOnlySource is reported when the snapshot comes from a file and
// there is no store to write to.
var ErrReadOnlySource = errors.New("snapshot source is read-only; use an sqlite source to edit nodes")

const writeTimeout = 5 * time.Second

// NodeWriter runs store mutations as tea commands.
type NodeWriter struct {
	store *store.Store
}

// NewNodeWriter wraps s. A nil store yields a writer whose commands all
// fail with ErrReadOnlySource.
func NewNodeWriter(s *store.Store) *NodeWriter {
	return &NodeWriter{store: s}
}

// IsAvailable reports whether there is a store behind the writer.
func (w *NodeWriter) IsAvailable() bool {
	return w != nil && w.store != nil
}

// Insert creates a node.
func (w *NodeWriter) Insert(nn store.NewNode) tea.Cmd {
	return w.run(WriteOpInsert, nn.ID, func(ctx context.Context, msg *WriteResultMsg) error {
		rec, err := w.store.Insert(ctx, nn)
		msg.NodeID = rec.ID
		return err
	})
}

// CreateFolder appends a folder under parentID.
func (w *NodeWriter) CreateFolder(parentID, title string) tea.Cmd {
	return w.Insert(store.NewNode{ParentID: parentID, Type: model.TypeFolder, Title: title})
}

// Move reparents id at index (store.AppendIndex for the end).
func (w *NodeWriter) Move(id, newParentID string, index int) tea.Cmd {
	return w.run(WriteOpMove, id, func(ctx context.Context, _ *WriteResultMsg) error {
		return w.store.Move(ctx, id, newParentID, index)
	})
}

// Rename sets the title of id.
func (w *NodeWriter) Rename(id, title string) tea.Cmd {
	return w.run(WriteOpRename, id, func(ctx context.Context, _ *WriteResultMsg) error {
		return w.store.Rename(ctx, id, title)
	})
}

// Delete removes id and its subtree.
func (w *NodeWriter) Delete(id string) tea.Cmd {
	return w.run(WriteOpDelete, id, func(ctx context.Context, msg *WriteResultMsg) error {
		removed, err := w.store.Delete(ctx, id)
		msg.Removed = removed
		return err
	})
}

// SyncExpanded persists an expand map as collapsed flags.
func (w *NodeWriter) SyncExpanded(expanded tree.ExpandMap) tea.Cmd {
	expanded = expanded.Clone()
	return w.run(WriteOpSyncExpanded, "", func(ctx context.Context, msg *WriteResultMsg) error {
		n, err := w.store.SyncExpanded(ctx, expanded)
		msg.Written = n
		return err
	})
}

// run executes fn on the command goroutine and packs the outcome.
func (w *NodeWriter) run(op WriteOperation, id string, fn func(ctx context.Context, msg *WriteResultMsg) error) tea.Cmd {
	if !w.IsAvailable() {
		return func() tea.Msg {
			return WriteResultMsg{Operation: op, NodeID: id, Error: ErrReadOnlySource}
		}
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		msg := WriteResultMsg{Operation: op, NodeID: id}
		if err := fn(ctx, &msg); err != nil {
			msg.Error = err
			return msg
		}
		msg.Success = true
		return msg
	}
}
