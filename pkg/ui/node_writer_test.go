package ui

import (
	"context"
	"errors"
	"testing"

	"github.com/vanderheijden86/nodetree/pkg/model"
	"github.com/vanderheijden86/nodetree/pkg/store"
	"github.com/vanderheijden86/nodetree/pkg/tree"
)

func newWriterStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Import(context.Background(), sampleNodes()); err != nil {
		t.Fatalf("Import: %v", err)
	}
	return s
}

func TestNodeWriter_Unavailable(t *testing.T) {
	w := NewNodeWriter(nil)
	if w.IsAvailable() {
		t.Fatal("writer without store should be unavailable")
	}

	msg := w.Rename("x", "y")().(WriteResultMsg)
	if msg.Success || !errors.Is(msg.Error, ErrReadOnlySource) {
		t.Errorf("expected read-only error, got %+v", msg)
	}
	if msg.Operation != WriteOpRename || msg.NodeID != "x" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestNodeWriter_CreateFolder(t *testing.T) {
	s := newWriterStore(t)
	w := NewNodeWriter(s)

	msg := w.CreateFolder("inbox", "Later")().(WriteResultMsg)
	if !msg.Success || msg.NodeID == "" {
		t.Fatalf("CreateFolder failed: %+v", msg)
	}

	nodes, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	children := tree.GetChildNodes(nodes, "inbox")
	if len(children) != 2 || children[1].ID != msg.NodeID || children[1].Type != model.TypeFolder {
		t.Errorf("new folder should be appended under inbox: %+v", children)
	}
}

func TestNodeWriter_MoveRejectsCycle(t *testing.T) {
	w := NewNodeWriter(newWriterStore(t))

	msg := w.Move("projects", "alpha", store.AppendIndex)().(WriteResultMsg)
	if msg.Success || !errors.Is(msg.Error, store.ErrCycle) {
		t.Errorf("expected cycle error, got %+v", msg)
	}

	msg = w.Move("spec", "inbox", 0)().(WriteResultMsg)
	if !msg.Success {
		t.Errorf("valid move failed: %+v", msg)
	}
}

func TestNodeWriter_RenameAndDelete(t *testing.T) {
	s := newWriterStore(t)
	w := NewNodeWriter(s)

	if msg := w.Rename("readme", "README")().(WriteResultMsg); !msg.Success {
		t.Fatalf("Rename failed: %+v", msg)
	}

	msg := w.Delete("alpha")().(WriteResultMsg)
	if !msg.Success {
		t.Fatalf("Delete failed: %+v", msg)
	}
	if len(msg.Removed) != 2 || msg.Removed[0] != "alpha" || msg.Removed[1] != "spec" {
		t.Errorf("Removed = %v, want [alpha spec]", msg.Removed)
	}

	msg = w.Delete("alpha")().(WriteResultMsg)
	if msg.Success || !errors.Is(msg.Error, store.ErrNodeNotFound) {
		t.Errorf("second delete should report not found, got %+v", msg)
	}
}

func TestNodeWriter_SyncExpanded(t *testing.T) {
	s := newWriterStore(t)
	w := NewNodeWriter(s)

	// inbox opens; projects and alpha match their stored flags.
	expanded := tree.ExpandMap{"projects": true, "inbox": true}
	msg := w.SyncExpanded(expanded)().(WriteResultMsg)
	if !msg.Success || msg.Written != 1 {
		t.Fatalf("SyncExpanded = %+v, want 1 write", msg)
	}

	nodes, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.InitializeExpandedFolders(nodes); !got["inbox"] || !got["projects"] || got["alpha"] {
		t.Errorf("stored flags not updated: %v", got)
	}
}

func TestWriteOperation_String(t *testing.T) {
	if WriteOpMove.String() != "move" || WriteOperation(42).String() != "unknown" {
		t.Error("unexpected operation names")
	}
}
