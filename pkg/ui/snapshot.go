package ui

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/nodetree/pkg/analysis"
	"github.com/vanderheijden86/nodetree/pkg/loader"
	"github.com/vanderheijden86/nodetree/pkg/model"
	"github.com/vanderheijden86/nodetree/pkg/tree"
)

// SnapshotSource yields the current flat node snapshot. *store.Store
// satisfies it directly; FileSource covers JSONL and JSON files.
type SnapshotSource interface {
	Snapshot(ctx context.Context) ([]model.NodeRecord, error)
}

// FileSource reads a snapshot file on every call.
type FileSource string

// Snapshot loads the file.
func (f FileSource) Snapshot(ctx context.Context) ([]model.NodeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loader.LoadNodesFromFile(string(f))
}

// DataSnapshot is an immutable view of one load: the records plus
// everything derived from them that the UI needs.
type DataSnapshot struct {
	Nodes    []model.NodeRecord
	Roots    []*tree.TreeNode
	Report   analysis.Report
	DataHash string
	BuiltAt  time.Time
}

// NewDataSnapshot derives the hierarchy and integrity report concurrently.
func NewDataSnapshot(ctx context.Context, nodes []model.NodeRecord) (*DataSnapshot, error) {
	snap := &DataSnapshot{
		Nodes:    nodes,
		DataHash: analysis.ComputeDataHash(nodes),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Roots = tree.BuildTree(nodes)
		return gctx.Err()
	})
	g.Go(func() error {
		snap.Report = analysis.CheckIntegrity(nodes)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.BuiltAt = time.Now()
	return snap, nil
}

// NodeCount returns the number of records in the snapshot.
func (s *DataSnapshot) NodeCount() int {
	if s == nil {
		return 0
	}
	return len(s.Nodes)
}
