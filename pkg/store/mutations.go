package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"go.trai.ch/zerr"

	"github.com/vanderheijden86/nodetree/pkg/model"
	"github.com/vanderheijden86/nodetree/pkg/tree"
)

// AppendIndex places a node after all of its new siblings.
const AppendIndex = -1

// NewNode describes a node to insert.
type NewNode struct {
	ID       string // Generated when empty
	ParentID string // "" for a root node
	Type     model.NodeType
	Title    string
	Index    *int // Position among siblings; nil appends
}

// Insert adds a node. With an Index the destination siblings are renumbered
// together with the new node; without one the node is appended.
func (s *Store) Insert(ctx context.Context, nn NewNode) (model.NodeRecord, error) {
	rec := model.NodeRecord{
		ID:       nn.ID,
		ParentID: nn.ParentID,
		Type:     nn.Type,
		Title:    strings.TrimSpace(nn.Title),
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := rec.Validate(); err != nil {
		return model.NodeRecord{}, zerr.With(zerr.Wrap(ErrInvalidNode, err.Error()), "node_id", rec.ID)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		nodes, err := readSnapshot(ctx, tx)
		if err != nil {
			return err
		}
		if existing := findNode(nodes, rec.ID); existing != nil {
			return zerr.With(zerr.Wrap(ErrInvalidNode, "duplicate id"), "node_id", rec.ID)
		}
		if err := checkParent(nodes, rec.ParentID); err != nil {
			return err
		}

		if nn.Index == nil {
			rec.Order = tree.GetNextOrder(nodes, rec.ParentID)
		} else {
			plan := tree.CalculateReorderAfterInsert(tree.GetChildNodes(nodes, rec.ParentID), *nn.Index)
			if err := applyPlan(ctx, tx, plan); err != nil {
				return err
			}
			rec.Order = plan.InsertOrder
		}
		return insertRecord(ctx, tx, rec)
	})
	if err != nil {
		return model.NodeRecord{}, err
	}
	return rec, nil
}

// Move reparents id under newParentID ("" for root) at position index, or at
// the end with AppendIndex. The cycle check runs before anything is written.
// Both the destination and the source sibling sets are renumbered.
func (s *Store) Move(ctx context.Context, id, newParentID string, index int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		nodes, err := readSnapshot(ctx, tx)
		if err != nil {
			return err
		}
		moving := findNode(nodes, id)
		if moving == nil {
			return notFound("move", id)
		}
		if err := checkParent(nodes, newParentID); err != nil {
			return err
		}
		if tree.WouldCreateCycle(nodes, id, newParentID) {
			return zerr.With(zerr.With(zerr.Wrap(ErrCycle, "move"), "node_id", id), "parent_id", newParentID)
		}

		dest := tree.GetChildNodes(nodes, newParentID)
		if index == AppendIndex {
			index = len(dest)
			for _, d := range dest {
				if d.ID == id {
					index--
				}
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE nodes SET parent_id = ? WHERE id = ?`,
			nullString(newParentID), id); err != nil {
			return zerr.With(zerr.Wrap(err, "update parent"), "node_id", id)
		}
		if err := applyPlan(ctx, tx, tree.CalculateMove(dest, id, index)); err != nil {
			return err
		}

		if moving.ParentID == newParentID {
			return nil
		}
		var remaining []model.NodeRecord
		for _, sib := range tree.GetChildNodes(nodes, moving.ParentID) {
			if sib.ID != id {
				remaining = append(remaining, sib)
			}
		}
		return applyPlan(ctx, tx, tree.CalculateReorderAfterInsert(remaining, len(remaining)))
	})
}

// Rename sets a node's title.
func (s *Store) Rename(ctx context.Context, id, title string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE nodes SET title = ? WHERE id = ?`, strings.TrimSpace(title), id)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "rename"), "node_id", id)
		}
		return requireRow(res, "rename", id)
	})
}

// Delete removes a node and all of its descendants, returning the removed ids
// with id first.
func (s *Store) Delete(ctx context.Context, id string) ([]string, error) {
	var removed []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		nodes, err := readSnapshot(ctx, tx)
		if err != nil {
			return err
		}
		if findNode(nodes, id) == nil {
			return notFound("delete", id)
		}
		removed = append([]string{id}, tree.GetDescendants(nodes, id)...)
		for _, rid := range removed {
			if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, rid); err != nil {
				return zerr.With(zerr.Wrap(err, "delete"), "node_id", rid)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// SetCollapsed persists the collapsed flag of one folder.
func (s *Store) SetCollapsed(ctx context.Context, id string, collapsed bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE nodes SET collapsed = ? WHERE id = ? AND type = ?`,
			collapsed, id, string(model.TypeFolder))
		if err != nil {
			return zerr.With(zerr.Wrap(err, "set collapsed"), "node_id", id)
		}
		return requireRow(res, "set collapsed", id)
	})
}

// SyncExpanded writes an expand map back as collapsed flags. Only folders
// whose stored flag differs are touched. It returns the number of writes.
func (s *Store) SyncExpanded(ctx context.Context, expanded tree.ExpandMap) (int, error) {
	written := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		nodes, err := readSnapshot(ctx, tx)
		if err != nil {
			return err
		}
		for id, collapsed := range tree.CollapsedFlags(expanded, nodes) {
			if _, err := tx.ExecContext(ctx, `UPDATE nodes SET collapsed = ? WHERE id = ?`, collapsed, id); err != nil {
				return zerr.With(zerr.Wrap(err, "sync expanded"), "node_id", id)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// Import replaces the whole store with nodes. Records are validated first;
// structural damage such as orphans is accepted and left for the integrity
// check to report.
func (s *Store) Import(ctx context.Context, nodes []model.NodeRecord) error {
	seen := make(map[string]bool, len(nodes))
	for i := range nodes {
		if err := nodes[i].Validate(); err != nil {
			return zerr.With(zerr.Wrap(ErrInvalidNode, err.Error()), "index", i)
		}
		if seen[nodes[i].ID] {
			return zerr.With(zerr.Wrap(ErrInvalidNode, "duplicate id"), "node_id", nodes[i].ID)
		}
		seen[nodes[i].ID] = true
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
			return zerr.Wrap(err, "clear nodes")
		}
		for _, n := range nodes {
			if err := insertRecord(ctx, tx, n); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureFolderPath returns the folder reached by following titles down from
// parentID, creating whichever folders are missing. The returned id is
// parentID itself when titles is empty.
func (s *Store) EnsureFolderPath(ctx context.Context, parentID string, titles []string) (string, error) {
	var deepest string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		nodes, err := readSnapshot(ctx, tx)
		if err != nil {
			return err
		}
		if err := checkParent(nodes, parentID); err != nil {
			return err
		}

		res := tree.ResolveFolderPath(nodes, parentID, titles)
		deepest = res.DeepestID
		for _, title := range res.Remaining {
			rec := model.NodeRecord{
				ID:       uuid.NewString(),
				ParentID: deepest,
				Type:     model.TypeFolder,
				Title:    title,
				Order:    tree.GetNextOrder(nodes, deepest),
			}
			if err := insertRecord(ctx, tx, rec); err != nil {
				return err
			}
			nodes = append(nodes, rec)
			deepest = rec.ID
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return deepest, nil
}

func findNode(nodes []model.NodeRecord, id string) *model.NodeRecord {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
	}
	return nil
}

// checkParent verifies parentID is empty or an existing folder.
func checkParent(nodes []model.NodeRecord, parentID string) error {
	if parentID == "" {
		return nil
	}
	parent := findNode(nodes, parentID)
	if parent == nil {
		return notFound("resolve parent", parentID)
	}
	if !parent.IsFolder() {
		err := zerr.With(zerr.Wrap(ErrParentNotFolder, "resolve parent"), "parent_id", parentID)
		return zerr.With(err, "type", string(parent.Type))
	}
	return nil
}

func applyPlan(ctx context.Context, q queryer, plan tree.ReorderPlan) error {
	for _, a := range plan.Assignments {
		if err := setOrder(ctx, q, a.ID, a.Order); err != nil {
			return err
		}
	}
	return nil
}

func requireRow(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return zerr.Wrap(err, op)
	}
	if n == 0 {
		return notFound(op, id)
	}
	return nil
}
