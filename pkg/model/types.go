package model

import (
	"fmt"
)

// NodeRecord is one entry of a project snapshot: a folder or a leaf item.
// Records are owned by the persistence layer; everything else reads them.
type NodeRecord struct {
	ID        string   `json:"id"`
	ParentID  string   `json:"parent_id,omitempty"` // "" for root nodes (null on the wire)
	Type      NodeType `json:"type"`
	Title     string   `json:"title"`
	Order     float64  `json:"order"`               // Position among siblings
	Collapsed *bool    `json:"collapsed,omitempty"` // Persisted UI hint; nil means collapsed
}

// IsRoot returns true if the node has no parent.
func (n NodeRecord) IsRoot() bool {
	return n.ParentID == ""
}

// IsFolder returns true if the node can contain children.
func (n NodeRecord) IsFolder() bool {
	return n.Type.IsFolder()
}

// IsCollapsed reports the persisted collapsed flag, treating absence as collapsed.
func (n NodeRecord) IsCollapsed() bool {
	if n.Collapsed == nil {
		return true
	}
	return *n.Collapsed
}

// Clone creates a deep copy of the record
func (n NodeRecord) Clone() NodeRecord {
	clone := n
	if n.Collapsed != nil {
		v := *n.Collapsed
		clone.Collapsed = &v
	}
	return clone
}

// Validate checks if the record is well formed enough to be written.
// The tree engine never calls this; it has to cope with bad snapshots anyway.
func (n *NodeRecord) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("node ID cannot be empty")
	}
	if !n.Type.IsValid() {
		return fmt.Errorf("invalid node type: %q", n.Type)
	}
	if n.ParentID == n.ID {
		return fmt.Errorf("node %s cannot be its own parent", n.ID)
	}
	return nil
}

// NodeType discriminates folders from the leaf variants.
type NodeType string

const (
	TypeFolder   NodeType = "folder"
	TypeDocument NodeType = "document"
	TypeDrawing  NodeType = "drawing"
	TypeCode     NodeType = "code"
	TypeFile     NodeType = "file"
)

// IsValid returns true if the node type is non-empty.
// Leaf variants are open-ended; only folder vs. non-folder matters to the tree.
func (t NodeType) IsValid() bool {
	return t != ""
}

// IsFolder returns true for the folder type
func (t NodeType) IsFolder() bool {
	return t == TypeFolder
}

// IsKnownType returns true if the type is one of the built-in types.
// This is used for icon selection, not validation.
func (t NodeType) IsKnownType() bool {
	switch t {
	case TypeFolder, TypeDocument, TypeDrawing, TypeCode, TypeFile:
		return true
	}
	return false
}

// BoolPtr returns a pointer to b, for building records with an explicit Collapsed flag.
func BoolPtr(b bool) *bool { return &b }
