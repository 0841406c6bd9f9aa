// Package loader reads and writes node snapshots as JSONL (one record per
// line) or as a single JSON array. It also keeps the state directory out of
// version control.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

// maxLineSize bounds one JSONL record. Titles are short, but a pasted record
// may carry long text.
const maxLineSize = 4 * 1024 * 1024

// LoadNodesFromFile reads a snapshot file. Both JSONL and JSON array files
// are accepted.
func LoadNodesFromFile(path string) ([]model.NodeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	nodes, err := LoadNodes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nodes, nil
}

// LoadNodes reads a snapshot from r. If the first non-space byte is '[' the
// input is decoded as a JSON array, otherwise as JSONL. Blank lines are
// skipped. Every record is validated.
func LoadNodes(r io.Reader) ([]model.NodeRecord, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []model.NodeRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	if first == '[' {
		var nodes []model.NodeRecord
		if err := json.NewDecoder(br).Decode(&nodes); err != nil {
			return nil, fmt.Errorf("decoding JSON array: %w", err)
		}
		for i := range nodes {
			if err := nodes[i].Validate(); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		}
		if nodes == nil {
			nodes = []model.NodeRecord{}
		}
		return nodes, nil
	}

	nodes := []model.NodeRecord{}
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var n model.NodeRecord
		if err := json.Unmarshal(line, &n); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		nodes = append(nodes, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading line %d: %w", lineNum+1, err)
	}
	return nodes, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// WriteNodesJSONL writes one record per line, sorted by parent, order and id
// so that exports diff cleanly.
func WriteNodesJSONL(w io.Writer, nodes []model.NodeRecord) error {
	sorted := make([]model.NodeRecord, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ParentID != b.ParentID {
			return a.ParentID < b.ParentID
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, n := range sorted {
		if err := enc.Encode(n); err != nil {
			return fmt.Errorf("encoding %s: %w", n.ID, err)
		}
	}
	return bw.Flush()
}

// SaveNodesToFile writes the snapshot as JSONL, replacing path atomically.
func SaveNodesToFile(path string, nodes []model.NodeRecord) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := WriteNodesJSONL(tmp, nodes); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
