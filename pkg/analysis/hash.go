package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

// ComputeDataHash returns a content hash of the snapshot. Record order in the
// input does not affect the result; any field change does.
func ComputeDataHash(nodes []model.NodeRecord) string {
	sorted := make([]model.NodeRecord, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ID != sorted[j].ID {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].ParentID < sorted[j].ParentID
	})

	hasher := xxhash.New()
	for _, n := range sorted {
		_, _ = hasher.WriteString(n.ID)
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(n.ParentID)
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(string(n.Type))
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(n.Title)
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(strconv.FormatUint(math.Float64bits(n.Order), 16))
		_, _ = hasher.Write([]byte{0})
		switch {
		case n.Collapsed == nil:
			_, _ = hasher.Write([]byte{'-'})
		case *n.Collapsed:
			_, _ = hasher.Write([]byte{'1'})
		default:
			_, _ = hasher.Write([]byte{'0'})
		}
		_, _ = hasher.Write([]byte{'\n'}) // Record separator
	}
	return fmt.Sprintf("%016x", hasher.Sum64())
}
