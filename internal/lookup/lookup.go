// Package lookup implements index structures that we use to improve matching
// speed in the network blocker.
package lookup

import (
	"slices"

	"github.com/AdguardTeam/adblock/rules"
)

// Table is a common interface for all lookup tables.
type Table interface {
	// TryAdd attempts to add the rule to the lookup table.  It returns
	// true/false depending on whether the rule is eligible for this lookup
	// table.
	TryAdd(f *rules.NetworkRule, storageIdx int64) (ok bool)

	// MatchAll appends the storage indexes of all rules from this table
	// matching r to result and returns it.  The same index may be appended
	// more than once.
	MatchAll(r *rules.Request, result []int64) (res []int64)
}

// RuleStorage retrieves network rules by their storage indexes.
type RuleStorage interface {
	// RetrieveNetworkRule returns the rule with the given index or nil if
	// there is none.
	RetrieveNetworkRule(idx int64) (r *rules.NetworkRule)
}

// Index combines the lookup tables.  Each rule is added to the first table
// that accepts it, the sequential scan table being the last resort.
type Index struct {
	storage RuleStorage
	tables  []Table
	size    int
}

// NewIndex returns a new index over the rules from rs.  If optimize is true,
// plain hostname rules are put into a [HostnamesTable].
func NewIndex(rs RuleStorage, optimize bool) (idx *Index) {
	idx = &Index{
		storage: rs,
	}

	if optimize {
		idx.tables = append(idx.tables, NewHostnamesTable(rs))
	}

	idx.tables = append(
		idx.tables,
		NewShortcutsTable(rs),
		NewDomainsTable(rs),
		NewSeqScanTable(rs),
	)

	return idx
}

// Add adds the rule with the given storage index to the first eligible table.
func (idx *Index) Add(f *rules.NetworkRule, storageIdx int64) {
	for _, t := range idx.tables {
		if t.TryAdd(f, storageIdx) {
			idx.size++

			return
		}
	}
}

// Len returns the number of rules in the index.
func (idx *Index) Len() (n int) {
	return idx.size
}

// MatchAll returns all rules matching r in the order of their storage indexes.
// Each rule is returned once.
func (idx *Index) MatchAll(r *rules.Request) (result []*rules.NetworkRule) {
	var indexes []int64
	for _, t := range idx.tables {
		indexes = t.MatchAll(r, indexes)
	}

	if len(indexes) == 0 {
		return nil
	}

	slices.Sort(indexes)
	indexes = slices.Compact(indexes)

	result = make([]*rules.NetworkRule, 0, len(indexes))
	for _, i := range indexes {
		if f := idx.storage.RetrieveNetworkRule(i); f != nil {
			result = append(result, f)
		}
	}

	return result
}
