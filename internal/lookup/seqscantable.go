package lookup

import (
	"github.com/AdguardTeam/adblock/rules"
)

// SeqScanTable is basically just a list of network rules that are scanned
// sequentially.  Here we put the rules that are not eligible for other tables.
type SeqScanTable struct {
	ruleStorage RuleStorage
	indexes     []int64
}

// type check
var _ Table = (*SeqScanTable)(nil)

// NewSeqScanTable creates a new instance of the SeqScanTable.
func NewSeqScanTable(rs RuleStorage) (t *SeqScanTable) {
	return &SeqScanTable{
		ruleStorage: rs,
	}
}

// TryAdd implements the [Table] interface for *SeqScanTable.  It accepts any
// rule.
func (t *SeqScanTable) TryAdd(_ *rules.NetworkRule, storageIdx int64) (ok bool) {
	t.indexes = append(t.indexes, storageIdx)

	return true
}

// MatchAll implements the [Table] interface for *SeqScanTable.
func (t *SeqScanTable) MatchAll(r *rules.Request, result []int64) (res []int64) {
	for _, ruleIdx := range t.indexes {
		f := t.ruleStorage.RetrieveNetworkRule(ruleIdx)
		if f != nil && f.Match(r) {
			result = append(result, ruleIdx)
		}
	}

	return result
}
