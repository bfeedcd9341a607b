package lookup

import (
	"math"
	"strings"

	"github.com/AdguardTeam/adblock/internal/fasthash"
	"github.com/AdguardTeam/adblock/rules"
)

// shortcutLength is the length of the shortcut part used as the table key.
const shortcutLength = 5

// ShortcutsTable is a table that relies on the rule "shortcuts" to quickly find
// matching rules.  Here's how it works:
//
//  1. We extract from the rule the longest substring without special
//     characters from, this string is called a "shortcut".
//  2. We take a part of it of length shortcutLength and put it to the
//     internal hashmap.
//  3. When we match a request, we take all substrings of length
//     shortcutLength from it and check if there are any rules in the hashmap.
//
// Note that only the rules with a shortcut are eligible for this table.
type ShortcutsTable struct {
	// ruleStorage is the storage for the network filtering rules.
	ruleStorage RuleStorage

	// shortcutsLookupTable is the map where the key is the hash of the
	// shortcut and value is a list of rules' indexes.
	shortcutsLookupTable map[uint32][]int64

	// shortcutsHistogram helps us choose the best shortcut for the shortcuts
	// lookup table.
	shortcutsHistogram map[uint32]int
}

// type check
var _ Table = (*ShortcutsTable)(nil)

// NewShortcutsTable creates a new instance of the ShortcutsTable.
func NewShortcutsTable(rs RuleStorage) (t *ShortcutsTable) {
	return &ShortcutsTable{
		ruleStorage:          rs,
		shortcutsLookupTable: map[uint32][]int64{},
		shortcutsHistogram:   map[uint32]int{},
	}
}

// TryAdd implements the [Table] interface for *ShortcutsTable.
func (t *ShortcutsTable) TryAdd(f *rules.NetworkRule, storageIdx int64) (ok bool) {
	sc := f.Shortcut
	if len(sc) < shortcutLength || isAnyURLShortcut(sc) {
		return false
	}

	// Use the least used part of the shortcut.
	var hash uint32
	minCount := math.MaxInt
	for i := 0; i <= len(sc)-shortcutLength; i++ {
		h := fasthash.Between(sc, i, i+shortcutLength)
		if count := t.shortcutsHistogram[h]; count < minCount {
			minCount = count
			hash = h
		}
	}

	t.shortcutsHistogram[hash] = minCount + 1
	t.shortcutsLookupTable[hash] = append(t.shortcutsLookupTable[hash], storageIdx)

	return true
}

// MatchAll implements the [Table] interface for *ShortcutsTable.
func (t *ShortcutsTable) MatchAll(r *rules.Request, result []int64) (res []int64) {
	url := r.URLLowerCase
	for i := 0; i <= len(url)-shortcutLength; i++ {
		hash := fasthash.Between(url, i, i+shortcutLength)
		for _, ruleIdx := range t.shortcutsLookupTable[hash] {
			f := t.ruleStorage.RetrieveNetworkRule(ruleIdx)
			if f != nil && f.Match(r) {
				result = append(result, ruleIdx)
			}
		}
	}

	return result
}

// isAnyURLShortcut checks if the rule potentially matches too many URLs.  We'd
// better use another type of lookup table for this kind of rules.
func isAnyURLShortcut(sc string) (ok bool) {
	switch l := len(sc); {
	case
		l < len("ws://")+1 && strings.HasPrefix(sc, "ws:"),
		l < len("wss://")+1 && strings.HasPrefix(sc, "wss:"),
		l < len("https://")+1 && strings.HasPrefix(sc, "http"):
		return true
	default:
		return false
	}
}
