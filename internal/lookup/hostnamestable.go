package lookup

import (
	"strings"

	"github.com/AdguardTeam/adblock/filterutil"
	"github.com/AdguardTeam/adblock/rules"
)

// HostnamesTable is a lookup table for the plain "||hostname^" rules.  Such
// rules are matched by looking up the request hostname and its parent domains,
// so their patterns are never compiled.
type HostnamesTable struct {
	// ruleStorage is the storage for the network filtering rules.
	ruleStorage RuleStorage

	// hostnamesLookupTable maps hostnames to the storage indexes of rules.
	hostnamesLookupTable map[string][]int64
}

// type check
var _ Table = (*HostnamesTable)(nil)

// NewHostnamesTable creates a new instance of the HostnamesTable.
func NewHostnamesTable(rs RuleStorage) (t *HostnamesTable) {
	return &HostnamesTable{
		ruleStorage:          rs,
		hostnamesLookupTable: map[string][]int64{},
	}
}

// TryAdd implements the [Table] interface for *HostnamesTable.
func (t *HostnamesTable) TryAdd(f *rules.NetworkRule, storageIdx int64) (ok bool) {
	hostname, ok := f.HostnamePattern()
	if !ok {
		return false
	}

	t.hostnamesLookupTable[hostname] = append(t.hostnamesLookupTable[hostname], storageIdx)

	return true
}

// MatchAll implements the [Table] interface for *HostnamesTable.
func (t *HostnamesTable) MatchAll(r *rules.Request, result []int64) (res []int64) {
	if !hasHierarchicalScheme(r.URLLowerCase) {
		return result
	}

	for _, domain := range filterutil.Subdomains(r.Hostname) {
		result = append(result, t.hostnamesLookupTable[domain]...)
	}

	return result
}

// hasHierarchicalScheme returns true if url starts with one of the schemes
// matched by the "||" pattern anchor.
func hasHierarchicalScheme(url string) (ok bool) {
	for _, scheme := range []string{"https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}

	return false
}
