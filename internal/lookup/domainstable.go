package lookup

import (
	"github.com/AdguardTeam/adblock/filterutil"
	"github.com/AdguardTeam/adblock/internal/fasthash"
	"github.com/AdguardTeam/adblock/rules"
)

// DomainsTable is a lookup table that uses domains from the $domain modifier
// to speed up the rules search.  Only the rules with $domain modifier are
// eligible for this lookup table.
type DomainsTable struct {
	// ruleStorage is the storage for the network filtering rules.
	ruleStorage RuleStorage

	// domainsLookupTable maps the hashes of the permitted domains, including
	// entity domains like "google.*", to the storage indexes of rules.
	domainsLookupTable map[uint32][]int64
}

// type check
var _ Table = (*DomainsTable)(nil)

// NewDomainsTable creates a new instance of the DomainsTable.
func NewDomainsTable(rs RuleStorage) (t *DomainsTable) {
	return &DomainsTable{
		ruleStorage:        rs,
		domainsLookupTable: map[uint32][]int64{},
	}
}

// TryAdd implements the [Table] interface for *DomainsTable.
func (t *DomainsTable) TryAdd(f *rules.NetworkRule, storageIdx int64) (ok bool) {
	permittedDomains := f.GetPermittedDomains()
	if len(permittedDomains) == 0 {
		return false
	}

	for _, domain := range permittedDomains {
		hash := fasthash.String(domain)
		t.domainsLookupTable[hash] = append(t.domainsLookupTable[hash], storageIdx)
	}

	return true
}

// MatchAll implements the [Table] interface for *DomainsTable.
func (t *DomainsTable) MatchAll(r *rules.Request, result []int64) (res []int64) {
	if r.SourceHostname == "" {
		return result
	}

	for _, domain := range filterutil.Subdomains(r.SourceHostname) {
		result = t.matchDomain(r, domain, result)
		if entity, ok := rules.EntityKey(domain); ok {
			result = t.matchDomain(r, entity, result)
		}
	}

	return result
}

// matchDomain appends the indexes of the rules permitted on domain and
// matching r to result.
func (t *DomainsTable) matchDomain(r *rules.Request, domain string, result []int64) (res []int64) {
	for _, ruleIdx := range t.domainsLookupTable[fasthash.String(domain)] {
		f := t.ruleStorage.RetrieveNetworkRule(ruleIdx)
		if f != nil && f.Match(r) {
			result = append(result, ruleIdx)
		}
	}

	return result
}
