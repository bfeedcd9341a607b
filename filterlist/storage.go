package filterlist

import (
	"github.com/AdguardTeam/adblock/rules"
)

// RuleStorage keeps the parsed rules of a filter set in the order in which
// they were added.  The index of a network rule in the storage is its unique
// identifier in the lookup tables of the network blocker.
//
// RuleStorage is not safe for concurrent use, but it can be read concurrently
// while nothing is added to it.
type RuleStorage struct {
	// network are the network rules, including the $badfilter ones.
	network []*rules.NetworkRule

	// cosmetic are the cosmetic rules.
	cosmetic []*rules.CosmeticRule
}

// NewRuleStorage returns a new storage with the given rules.  The slices are
// retained.
func NewRuleStorage(network []*rules.NetworkRule, cosmetic []*rules.CosmeticRule) (s *RuleStorage) {
	return &RuleStorage{
		network:  network,
		cosmetic: cosmetic,
	}
}

// AddNetworkRule appends a network rule to the storage and returns its index.
func (s *RuleStorage) AddNetworkRule(r *rules.NetworkRule) (idx int64) {
	s.network = append(s.network, r)

	return int64(len(s.network) - 1)
}

// AddCosmeticRule appends a cosmetic rule to the storage.
func (s *RuleStorage) AddCosmeticRule(r *rules.CosmeticRule) {
	s.cosmetic = append(s.cosmetic, r)
}

// RetrieveNetworkRule returns the network rule with the given index or nil if
// the index is out of range.
func (s *RuleStorage) RetrieveNetworkRule(idx int64) (r *rules.NetworkRule) {
	if idx < 0 || idx >= int64(len(s.network)) {
		return nil
	}

	return s.network[idx]
}

// NetworkRules returns the network rules.  Callers must not modify the
// returned slice.
func (s *RuleStorage) NetworkRules() (rs []*rules.NetworkRule) {
	return s.network
}

// CosmeticRules returns the cosmetic rules.  Callers must not modify the
// returned slice.
func (s *RuleStorage) CosmeticRules() (rs []*rules.CosmeticRule) {
	return s.cosmetic
}

// clone returns a copy of s that doesn't share the slices with it.
func (s *RuleStorage) clone() (c *RuleStorage) {
	return &RuleStorage{
		network:  append([]*rules.NetworkRule(nil), s.network...),
		cosmetic: append([]*rules.CosmeticRule(nil), s.cosmetic...),
	}
}
