// Package filterlist contains the accumulator of filter list rules and the
// storage of the parsed rules.
package filterlist

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/AdguardTeam/adblock/rules"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// ErrFilterSetConsumed is returned when a filter set that has already been
// compiled into an engine is used again.
const ErrFilterSetConsumed errors.Error = "filter set has already been consumed"

// Config is the configuration of a [FilterSet].
type Config struct {
	// Logger is used to log the skipped lines.  If nil, [slog.Default] is
	// used.
	Logger *slog.Logger

	// Debug makes the rules keep their source text.
	Debug bool
}

// FilterSet accumulates the rules of one or more filter lists before they are
// compiled into an engine.  Lines that cannot be parsed are skipped.
type FilterSet struct {
	logger   *slog.Logger
	storage  *RuleStorage
	debug    bool
	consumed bool
}

// NewFilterSet returns a new empty filter set.  c may be nil.
func NewFilterSet(c *Config) (s *FilterSet) {
	if c == nil {
		c = &Config{}
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FilterSet{
		logger:  logger,
		storage: &RuleStorage{},
		debug:   c.Debug,
	}
}

// Debug returns true if the rules of the set keep their source text.
func (s *FilterSet) Debug() (ok bool) {
	return s.debug
}

// AddFilterList parses the newline-separated rules from text and adds them to
// the set.  opts may be nil.
func (s *FilterSet) AddFilterList(text string, opts *rules.ParseOptions) (err error) {
	return s.AddFromReader(strings.NewReader(text), opts)
}

// AddFilters parses each of lines as a rule and adds them to the set.  opts
// may be nil.
func (s *FilterSet) AddFilters(lines []string, opts *rules.ParseOptions) (err error) {
	if s.consumed {
		return ErrFilterSetConsumed
	}

	for _, line := range lines {
		r, parseErr := rules.NewRule(line, opts)
		if parseErr != nil {
			s.logger.Debug("skipping rule", "rule", line, slogutil.KeyError, parseErr)

			continue
		}

		s.add(r)
	}

	return nil
}

// AddFromReader parses the rules read from r and adds them to the set.  opts
// may be nil.  It only returns an error if reading fails, in which case the
// rules read before the failure stay in the set.
func (s *FilterSet) AddFromReader(r io.Reader, opts *rules.ParseOptions) (err error) {
	if s.consumed {
		return ErrFilterSetConsumed
	}

	sc := NewRuleScanner(r, opts, s.logger)
	for sc.Scan() {
		rule, _ := sc.Rule()
		s.add(rule)
	}

	if err = sc.Err(); err != nil {
		return fmt.Errorf("reading filter list: %w", err)
	}

	if n := sc.Skipped(); n > 0 {
		s.logger.Debug("filter list has invalid rules", "skipped", n)
	}

	return nil
}

// add adds a parsed rule to the storage.  r may be nil.
func (s *FilterSet) add(r rules.Rule) {
	switch r := r.(type) {
	case *rules.NetworkRule:
		s.addNetworkRule(r)
	case *rules.HostRule:
		for _, nr := range r.NetworkRules() {
			s.addNetworkRule(nr)
		}
	case *rules.CosmeticRule:
		if !s.debug {
			r.RuleText = ""
		}

		s.storage.AddCosmeticRule(r)
	default:
		// Comments and skipped kinds.
	}
}

// addNetworkRule adds a network rule to the storage.
func (s *FilterSet) addNetworkRule(r *rules.NetworkRule) {
	if !s.debug {
		r.RuleText = ""
	}

	s.storage.AddNetworkRule(r)
}

// NetworkRulesCount returns the number of network rules in the set.
func (s *FilterSet) NetworkRulesCount() (n int) {
	return len(s.storage.network)
}

// CosmeticRulesCount returns the number of cosmetic rules in the set.
func (s *FilterSet) CosmeticRulesCount() (n int) {
	return len(s.storage.cosmetic)
}

// Clone returns an unconsumed copy of the set.  The rules themselves are
// immutable and shared.
func (s *FilterSet) Clone() (c *FilterSet) {
	return &FilterSet{
		logger:  s.logger,
		storage: s.storage.clone(),
		debug:   s.debug,
	}
}

// Consume marks the set as consumed and returns its rules.  Any further use of
// the set fails with [ErrFilterSetConsumed].
func (s *FilterSet) Consume() (storage *RuleStorage, err error) {
	if s.consumed {
		return nil, ErrFilterSetConsumed
	}

	s.consumed = true
	storage, s.storage = s.storage, &RuleStorage{}

	return storage, nil
}

// String implements the [fmt.Stringer] interface for *FilterSet.
func (s *FilterSet) String() (str string) {
	return fmt.Sprintf("FilterSet(debug=%t)", s.debug)
}
