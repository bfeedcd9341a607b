// Package rules contains the implementation of the ad-blocking rules parser:
// network rules, cosmetic rules and hosts-file rules, and the request model
// they are matched against.
package rules

import (
	"fmt"
	"strings"

	"github.com/AdguardTeam/adblock/filterutil"
	"github.com/AdguardTeam/golibs/errors"
)

// RuleSyntaxError represents an error while parsing a filtering rule.
type RuleSyntaxError struct {
	msg      string
	ruleText string
}

// type check
var _ error = (*RuleSyntaxError)(nil)

// Error implements the error interface for *RuleSyntaxError.
func (e *RuleSyntaxError) Error() (msg string) {
	return fmt.Sprintf("syntax error: %s, rule: %s", e.msg, e.ruleText)
}

// ErrUnsupportedRule signals that this might be a valid rule type, but it is
// not supported by this library.
const ErrUnsupportedRule errors.Error = "this type of rules is unsupported"

// Format is the syntax of a filter list.
type Format uint8

// Format values.
const (
	// FormatStandard is the common ad-blocking rules syntax.
	FormatStandard Format = iota

	// FormatHosts is the /etc/hosts syntax, where each hostname is blocked
	// entirely.
	FormatHosts
)

// String implements the [fmt.Stringer] interface for Format.
func (f Format) String() (s string) {
	switch f {
	case FormatStandard:
		return "standard"
	case FormatHosts:
		return "hosts"
	default:
		return fmt.Sprintf("Format(%d)", f)
	}
}

// ParseFormat converts a textual representation of a filter list format.  An
// empty string means [FormatStandard].
func ParseFormat(s string) (f Format, err error) {
	switch strings.ToLower(s) {
	case "", "standard":
		return FormatStandard, nil
	case "hosts":
		return FormatHosts, nil
	default:
		return 0, fmt.Errorf("unknown filter list format %q", s)
	}
}

// RuleTypes selects the kinds of rules a filter list contributes.
type RuleTypes uint8

// RuleTypes values.
const (
	RuleTypesAll RuleTypes = iota
	RuleTypesNetworkOnly
	RuleTypesCosmeticOnly
)

// ParseOptions are the options of parsing a single filter list line.
type ParseOptions struct {
	// Format is the syntax of the line.
	Format Format

	// RuleTypes selects the kinds of rules to keep.  Rules of other kinds are
	// skipped as if they were comments.
	RuleTypes RuleTypes

	// IncludeRedirectURLs enables the $redirect-url modifier.  If it is
	// false, rules with that modifier are rejected.
	IncludeRedirectURLs bool
}

// defaultParseOptions are used when nil options are passed.
var defaultParseOptions = &ParseOptions{}

// Rule is a base interface for all filtering rules.
type Rule interface {
	// Text returns the original rule text.
	Text() (s string)
}

// NewRule creates a new filtering rule from the specified line.  It returns
// nil and no error if the line is empty, is a comment, or contains a rule of a
// kind excluded by opts.  opts may be nil.
func NewRule(line string, opts *ParseOptions) (r Rule, err error) {
	if opts == nil {
		opts = defaultParseOptions
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	if opts.Format == FormatHosts {
		if line[0] == '#' || opts.RuleTypes == RuleTypesCosmeticOnly {
			return nil, nil
		}

		return newRule(NewHostRule(line))
	}

	if isComment(line) {
		return nil, nil
	}

	if isCosmetic(line) {
		if opts.RuleTypes == RuleTypesNetworkOnly {
			return nil, nil
		}

		return newRule(NewCosmeticRule(line))
	}

	if opts.RuleTypes == RuleTypesCosmeticOnly {
		return nil, nil
	}

	return newRule(NewNetworkRule(line, opts))
}

// newRule converts the result of a typed constructor into a Rule, making sure
// that a failed parse never produces a non-nil interface holding a nil pointer.
func newRule[T Rule](typed T, parseErr error) (r Rule, err error) {
	if parseErr != nil {
		return nil, parseErr
	}

	return typed, nil
}

// isComment checks if the line is a comment.  Filter list headers such as
// "[Adblock Plus 2.0]" are considered comments too.
func isComment(line string) (ok bool) {
	switch line[0] {
	case '!', '[':
		return true
	case '#':
		if len(line) == 1 {
			return true
		}

		// Make sure that this is not a cosmetic rule.
		for _, marker := range cosmeticRulesMarkers {
			if strings.HasPrefix(line, marker) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// loadDomains loads the $domain modifier or cosmetic rules domains.  sep is
// the separator, "|" for network rules and "," for cosmetic ones.
func loadDomains(domains, sep string) (permitted, restricted []string, err error) {
	if domains == "" {
		return nil, nil, errors.Error("no domains specified")
	}

	for _, d := range strings.Split(domains, sep) {
		d = strings.TrimSpace(d)
		isRestricted := strings.HasPrefix(d, "~")
		if isRestricted {
			d = d[1:]
		}

		d = strings.ToLower(d)
		if !filterutil.IsDomainName(d) && !isWildcardTLD(d) {
			return nil, nil, fmt.Errorf("invalid domain specified: %s", domains)
		}

		if isRestricted {
			restricted = append(restricted, d)
		} else {
			permitted = append(permitted, d)
		}
	}

	return permitted, restricted, nil
}

// isWildcardTLD returns true if d is an entity pattern like "google.*".
func isWildcardTLD(d string) (ok bool) {
	return len(d) > len(".*") && strings.HasSuffix(d, ".*")
}
